// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentSource: Fetches document bytes from a data source
//   - DocumentStore: Document persistence
//   - ChunkStore: Chunk persistence and scanning
//   - IngestStateStore: Batch ingestion progress persistence
//   - QueryLogStore: Query history persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Tag extraction, re-ranking, drafting and verification
//     fall back to local heuristics without it.
//   - EmbeddingService: Without it, retrieval runs lexical-only.
//   - WatchableSource: Folder watching is disabled when the source does
//     not implement it.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
