// Package domain defines the core business entities for Voltdex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested document with processing status
//   - Chunk: A page-tagged, independently retrievable unit of text
//   - IngestState: Resumable batch-ingestion progress
//   - QueryLog: Append-only audit record for answered queries
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
