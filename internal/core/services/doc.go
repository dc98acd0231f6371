// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO dependencies. Optional driven
// services (LLM, embeddings) may be nil; every pipeline degrades to a
// deterministic local path instead of failing.
package services
