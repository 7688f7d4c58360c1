// Package domain defines the core business entities for Arcveil.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - EntityRef: A Record or RecordSet in the archive graph
//   - Verdict: The privacy classification assigned to an entity for one run
//   - FieldPolicy: Which technical-metadata field types may be rewritten
//   - AuthorPolicy: Which author values are acceptable on protected entities
//   - RunReport: Counts and anomalies produced by one pipeline run
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
