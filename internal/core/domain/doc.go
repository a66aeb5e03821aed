// Package domain holds the core entities (Library, Document, Chunk),
// index-kind configuration, the metadata filter grammar, and the sentinel
// errors shared across services and adapters.
//
// # Import rules
//
//   - Can import: nothing outside the standard library.
//   - Cannot import: ports, services, or adapter packages.
package domain
