// Package driven defines the interfaces that core services call OUT to
// infrastructure adapters (secondary/outbound ports in hexagonal terms).
// Core services depend on these interfaces; adapter packages implement them.
//
// # Interfaces
//
//   - VectorIndex: the common build/insert/delete/search_knn/size contract
//     shared by the brute force, HNSW, and LSH index families.
//   - EmbeddingProvider: maps text to a fixed-dimension vector.
//   - SnapshotStore: persists and restores libraries/documents/chunks.
//   - ConfigStore: application configuration.
//
// # Import rules
//
//   - Can import: domain package only.
//   - Cannot import: any adapter package.
package driven
