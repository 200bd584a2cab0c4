// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Document bodies, embeddings and index
//   - ErrorStore: Failed ingestions kept for retry
//   - CategoryStore, LocationStore, MappingStore: Assignment catalogs
//   - ImageStore: Copies of scanned images
//   - TextExtractor: OCR
//   - Classifier: Category and location proposals
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Without it documents are stored unembedded and search returns nothing.
//   - LLMService: Backs the classifier and the vision extractor.
//   - RemotePersister: Forwarding to the relational service is skipped.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
