package errors

// ============================================================================
// Document / Format Errors (Category: 10)
// ============================================================================

var (
	// ErrUnsupportedFormat indicates the file format has no registered extractor.
	ErrUnsupportedFormat = Register(&Errno{
		Code:    MakeCode(CategoryFormat, 0),
		Message: "Unsupported document format",
	})

	// ErrExtraction indicates the source document is corrupt or unreadable.
	ErrExtraction = Register(&Errno{
		Code:    MakeCode(CategoryFormat, 1),
		Message: "Failed to extract text from document",
	})

	// ErrInvalidFile indicates the file failed pre-extraction validation
	// (missing, not a regular file, empty, or oversized).
	ErrInvalidFile = Register(&Errno{
		Code:    MakeCode(CategoryFormat, 2),
		Message: "Invalid input file",
	})
)

// ============================================================================
// Chunking Errors (Category: 20)
// ============================================================================

var (
	// ErrInvalidChunkConfig indicates an invalid chunk size/overlap combination.
	ErrInvalidChunkConfig = Register(&Errno{
		Code:    MakeCode(CategoryChunking, 0),
		Message: "Invalid chunking configuration",
	})
)

// ============================================================================
// Embedding Errors (Category: 30)
// ============================================================================

var (
	// ErrEmbeddingService indicates a downstream embedding call failed or timed out.
	ErrEmbeddingService = Register(&Errno{
		Code:    MakeCode(CategoryEmbedding, 0),
		Message: "Embedding service failure",
	})

	// ErrEmbeddingDimension indicates a vector/collection dimension mismatch.
	ErrEmbeddingDimension = Register(&Errno{
		Code:    MakeCode(CategoryEmbedding, 1),
		Message: "Embedding dimension mismatch",
	})
)

// ============================================================================
// Index Errors (Category: 40)
// ============================================================================

var (
	// ErrIndexOperation indicates an insert/search/delete failure at the
	// vector store boundary.
	ErrIndexOperation = Register(&Errno{
		Code:    MakeCode(CategoryIndex, 0),
		Message: "Vector index operation failed",
	})

	// ErrPartialDelete indicates a document deletion removed only part of
	// its chunks.
	ErrPartialDelete = Register(&Errno{
		Code:    MakeCode(CategoryIndex, 1),
		Message: "Document deletion partially failed",
	})
)

// ============================================================================
// Configuration Errors (Category: 50)
// ============================================================================

var (
	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = Register(&Errno{
		Code:    MakeCode(CategoryConfig, 0),
		Message: "Invalid configuration",
	})
)

// Category codes.
const (
	CategoryFormat    = 10
	CategoryChunking  = 20
	CategoryEmbedding = 30
	CategoryIndex     = 40
	CategoryConfig    = 50
)
