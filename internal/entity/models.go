package entity

// FileData is an uploaded file held in memory for ingestion.
type FileData struct {
	Filename string
	Content  []byte
}

// Chunk is a bounded span of document text, the unit of embedding and
// retrieval. Chunks are handed to the vector index and not kept here.
type Chunk struct {
	ID     string
	Text   string
	Source string
}

// Vector pairs a chunk with its embedding for upsert.
type Vector struct {
	ID     string
	Values []float32
	Text   string
	Source string
}

// ScoredChunk is a retrieval match from the vector index.
type ScoredChunk struct {
	Chunk
	Score float32
}

// QueryRequest is the /query payload.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the /query result.
type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

// UploadResponse is the /upload result.
type UploadResponse struct {
	ChunksIndexed int `json:"chunks_indexed"`
	Files         int `json:"files"`
}

// ErrorResponse is the error body shared by all handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
