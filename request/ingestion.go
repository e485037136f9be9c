package request

// ChunkDocumentRequest 文档分块请求
type ChunkDocumentRequest struct {
	FilePath     string `json:"file_path" binding:"required"`
	DocumentID   string `json:"document_id"`
	Strategy     string `json:"strategy"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	MaxChunks    int    `json:"max_chunks"`
	ChunkTable   string `json:"chunk_table"`
}

// SubmitIngestionRequest 异步摄取请求，文件已上传至OSS后调用
type SubmitIngestionRequest struct {
	ObjectName     string `json:"object_name" binding:"required"`
	DocumentID     string `json:"document_id"`
	Strategy       string `json:"strategy"`
	CollectionName string `json:"collection_name"`
}

// ProcessEmbeddingsRequest 嵌入处理请求
type ProcessEmbeddingsRequest struct {
	ChunkingTaskID string `json:"chunking_task_id" binding:"required"`
	DocumentID     string `json:"document_id" binding:"required"`
	Model          string `json:"model"`
	Dimension      int    `json:"dimension"`
	CollectionName string `json:"collection_name"`
	Resume         bool   `json:"resume"`
}
