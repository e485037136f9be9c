package response

import "time"

// ChunkingTaskResponse 分块任务状态
type ChunkingTaskResponse struct {
	TaskID       string     `json:"task_id"`
	DocumentID   string     `json:"document_id"`
	FilePath     string     `json:"file_path"`
	Status       string     `json:"status"`
	TotalChunks  int        `json:"total_chunks"`
	Strategy     string     `json:"strategy"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// EmbeddingTaskResponse 嵌入任务状态，progress 为处理进度百分比
type EmbeddingTaskResponse struct {
	TaskID          string     `json:"task_id"`
	ChunkingTaskID  string     `json:"chunking_task_id"`
	DocumentID      string     `json:"document_id"`
	Status          string     `json:"status"`
	TotalChunks     int        `json:"total_chunks"`
	ProcessedChunks int        `json:"processed_chunks"`
	Progress        int        `json:"progress"`
	CollectionName  string     `json:"collection_name"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
}
