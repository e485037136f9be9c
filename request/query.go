package request

// QueryRequest 检索增强问答请求
type QueryRequest struct {
	Query          string `json:"query" binding:"required"`
	CollectionName string `json:"collection_name"`
	TopK           int    `json:"top_k"`
	DocumentID     string `json:"document_id"`
}

// SearchRequest 纯向量检索请求
type SearchRequest struct {
	Query          string `json:"query" binding:"required"`
	CollectionName string `json:"collection_name"`
	Limit          int    `json:"limit"`
	DocumentID     string `json:"document_id"`
}
