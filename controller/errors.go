package controller

import "errors"

var (
	ErrParseRequest = errors.New("failed to parse request")

	ErrChunkDocument      = errors.New("failed to chunk document")
	ErrGetChunkingTask    = errors.New("failed to get chunking task")
	ErrProcessEmbeddings  = errors.New("failed to process embeddings")
	ErrGetEmbeddingTask   = errors.New("failed to get embedding task")
	ErrSubmitIngestion    = errors.New("failed to submit ingestion job")

	ErrQuery         = errors.New("failed to answer query")
	ErrSearchVectors = errors.New("failed to search vectors")
)
