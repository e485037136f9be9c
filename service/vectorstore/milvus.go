package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

const (
	maxContentLength = 65535
	maxVarCharLength = 512
)

var payloadFields = []string{
	"chunk_id", "chunk_index", "content", "document_id",
	"chunking_task_id", "embedding_task_id", "page_number",
	"content_type", "tags", "created_at", "version",
}

// MilvusStore 基于Milvus的向量存储后端
type MilvusStore struct {
	client *milvusclient.Client
}

var _ Store = &MilvusStore{}

func NewMilvusStore(ctx context.Context, endpoint, apiKey string) (*MilvusStore, error) {
	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: endpoint,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %v", err)
	}
	return &MilvusStore{client: client}, nil
}

// EnsureCollection 集合缺失时创建并建立余弦HNSW索引，已存在时不做修改
// 维度不匹配由写入时的Milvus错误暴露
func (s *MilvusStore) EnsureCollection(ctx context.Context, name string, dimension int) error {
	has, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %v", name, err)
	}
	if has {
		return nil
	}

	schema := entity.NewSchema().
		WithField(entity.NewField().
			WithName("id").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxVarCharLength).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName("vector").
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dimension))).
		WithField(entity.NewField().
			WithName("chunk_id").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxVarCharLength)).
		WithField(entity.NewField().
			WithName("chunk_index").
			WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().
			WithName("content").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxContentLength)).
		WithField(entity.NewField().
			WithName("document_id").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxVarCharLength)).
		WithField(entity.NewField().
			WithName("chunking_task_id").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxVarCharLength)).
		WithField(entity.NewField().
			WithName("embedding_task_id").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxVarCharLength)).
		WithField(entity.NewField().
			WithName("page_number").
			WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().
			WithName("content_type").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxVarCharLength)).
		WithField(entity.NewField().
			WithName("tags").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxVarCharLength)).
		WithField(entity.NewField().
			WithName("created_at").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxVarCharLength)).
		WithField(entity.NewField().
			WithName("version").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxVarCharLength))

	err = s.client.CreateCollection(ctx,
		milvusclient.NewCreateCollectionOption(name, schema).
			WithIndexOptions(milvusclient.NewCreateIndexOption(name, "vector",
				index.NewHNSWIndex(entity.COSINE, 16, 200))))
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %v", name, err)
	}

	task, err := s.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection %s: %v", name, err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed to await collection load %s: %v", name, err)
	}

	return nil
}

func (s *MilvusStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	n := len(points)
	ids := make([]string, 0, n)
	vectors := make([][]float32, 0, n)
	chunkIDs := make([]string, 0, n)
	chunkIndexes := make([]int64, 0, n)
	contents := make([]string, 0, n)
	documentIDs := make([]string, 0, n)
	chunkingTaskIDs := make([]string, 0, n)
	embeddingTaskIDs := make([]string, 0, n)
	pageNumbers := make([]int64, 0, n)
	contentTypes := make([]string, 0, n)
	tags := make([]string, 0, n)
	createdAts := make([]string, 0, n)
	versions := make([]string, 0, n)

	dim := len(points[0].Vector)
	for _, p := range points {
		tagsJSON, err := json.Marshal(p.Payload.Tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %v", err)
		}

		ids = append(ids, p.ID)
		vectors = append(vectors, p.Vector)
		chunkIDs = append(chunkIDs, p.Payload.ChunkID)
		chunkIndexes = append(chunkIndexes, int64(p.Payload.ChunkIndex))
		contents = append(contents, p.Payload.Content)
		documentIDs = append(documentIDs, p.Payload.DocumentID)
		chunkingTaskIDs = append(chunkingTaskIDs, p.Payload.ChunkingTaskID)
		embeddingTaskIDs = append(embeddingTaskIDs, p.Payload.EmbeddingTaskID)
		pageNumbers = append(pageNumbers, int64(p.Payload.PageNumber))
		contentTypes = append(contentTypes, p.Payload.ContentType)
		tags = append(tags, string(tagsJSON))
		createdAts = append(createdAts, p.Payload.CreatedAt)
		versions = append(versions, p.Payload.Version)
	}

	upsertOption := milvusclient.NewColumnBasedInsertOption(collection).WithColumns(
		column.NewColumnVarChar("id", ids),
		column.NewColumnFloatVector("vector", dim, vectors),
		column.NewColumnVarChar("chunk_id", chunkIDs),
		column.NewColumnInt64("chunk_index", chunkIndexes),
		column.NewColumnVarChar("content", contents),
		column.NewColumnVarChar("document_id", documentIDs),
		column.NewColumnVarChar("chunking_task_id", chunkingTaskIDs),
		column.NewColumnVarChar("embedding_task_id", embeddingTaskIDs),
		column.NewColumnInt64("page_number", pageNumbers),
		column.NewColumnVarChar("content_type", contentTypes),
		column.NewColumnVarChar("tags", tags),
		column.NewColumnVarChar("created_at", createdAts),
		column.NewColumnVarChar("version", versions),
	)

	if _, err := s.client.Upsert(ctx, upsertOption); err != nil {
		return fmt.Errorf("failed to upsert vectors: %v", err)
	}
	return nil
}

func (s *MilvusStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	rs, err := s.client.Query(ctx,
		milvusclient.NewQueryOption(collection).
			WithFilter(fmt.Sprintf(`id == "%s"`, id)).
			WithOutputFields("id"))
	if err != nil {
		return false, fmt.Errorf("failed to query vector %s: %v", id, err)
	}
	return rs.ResultCount > 0, nil
}

func (s *MilvusStore) Search(ctx context.Context, collection string, vector []float32, limit int, filter *SearchFilter) ([]SearchResult, error) {
	searchOption := milvusclient.NewSearchOption(collection, limit, []entity.Vector{
		entity.FloatVector(vector),
	}).
		WithANNSField("vector").
		WithOutputFields(payloadFields...)

	if filter != nil && filter.DocumentID != "" {
		searchOption = searchOption.WithFilter(fmt.Sprintf(`document_id == "%s"`, filter.DocumentID))
	}

	resultSets, err := s.client.Search(ctx, searchOption)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %v", err)
	}

	var results []SearchResult
	for _, rs := range resultSets {
		for i := 0; i < rs.ResultCount; i++ {
			id, err := rs.IDs.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("failed to read result id: %v", err)
			}

			payload, err := payloadFromResultSet(rs, i)
			if err != nil {
				return nil, err
			}

			results = append(results, SearchResult{
				ID:      id,
				Score:   rs.Scores[i],
				Payload: payload,
			})
		}
	}

	return results, nil
}

func payloadFromResultSet(rs milvusclient.ResultSet, i int) (Payload, error) {
	var p Payload

	getString := func(field string) string {
		col := rs.GetColumn(field)
		if col == nil {
			return ""
		}
		v, err := col.GetAsString(i)
		if err != nil {
			return ""
		}
		return v
	}
	getInt := func(field string) int {
		col := rs.GetColumn(field)
		if col == nil {
			return 0
		}
		v, err := col.GetAsInt64(i)
		if err != nil {
			return 0
		}
		return int(v)
	}

	p.ChunkID = getString("chunk_id")
	p.ChunkIndex = getInt("chunk_index")
	p.Content = getString("content")
	p.DocumentID = getString("document_id")
	p.ChunkingTaskID = getString("chunking_task_id")
	p.EmbeddingTaskID = getString("embedding_task_id")
	p.PageNumber = getInt("page_number")
	p.ContentType = getString("content_type")
	p.CreatedAt = getString("created_at")
	p.Version = getString("version")

	if tagsJSON := getString("tags"); tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
			return p, fmt.Errorf("failed to unmarshal tags: %v", err)
		}
	}

	return p, nil
}
