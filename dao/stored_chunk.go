package dao

import (
	"context"
	"document-rag-backend/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const chunkInsertBatchSize = 100

// StoredChunkDAO chunk持久化，支持写入调用方指定的分表
type StoredChunkDAO struct {
	db *gorm.DB
}

func NewStoredChunkDAO(db *gorm.DB) *StoredChunkDAO {
	return &StoredChunkDAO{db: db}
}

// CreateMany 批量写入chunk，table 为空时写入默认表
func (d *StoredChunkDAO) CreateMany(ctx context.Context, chunks []*model.StoredChunk, table string) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = uuid.NewString()
		}
	}

	tx := d.db.WithContext(ctx)
	if table != "" {
		tx = tx.Table(table)
	}
	return tx.CreateInBatches(chunks, chunkInsertBatchSize).Error
}

func (d *StoredChunkDAO) CountByTaskID(ctx context.Context, taskID string) (int, error) {
	var count int64
	if err := d.db.WithContext(ctx).
		Model(&model.StoredChunk{}).
		Where("task_id = ?", taskID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// FindByTaskIDPaginated 按 chunk_index 升序分页读取，为嵌入批处理提供固定的遍历顺序
func (d *StoredChunkDAO) FindByTaskIDPaginated(ctx context.Context, taskID string, offset, limit int) ([]*model.StoredChunk, error) {
	var chunks []*model.StoredChunk
	if err := d.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("chunk_index ASC").
		Offset(offset).
		Limit(limit).
		Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}
