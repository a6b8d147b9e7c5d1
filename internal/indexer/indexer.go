// Package indexer 消费评论事件并同步到搜索索引
package indexer

import (
	"context"
	"fmt"

	"syntagma/internal/model"
	"syntagma/internal/repository"
	"syntagma/pkg/logger"

	"go.uber.org/zap"
)

// Index 评论搜索索引
type Index interface {
	Upsert(ctx context.Context, c *model.Comment) error
	Delete(ctx context.Context, id string) error
	BulkUpsert(ctx context.Context, comments []model.Comment) error
}

// Source 全量重建时的数据来源
type Source interface {
	ListAll(ctx context.Context, order repository.ListOrder) ([]model.Comment, error)
}

// reindexBatch 全量重建时每批写入的文档数
const reindexBatch = 500

type Indexer struct {
	index Index
}

func New(index Index) *Indexer {
	return &Indexer{index: index}
}

// Handle 处理单条评论事件
func (ix *Indexer) Handle(ctx context.Context, event *model.CommentEvent) error {
	switch event.Type {
	case model.CommentCreated, model.CommentVoted, model.CommentPinned, model.CommentUnpinned:
		if err := ix.index.Upsert(ctx, &event.Comment); err != nil {
			return err
		}
	case model.CommentDeleted:
		if err := ix.index.Delete(ctx, event.Comment.ID); err != nil {
			return err
		}
	default:
		logger.Warn("Unknown comment event type", zap.String("type", string(event.Type)))
		return nil
	}

	logger.Debug("Comment index synced",
		zap.String("type", string(event.Type)),
		zap.String("comment_id", event.Comment.ID),
	)
	return nil
}

// Reindex 从数据库全量重建索引，返回写入的文档数
func (ix *Indexer) Reindex(ctx context.Context, src Source) (int, error) {
	comments, err := src.ListAll(ctx, repository.OrderRecent)
	if err != nil {
		return 0, fmt.Errorf("load comments: %w", err)
	}

	for start := 0; start < len(comments); start += reindexBatch {
		end := start + reindexBatch
		if end > len(comments) {
			end = len(comments)
		}
		if err := ix.index.BulkUpsert(ctx, comments[start:end]); err != nil {
			return start, err
		}
	}

	logger.Info("Comment index rebuilt", zap.Int("count", len(comments)))
	return len(comments), nil
}
