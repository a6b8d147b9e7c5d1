package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"syntagma/internal/model"
	"syntagma/pkg/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// commentsIndexMapping comments 索引 mapping，正文额外建立 greek 分词子字段
const commentsIndexMapping = `{
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 0
	},
	"mappings": {
		"properties": {
			"id": {"type": "keyword"},
			"username": {
				"type": "text",
				"fields": {"keyword": {"type": "keyword", "ignore_above": 100}}
			},
			"comment": {
				"type": "text",
				"analyzer": "standard",
				"fields": {"greek": {"type": "text", "analyzer": "greek"}}
			},
			"parent_id": {"type": "keyword"},
			"depth": {"type": "integer"},
			"upvotes": {"type": "long"},
			"downvotes": {"type": "long"},
			"score": {"type": "long"},
			"created_at": {"type": "date", "format": "strict_date_optional_time||epoch_millis"}
		}
	}
}`

// CommentDoc ES 评论文档
// 不含置顶状态，置顶以数据库为准
type CommentDoc struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Comment   string  `json:"comment"`
	ParentID  *string `json:"parent_id"`
	Depth     int     `json:"depth"`
	Upvotes   int64   `json:"upvotes"`
	Downvotes int64   `json:"downvotes"`
	Score     int64   `json:"score"`
	CreatedAt string  `json:"created_at"`
}

func toCommentDoc(c *model.Comment) *CommentDoc {
	return &CommentDoc{
		ID:        c.ID,
		Username:  c.Username,
		Comment:   c.Body,
		ParentID:  c.ParentID,
		Depth:     c.Depth,
		Upvotes:   c.Upvotes,
		Downvotes: c.Downvotes,
		Score:     c.Score(),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// CommentIndex 评论索引读写
type CommentIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewCommentIndex(es *elasticsearch.Client, index string) *CommentIndex {
	if index == "" {
		index = "comments"
	}
	return &CommentIndex{es: es, index: index}
}

// EnsureIndex 确保索引存在，不存在则创建
func (ci *CommentIndex) EnsureIndex(ctx context.Context) error {
	resp, err := ci.es.Indices.Exists([]string{ci.index}, ci.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	resp, err = ci.es.Indices.Create(
		ci.index,
		ci.es.Indices.Create.WithContext(ctx),
		ci.es.Indices.Create.WithBody(bytes.NewReader([]byte(commentsIndexMapping))),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("create index %s: %s", ci.index, resp.String())
	}

	logger.Info("Elasticsearch comments index created", zap.String("index", ci.index))
	return nil
}

// Upsert 写入或覆盖一条评论
func (ci *CommentIndex) Upsert(ctx context.Context, c *model.Comment) error {
	body, err := json.Marshal(toCommentDoc(c))
	if err != nil {
		return err
	}

	resp, err := ci.es.Index(
		ci.index,
		bytes.NewReader(body),
		ci.es.Index.WithContext(ctx),
		ci.es.Index.WithDocumentID(c.ID),
	)
	if err != nil {
		return fmt.Errorf("index comment %s: %w", c.ID, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("index comment %s: %s", c.ID, resp.String())
	}
	return nil
}

// Delete 删除评论文档，文档不存在视为成功
func (ci *CommentIndex) Delete(ctx context.Context, id string) error {
	resp, err := ci.es.Delete(ci.index, id, ci.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.IsError() && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete comment %s: %s", id, resp.String())
	}
	return nil
}

// BulkUpsert 批量写入，用于全量重建索引
func (ci *CommentIndex) BulkUpsert(ctx context.Context, comments []model.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range comments {
		meta := map[string]map[string]string{"index": {"_index": ci.index, "_id": comments[i].ID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(toCommentDoc(&comments[i])); err != nil {
			return err
		}
	}

	resp, err := ci.es.Bulk(&buf, ci.es.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk index comments: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("bulk index comments: %s", resp.String())
	}

	var result struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if result.Errors {
		return fmt.Errorf("bulk index comments: some documents failed")
	}
	return nil
}

// SearchComments 按用户名与正文全文检索，返回命中的评论 ID
func (ci *CommentIndex) SearchComments(ctx context.Context, keyword string, skip, limit int) ([]string, int64, error) {
	query := map[string]interface{}{
		"from":    skip,
		"size":    limit,
		"_source": []string{"id"},
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keyword,
				"fields": []string{"comment^2", "comment.greek^2", "username"},
			},
		},
		"sort": []interface{}{"_score", map[string]string{"created_at": "desc"}},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, 0, err
	}

	resp, err := ci.es.Search(
		ci.es.Search.WithContext(ctx),
		ci.es.Search.WithIndex(ci.index),
		ci.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, 0, fmt.Errorf("ES search error: %s", resp.String())
	}

	return decodeHits(resp.Body)
}

func decodeHits(r io.Reader) ([]string, int64, error) {
	var esResp struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID string `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&esResp); err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, esResp.Hits.Total.Value, nil
}
