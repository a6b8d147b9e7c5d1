package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"syntagma/internal/cache"
	"syntagma/internal/markdown"
	"syntagma/internal/model"
	"syntagma/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrArticleNotFound   = errors.New("Article not found")
	ErrArticleIDRequired = errors.New("articleId is required")
	ErrInvalidContent    = errors.New("Every entry needs an id")
)

const (
	articlesCacheKey = "articles:list"
	faqsCacheKey     = "faqs:list"
)

// ArticleStore 条文持久化接口
type ArticleStore interface {
	ListAll(ctx context.Context) ([]model.Article, error)
	GetByID(ctx context.Context, id string) (*model.Article, error)
	ReplaceAll(ctx context.Context, articles []model.Article) error
}

// FAQStore 常见问题持久化接口
type FAQStore interface {
	ListAll(ctx context.Context) ([]model.FAQ, error)
	ReplaceAll(ctx context.Context, faqs []model.FAQ) error
}

// Snapshotter 保存条文集合的历史快照
type Snapshotter interface {
	SaveSnapshot(ctx context.Context, name string, data []byte) error
}

type ContentService struct {
	articles ArticleStore
	faqs     FAQStore
	cache    cache.Cache
	cacheTTL time.Duration
	snapshot Snapshotter
	now      func() time.Time
}

func NewContentService(articles ArticleStore, faqs FAQStore, c cache.Cache, ttl time.Duration, snapshot Snapshotter) *ContentService {
	return &ContentService{
		articles: articles,
		faqs:     faqs,
		cache:    c,
		cacheTTL: ttl,
		snapshot: snapshot,
		now:      time.Now,
	}
}

// ListArticles 按编号返回全部条文
func (s *ContentService) ListArticles(ctx context.Context) ([]model.Article, error) {
	var articles []model.Article
	if s.readCache(ctx, articlesCacheKey, &articles) {
		return articles, nil
	}

	articles, err := s.articles.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, articlesCacheKey, articles)
	return articles, nil
}

// SaveArticles 整体替换条文，内容 HTML 会被清洗，并归档一份快照
func (s *ContentService) SaveArticles(ctx context.Context, articles []model.Article) error {
	for i := range articles {
		if strings.TrimSpace(articles[i].ID) == "" {
			return ErrInvalidContent
		}
		articles[i].Content = markdown.Sanitize(articles[i].Content)
	}

	if err := s.articles.ReplaceAll(ctx, articles); err != nil {
		return err
	}
	s.invalidate(ctx, articlesCacheKey)

	if s.snapshot != nil {
		data, err := json.MarshalIndent(articles, "", "  ")
		if err != nil {
			return fmt.Errorf("encode articles snapshot: %w", err)
		}
		name := fmt.Sprintf("articles/%s.json", s.now().UTC().Format("20060102T150405Z"))
		if err := s.snapshot.SaveSnapshot(ctx, name, data); err != nil {
			logger.Error("Failed to archive articles snapshot", zap.String("object", name), zap.Error(err))
		}
	}
	return nil
}

// ResolveArticleName 根据 ID 查询条文标题
func (s *ContentService) ResolveArticleName(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", ErrArticleIDRequired
	}
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrArticleNotFound
		}
		return "", err
	}
	return article.Name, nil
}

// ListFAQs 按排序字段返回常见问题
func (s *ContentService) ListFAQs(ctx context.Context) ([]model.FAQ, error) {
	var faqs []model.FAQ
	if s.readCache(ctx, faqsCacheKey, &faqs) {
		return faqs, nil
	}

	faqs, err := s.faqs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, faqsCacheKey, faqs)
	return faqs, nil
}

// SaveFAQs 整体替换常见问题
func (s *ContentService) SaveFAQs(ctx context.Context, faqs []model.FAQ) error {
	for i := range faqs {
		if strings.TrimSpace(faqs[i].ID) == "" {
			return ErrInvalidContent
		}
		faqs[i].Answer = markdown.Sanitize(faqs[i].Answer)
	}

	if err := s.faqs.ReplaceAll(ctx, faqs); err != nil {
		return err
	}
	s.invalidate(ctx, faqsCacheKey)
	return nil
}

func (s *ContentService) readCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.Warn("Content cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *ContentService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		logger.Warn("Content cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ContentService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.Warn("Content cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
