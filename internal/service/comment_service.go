package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"syntagma/internal/api/dto"
	"syntagma/internal/cache"
	"syntagma/internal/model"
	"syntagma/internal/repository"
	"syntagma/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrValidation          = errors.New("Username and comment are required")
	ErrReplyLimitExceeded  = errors.New("Reply limit reached for this comment")
	ErrCommentNotFound     = errors.New("Comment not found")
	ErrParentNotFound      = errors.New("Parent comment not found")
	ErrConstraintViolation = errors.New("Comment could not be stored")
	ErrInvalidAction       = errors.New("Invalid action")
)

// DefaultReplyLimit 单条评论允许的直接回复数
const DefaultReplyLimit = 5

const listCacheKey = "comments:list"

// VoteAction 投票动作
type VoteAction string

const (
	ActionUpvote         VoteAction = "upvote"
	ActionDownvote       VoteAction = "downvote"
	ActionRemoveUpvote   VoteAction = "remove_upvote"
	ActionRemoveDownvote VoteAction = "remove_downvote"
)

// Deltas 返回动作对应的 (赞成, 反对) 增量
func (a VoteAction) Deltas() (up, down int, ok bool) {
	switch a {
	case ActionUpvote:
		return 1, 0, true
	case ActionDownvote:
		return 0, 1, true
	case ActionRemoveUpvote:
		return -1, 0, true
	case ActionRemoveDownvote:
		return 0, -1, true
	}
	return 0, 0, false
}

// CommentStore 评论持久化接口，由 repository.CommentRepository 实现
type CommentStore interface {
	Insert(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Comment, error)
	CountChildren(ctx context.Context, parentID string) (int64, error)
	UpdateVotes(ctx context.Context, id string, deltaUp, deltaDown int) (*model.Comment, error)
	SetPinned(ctx context.Context, id string, pinned bool) (*model.Comment, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListAll(ctx context.Context, order repository.ListOrder) ([]model.Comment, error)
	Search(ctx context.Context, keyword string, skip, limit int) ([]model.Comment, int64, error)
}

// EventPublisher 评论事件发布
type EventPublisher interface {
	PublishCommentEvent(ctx context.Context, event *model.CommentEvent) error
}

// CommentSearcher 全文检索，返回按相关度排序的评论 ID
type CommentSearcher interface {
	SearchComments(ctx context.Context, keyword string, skip, limit int) ([]string, int64, error)
}

type CommentOption func(*CommentService)

func WithCache(c cache.Cache, ttl time.Duration) CommentOption {
	return func(s *CommentService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithPublisher(p EventPublisher) CommentOption {
	return func(s *CommentService) { s.publisher = p }
}

func WithSearcher(searcher CommentSearcher) CommentOption {
	return func(s *CommentService) { s.searcher = searcher }
}

func WithReplyLimit(limit int) CommentOption {
	return func(s *CommentService) {
		if limit > 0 {
			s.replyLimit = limit
		}
	}
}

func WithClock(now func() time.Time) CommentOption {
	return func(s *CommentService) { s.now = now }
}

type CommentService struct {
	store      CommentStore
	cache      cache.Cache
	cacheTTL   time.Duration
	publisher  EventPublisher
	searcher   CommentSearcher
	replyLimit int
	now        func() time.Time
}

func NewCommentService(store CommentStore, opts ...CommentOption) *CommentService {
	s := &CommentService{
		store:      store,
		cacheTTL:   30 * time.Second,
		replyLimit: DefaultReplyLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List 返回全部评论，置顶在前，其余按时间倒序
func (s *CommentService) List(ctx context.Context) ([]model.Comment, error) {
	if s.cache != nil {
		var cached []model.Comment
		hit, err := s.cache.Get(ctx, listCacheKey, &cached)
		if err != nil {
			logger.Warn("Comment list cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	comments, err := s.store.ListAll(ctx, repository.OrderPinnedFirst)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, listCacheKey, comments, s.cacheTTL); err != nil {
			logger.Warn("Comment list cache write failed", zap.Error(err))
		}
	}
	return comments, nil
}

// Post 发表评论或回复
func (s *CommentService) Post(ctx context.Context, username, body string, parentID *string) (*model.Comment, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(body) == "" {
		return nil, ErrValidation
	}

	depth := 0
	if parentID != nil {
		count, err := s.store.CountChildren(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if count >= int64(s.replyLimit) {
			return nil, ErrReplyLimitExceeded
		}

		parent, err := s.store.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		depth = parent.Depth + 1
	}

	comment := &model.Comment{
		Username:  username,
		Body:      body,
		ParentID:  parentID,
		Depth:     depth,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrConstraintViolation) {
			logger.Error("Comment insert violated a constraint", zap.String("id", comment.ID), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrConstraintViolation, err)
		}
		return nil, err
	}

	saved, err := s.store.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, model.CommentCreated, saved)
	return saved, nil
}

// ApplyVote 对评论执行一次投票动作
func (s *CommentService) ApplyVote(ctx context.Context, id string, action VoteAction) (*model.Comment, error) {
	up, down, ok := action.Deltas()
	if !ok {
		return nil, ErrInvalidAction
	}

	comment, err := s.store.UpdateVotes(ctx, id, up, down)
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.afterWrite(ctx, model.CommentVoted, comment)
	return comment, nil
}

// Pin 置顶评论，同时取消其他评论的置顶
func (s *CommentService) Pin(ctx context.Context, id string) (*model.Comment, error) {
	comment, err := s.store.SetPinned(ctx, id, true)
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.afterWrite(ctx, model.CommentPinned, comment)
	return comment, nil
}

// Unpin 取消置顶，重复调用无副作用
func (s *CommentService) Unpin(ctx context.Context, id string) (*model.Comment, error) {
	comment, err := s.store.SetPinned(ctx, id, false)
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.afterWrite(ctx, model.CommentUnpinned, comment)
	return comment, nil
}

// Delete 删除单条评论，其回复保留并在树中作为孤立节点展示
func (s *CommentService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCommentNotFound
	}

	s.afterWrite(ctx, model.CommentDeleted, &model.Comment{ID: id})
	return nil
}

// Search 管理后台评论搜索（ES 优先，失败则降级到 DB）
func (s *CommentService) Search(ctx context.Context, req *dto.CommentSearchRequest) (*dto.CommentSearchData, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 10
	}
	skip := (req.Page - 1) * req.PageSize

	if s.searcher != nil && strings.TrimSpace(req.Q) != "" {
		comments, total, err := s.searchFromIndex(ctx, req.Q, skip, req.PageSize)
		if err == nil {
			return buildSearchData(comments, total, req.Page, req.PageSize), nil
		}
		logger.Warn("ES search failed, fallback to DB", zap.Error(err))
	}

	comments, total, err := s.store.Search(ctx, req.Q, skip, req.PageSize)
	if err != nil {
		return nil, err
	}
	return buildSearchData(comments, total, req.Page, req.PageSize), nil
}

func (s *CommentService) searchFromIndex(ctx context.Context, keyword string, skip, limit int) ([]model.Comment, int64, error) {
	ids, total, err := s.searcher.SearchComments(ctx, keyword, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return nil, total, nil
	}

	found, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	byID := make(map[string]*model.Comment, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	ordered := make([]model.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, *c)
		}
	}
	return ordered, total, nil
}

func buildSearchData(comments []model.Comment, total int64, page, pageSize int) *dto.CommentSearchData {
	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	return &dto.CommentSearchData{
		Comments:   dto.NewCommentInfos(comments),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// afterWrite 失效列表缓存并发布事件，两者失败都只记录日志
func (s *CommentService) afterWrite(ctx context.Context, typ model.CommentEventType, comment *model.Comment) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, listCacheKey); err != nil {
			logger.Warn("Comment list cache invalidation failed", zap.Error(err))
		}
	}

	if s.publisher == nil {
		return
	}
	event := &model.CommentEvent{Type: typ, Comment: *comment, OccurredAt: s.now().UTC()}
	if err := s.publisher.PublishCommentEvent(ctx, event); err != nil {
		logger.Error("Failed to publish comment event",
			zap.String("type", string(typ)),
			zap.String("comment_id", comment.ID),
			zap.Error(err),
		)
	}
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrCommentNotFound
	case errors.Is(err, repository.ErrConstraintViolation):
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return err
}
