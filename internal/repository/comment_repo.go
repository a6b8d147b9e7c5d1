package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"syntagma/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrConstraintViolation 主键或唯一索引冲突
var ErrConstraintViolation = errors.New("constraint violation")

// pinRetries 并发置顶冲突时的重试次数
const pinRetries = 3

// ListOrder 评论列表排序方式
type ListOrder int

const (
	// OrderRecent 按创建时间倒序
	OrderRecent ListOrder = iota
	// OrderPinnedFirst 置顶评论在前，其余按创建时间倒序
	OrderPinnedFirst
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Insert 新增评论，ID 冲突时返回 ErrConstraintViolation
func (r *CommentRepository) Insert(ctx context.Context, comment *model.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("insert comment %s: %w", comment.ID, ErrConstraintViolation)
		}
		return err
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// CountChildren 统计直接回复数
func (r *CommentRepository) CountChildren(ctx context.Context, parentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).Where("parent_id = ?", parentID).Count(&count).Error
	return count, err
}

// UpdateVotes 原子地调整票数，结果不会小于 0
func (r *CommentRepository) UpdateVotes(ctx context.Context, id string, deltaUp, deltaDown int) (*model.Comment, error) {
	updates := map[string]interface{}{}
	if deltaUp != 0 {
		updates["upvotes"] = clampedAdd("upvotes", deltaUp)
	}
	if deltaDown != 0 {
		updates["downvotes"] = clampedAdd("downvotes", deltaDown)
	}

	db := r.db.WithContext(ctx)
	if len(updates) > 0 {
		result := db.Model(&model.Comment{}).Where("id = ?", id).UpdateColumns(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func clampedAdd(column string, delta int) clause.Expr {
	return gorm.Expr(fmt.Sprintf("CASE WHEN %s + ? < 0 THEN 0 ELSE %s + ? END", column, column), delta, delta)
}

// SetPinned 设置置顶状态
// 置顶时在同一事务内先取消其他置顶再置顶目标，唯一索引冲突（并发置顶）时重试
func (r *CommentRepository) SetPinned(ctx context.Context, id string, pinned bool) (*model.Comment, error) {
	if !pinned {
		result := r.db.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", id).UpdateColumn("pinned", false)
		if result.Error != nil {
			return nil, result.Error
		}
		// 未变化的行在部分数据库中 RowsAffected 为 0，由 GetByID 判断是否存在
		return r.GetByID(ctx, id)
	}

	var err error
	for attempt := 0; attempt < pinRetries; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&model.Comment{}).
				Where("pinned = ? AND id <> ?", true, id).
				UpdateColumn("pinned", false).Error; err != nil {
				return err
			}
			result := tx.Model(&model.Comment{}).Where("id = ?", id).UpdateColumn("pinned", true)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&model.Comment{}).Where("id = ?", id).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return gorm.ErrRecordNotFound
				}
			}
			return nil
		})
		if err == nil || !isDuplicate(err) {
			break
		}
	}
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("pin comment %s: %w", id, ErrConstraintViolation)
		}
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Delete 删除单条评论，不级联删除回复
func (r *CommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Comment{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListAll 获取全部评论
func (r *CommentRepository) ListAll(ctx context.Context, order ListOrder) ([]model.Comment, error) {
	query := r.db.WithContext(ctx).Model(&model.Comment{})
	switch order {
	case OrderPinnedFirst:
		query = query.Order("pinned DESC").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var comments []model.Comment
	if err := query.Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Search 按用户名或内容模糊搜索（ES 不可用时的降级路径）
func (r *CommentRepository) Search(ctx context.Context, keyword string, skip, limit int) ([]model.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Comment{})
	if kw := strings.TrimSpace(keyword); kw != "" {
		pattern := "%" + strings.ToLower(kw) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(comment) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []model.Comment
	err := query.Order("created_at DESC").Offset(skip).Limit(limit).Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// GetByIDs 按 ID 批量查询
func (r *CommentRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Comment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var comments []model.Comment
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
