package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment 讨论区评论模型
// 同一时刻最多只有一条 pinned = true，由部分唯一索引 idx_comments_single_pinned 保证
type Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey;comment:评论ID" json:"id"`
	Username  string    `gorm:"type:varchar(100);not null;comment:显示名" json:"username"`
	Body      string    `gorm:"column:comment;type:text;not null;comment:评论内容(markdown)" json:"comment"`
	Upvotes   int64     `gorm:"not null;default:0;comment:赞成票" json:"upvotes"`
	Downvotes int64     `gorm:"not null;default:0;comment:反对票" json:"downvotes"`
	ParentID  *string   `gorm:"type:varchar(36);index:idx_comments_parent_id;comment:父评论ID" json:"parent_id"`
	Depth     int       `gorm:"not null;default:0;comment:嵌套深度" json:"depth"`
	Pinned    bool      `gorm:"not null;default:false;uniqueIndex:idx_comments_single_pinned,where:pinned = true;comment:是否置顶" json:"pinned"`
	CreatedAt time.Time `gorm:"index:idx_comments_created_at;comment:评论时间" json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

// BeforeCreate 生成 UUID
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Score 净得票
func (c *Comment) Score() int64 {
	return c.Upvotes - c.Downvotes
}
