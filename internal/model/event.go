package model

import "time"

// CommentEventType 评论变更事件类型
type CommentEventType string

const (
	CommentCreated  CommentEventType = "created"
	CommentVoted    CommentEventType = "voted"
	CommentPinned   CommentEventType = "pinned"
	CommentUnpinned CommentEventType = "unpinned"
	CommentDeleted  CommentEventType = "deleted"
)

// CommentEvent 写入 comment_events topic 的消息体
// deleted 事件只保证 Comment.ID 有效
type CommentEvent struct {
	Type       CommentEventType `json:"type"`
	Comment    Comment          `json:"comment"`
	OccurredAt time.Time        `json:"occurred_at"`
}
