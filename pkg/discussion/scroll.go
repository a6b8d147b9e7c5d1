package discussion

import (
	"context"
	"errors"
	"strings"
	"time"

	"syntagma/internal/commenttree"
)

const (
	defaultScrollAttempts = 120
	defaultScrollFrame    = 16 * time.Millisecond
)

var ErrScrollAbandoned = errors.New("discussion: deep-link target never became visible")

// Target 渲染层中评论对应的元素
type Target interface {
	// Ready 已挂载且高度非零
	Ready() bool
	ScrollIntoView()
}

// Locator 由渲染层实现，按评论 ID 查找元素
type Locator interface {
	Lookup(id string) (Target, bool)
}

// Highlighted 深链指向的评论 ID
func (t *Thread) Highlighted() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.highlighted
}

// ScrollToFragment 高亮并滚动到 #fragment 对应的评论
// 评论不在树中时立即放弃；否则每帧重试直到元素就绪，超过次数后放弃并清除高亮
func (t *Thread) ScrollToFragment(ctx context.Context, fragment string, loc Locator) error {
	id := strings.TrimPrefix(fragment, "#")
	if id == "" {
		return nil
	}

	t.mu.Lock()
	if commenttree.Find(t.forest, id) == nil {
		t.highlighted = ""
		t.mu.Unlock()
		return ErrScrollAbandoned
	}
	t.highlighted = id
	attempts, frame := t.scrollAttempts, t.scrollFrame
	t.mu.Unlock()

	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		if target, ok := loc.Lookup(id); ok && target.Ready() {
			target.ScrollIntoView()
			return nil
		}
		select {
		case <-ctx.Done():
			t.clearHighlight(id)
			return ctx.Err()
		case <-ticker.C:
		}
	}

	t.clearHighlight(id)
	return ErrScrollAbandoned
}

func (t *Thread) clearHighlight(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.highlighted == id {
		t.highlighted = ""
	}
}
