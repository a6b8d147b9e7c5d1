package discussion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"syntagma/internal/commenttree"
	"syntagma/internal/model"
)

const (
	// MaxDepth 界面允许回复的最大嵌套深度
	MaxDepth = 4
	// MaxReplies 每条评论的直接回复上限，与服务端一致
	MaxReplies = 5
	// DefaultRefreshCooldown 手动刷新的冷却时间
	DefaultRefreshCooldown = 5 * time.Second
)

var (
	ErrNotReconciled   = errors.New("discussion: server state not reconciled, refresh recommended")
	ErrInvalidVote     = errors.New("discussion: invalid vote type")
	ErrUnknownComment  = errors.New("discussion: comment not in thread")
	ErrCannotReply     = errors.New("discussion: comment does not accept replies")
	ErrRefreshCooldown = errors.New("discussion: refresh is cooling down")
)

type ThreadOption func(*Thread)

func WithRefreshCooldown(d time.Duration) ThreadOption {
	return func(t *Thread) { t.cooldown = d }
}

// WithScrollRetry 深链滚动的重试次数与间隔
func WithScrollRetry(attempts int, frame time.Duration) ThreadOption {
	return func(t *Thread) {
		if attempts > 0 {
			t.scrollAttempts = attempts
		}
		if frame > 0 {
			t.scrollFrame = frame
		}
	}
}

func WithThreadClock(now func() time.Time) ThreadOption {
	return func(t *Thread) { t.now = now }
}

// Thread 一次页面浏览内的评论区状态，可并发使用，网络调用不持锁
type Thread struct {
	api   CommentAPI
	store VoteStore

	mu          sync.Mutex
	forest      []*commenttree.Node
	votes       Votes
	replyTo     string
	highlighted string
	lastRefresh time.Time

	cooldown       time.Duration
	scrollAttempts int
	scrollFrame    time.Duration
	now            func() time.Time
}

func NewThread(api CommentAPI, store VoteStore, opts ...ThreadOption) *Thread {
	t := &Thread{
		api:            api,
		store:          store,
		votes:          Votes{},
		cooldown:       DefaultRefreshCooldown,
		scrollAttempts: defaultScrollAttempts,
		scrollFrame:    defaultScrollFrame,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open 读取本地投票记录并拉取评论
func (t *Thread) Open(ctx context.Context) error {
	votes, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load votes: %w", err)
	}
	if votes == nil {
		votes = Votes{}
	}
	t.mu.Lock()
	t.votes = votes
	t.mu.Unlock()

	return t.reload(ctx)
}

// Close 保存本地投票记录
func (t *Thread) Close(ctx context.Context) error {
	t.mu.Lock()
	votes := t.votes.clone()
	t.mu.Unlock()

	if err := t.store.Save(ctx, votes); err != nil {
		return fmt.Errorf("save votes: %w", err)
	}
	return nil
}

// Forest 当前评论树（服务端顺序：置顶在前，其余按时间倒序）
func (t *Thread) Forest() []*commenttree.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.forest
}

// Sorted 按指定字段排序后的评论树
func (t *Thread) Sorted(key commenttree.SortKey) []*commenttree.Node {
	return commenttree.Sort(t.Forest(), key)
}

// VoteOf 本地用户对某条评论的投票，未投票返回空串
func (t *Thread) VoteOf(id string) VoteType {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.votes[id]
}

// Vote 点击赞成或反对。再次点击同一方向撤销；切换方向时先撤销旧票再投新票
// 本地计数先行更新，两次请求都会发出；全部成功后以服务端记录为准
func (t *Thread) Vote(ctx context.Context, id string, vote VoteType) error {
	if !vote.valid() {
		return ErrInvalidVote
	}

	t.mu.Lock()
	if commenttree.Find(t.forest, id) == nil {
		t.mu.Unlock()
		return ErrUnknownComment
	}

	var (
		actions  []string
		up, down int64
	)
	adjust := func(v VoteType, delta int64) {
		if v == VoteUp {
			up += delta
		} else {
			down += delta
		}
	}

	current := t.votes[id]
	if current == vote {
		adjust(vote, -1)
		actions = append(actions, "remove_"+string(vote))
		delete(t.votes, id)
	} else {
		adjust(vote, 1)
		if current != "" {
			adjust(current, -1)
			actions = append(actions, "remove_"+string(current))
		}
		actions = append(actions, string(vote))
		t.votes[id] = vote
	}

	t.forest = commenttree.UpdateAtID(t.forest, id, func(n commenttree.Node) commenttree.Node {
		n.Upvotes = clampAdd(n.Upvotes, up)
		n.Downvotes = clampAdd(n.Downvotes, down)
		n.Score = n.Upvotes - n.Downvotes
		return n
	})
	t.mu.Unlock()

	var (
		latest *model.Comment
		errs   []error
	)
	for _, action := range actions {
		c, err := t.api.Act(ctx, id, action)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", action, err))
			continue
		}
		latest = c
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrNotReconciled, errors.Join(errs...))
	}

	t.mu.Lock()
	t.forest = commenttree.UpdateAtID(t.forest, id, func(n commenttree.Node) commenttree.Node {
		n.Comment = *latest
		n.Score = n.Upvotes - n.Downvotes
		return n
	})
	t.mu.Unlock()
	return nil
}

// Submit 以当前回复目标发表评论，成功后并入本地树并清除回复目标
// 失败时本地状态不变；请求期间的刷新若已带回该评论则不再重复并入
func (t *Thread) Submit(ctx context.Context, username, body string) (*model.Comment, error) {
	t.mu.Lock()
	replyTo := t.replyTo
	t.mu.Unlock()

	var parentID *string
	if replyTo != "" {
		parentID = &replyTo
	}
	created, err := t.api.Post(ctx, username, body, parentID)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if commenttree.Find(t.forest, created.ID) == nil {
		flat := append(commenttree.Flatten(t.forest), *created)
		t.forest = commenttree.Build(flat)
	}
	if t.replyTo == replyTo {
		t.replyTo = ""
	}
	t.mu.Unlock()
	return created, nil
}

// Pin 置顶或取消置顶（需要管理会话），随后整体刷新
func (t *Thread) Pin(ctx context.Context, id string, makePinned bool) error {
	action := "unpin"
	if makePinned {
		action = "pin"
	}
	if _, err := t.api.Act(ctx, id, action); err != nil {
		return err
	}
	return t.reload(ctx)
}

// Delete 删除评论（需要管理会话），随后整体刷新
func (t *Thread) Delete(ctx context.Context, id string) error {
	if err := t.api.Delete(ctx, id); err != nil {
		return err
	}
	return t.reload(ctx)
}

// Refresh 手动刷新，冷却期内返回 ErrRefreshCooldown
func (t *Thread) Refresh(ctx context.Context) error {
	t.mu.Lock()
	cooling := !t.lastRefresh.IsZero() && t.now().Sub(t.lastRefresh) < t.cooldown
	t.mu.Unlock()
	if cooling {
		return ErrRefreshCooldown
	}
	return t.reload(ctx)
}

func (t *Thread) reload(ctx context.Context) error {
	comments, err := t.api.List(ctx)
	if err != nil {
		return err
	}
	forest := commenttree.Build(comments)

	t.mu.Lock()
	t.forest = forest
	t.lastRefresh = t.now()
	if t.replyTo != "" && commenttree.Find(forest, t.replyTo) == nil {
		t.replyTo = ""
	}
	t.mu.Unlock()
	return nil
}

// SetReplyTarget 选择回复对象，空串表示取消回复
func (t *Thread) SetReplyTarget(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id == "" {
		t.replyTo = ""
		return nil
	}
	if !canReply(t.forest, id) {
		return ErrCannotReply
	}
	t.replyTo = id
	return nil
}

func (t *Thread) ReplyTarget() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.replyTo
}

// CanReply 深度未达上限且直接回复未满
func (t *Thread) CanReply(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return canReply(t.forest, id)
}

func canReply(forest []*commenttree.Node, id string) bool {
	n := commenttree.Find(forest, id)
	return n != nil && n.Depth < MaxDepth && len(n.Children) < MaxReplies
}

func clampAdd(v, delta int64) int64 {
	if v+delta < 0 {
		return 0
	}
	return v + delta
}
