package discussion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// VoteType 本地记录的投票方向，取值与服务端 action 一致
type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

func (v VoteType) valid() bool {
	return v == VoteUp || v == VoteDown
}

// Votes 评论 ID -> 本地用户的投票
type Votes map[string]VoteType

func (v Votes) clone() Votes {
	out := make(Votes, len(v))
	for id, t := range v {
		out[id] = t
	}
	return out
}

// VoteStore 本地投票记录的持久化
type VoteStore interface {
	Load(ctx context.Context) (Votes, error)
	Save(ctx context.Context, votes Votes) error
}

// MemoryVoteStore 进程内投票记录
type MemoryVoteStore struct {
	mu    sync.Mutex
	votes Votes
}

func NewMemoryVoteStore() *MemoryVoteStore {
	return &MemoryVoteStore{votes: Votes{}}
}

func (s *MemoryVoteStore) Load(context.Context) (Votes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.votes.clone(), nil
}

func (s *MemoryVoteStore) Save(_ context.Context, votes Votes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes = votes.clone()
	return nil
}

// FileVoteStore 以 JSON 文件保存投票记录，文件不存在视为空
type FileVoteStore struct {
	path string
}

func NewFileVoteStore(path string) *FileVoteStore {
	return &FileVoteStore{path: path}
}

func (s *FileVoteStore) Load(context.Context) (Votes, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Votes{}, nil
		}
		return nil, err
	}

	// 兼容 {"id": null} 形式的已撤销记录
	raw := map[string]*VoteType{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode votes %s: %w", s.path, err)
	}
	votes := make(Votes, len(raw))
	for id, t := range raw {
		if t != nil && t.valid() {
			votes[id] = *t
		}
	}
	return votes, nil
}

func (s *FileVoteStore) Save(_ context.Context, votes Votes) error {
	data, err := json.Marshal(votes)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".votes-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
