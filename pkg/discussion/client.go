// Package discussion 评论区客户端：HTTP 调用、本地投票记录与乐观更新
package discussion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"syntagma/internal/model"
)

// DefaultTimeout 单次请求超时
const DefaultTimeout = 10 * time.Second

const (
	sessionCookie   = "authenticated"
	twoFactorHeader = "x-2fa-required"
)

// APIError 服务端返回的 {error} 响应
type APIError struct {
	Status            int
	Message           string
	TwoFactorRequired bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discussion api: %d %s", e.Status, e.Message)
}

// CommentAPI Thread 依赖的评论接口
type CommentAPI interface {
	List(ctx context.Context) ([]model.Comment, error)
	Post(ctx context.Context, username, body string, parentID *string) (*model.Comment, error)
	Act(ctx context.Context, id, action string) (*model.Comment, error)
	Delete(ctx context.Context, id string) error
}

type ClientOption func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// WithSession 携带二次验证后拿到的管理会话
func WithSession(token string) ClientOption {
	return func(c *Client) { c.session = token }
}

// Client 评论 API 客户端
type Client struct {
	base    string
	hc      *http.Client
	session string
}

// NewClient base 为站点根地址，例如 http://127.0.0.1:8000
func NewClient(base string, opts ...ClientOption) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type commentEnvelope struct {
	Comment model.Comment `json:"comment"`
}

func (c *Client) List(ctx context.Context) ([]model.Comment, error) {
	var out struct {
		Comments []model.Comment `json:"comments"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/comments", nil, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

func (c *Client) Post(ctx context.Context, username, body string, parentID *string) (*model.Comment, error) {
	in := struct {
		Username string  `json:"username"`
		Comment  string  `json:"comment"`
		ParentID *string `json:"parent_id"`
	}{username, body, parentID}

	var out commentEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/comments", in, &out); err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

// Act 投票或置顶，action 取值与服务端一致
func (c *Client) Act(ctx context.Context, id, action string) (*model.Comment, error) {
	in := struct {
		Action string `json:"action"`
	}{action}

	var out commentEnvelope
	if err := c.do(ctx, http.MethodPut, "/api/comments?id="+url.QueryEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/comments?id="+url.QueryEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.session})
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error == "" {
			payload.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{
			Status:            resp.StatusCode,
			Message:           payload.Error,
			TwoFactorRequired: resp.Header.Get(twoFactorHeader) == "true",
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
