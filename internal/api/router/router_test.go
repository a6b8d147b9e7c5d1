package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"syntagma/internal/api/dto"
	"syntagma/internal/api/handler"
	"syntagma/internal/api/middleware"
	"syntagma/internal/api/response"
	"syntagma/internal/cache"
	"syntagma/internal/config"
	"syntagma/internal/infra/database"
	"syntagma/internal/model"
	"syntagma/internal/repository"
	"syntagma/internal/service"
	"syntagma/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret  = "router-test-secret"
	testTOTPSecret = "JBSWY3DPEHPK3PXP"
)

type testServer struct {
	engine *gin.Engine
	admin  *http.Cookie
}

func newTestServer(t *testing.T, postLimit int64) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	local, err := cache.NewLocalCache(64)
	require.NoError(t, err)
	limiter, err := cache.NewLocalLimiter(64)
	require.NoError(t, err)

	commentService := service.NewCommentService(repository.NewCommentRepository(db), service.WithCache(local, time.Minute))
	contentService := service.NewContentService(repository.NewArticleRepository(db), repository.NewFAQRepository(db), local, time.Minute, nil)
	authService := service.NewAuthService(config.AuthConfig{
		TOTPSecret:     testTOTPSecret,
		JWTSecret:      testJWTSecret,
		SessionMinutes: 60,
	}, "syntagma")

	r := gin.New()
	Setup(r,
		handler.NewCommentHandler(commentService),
		handler.NewContentHandler(contentService),
		handler.NewAuthHandler(authService),
		authService,
		PostLimit{Limiter: limiter, Limit: postLimit, Window: time.Minute},
	)

	token, err := utils.GenerateAdminToken(testJWTSecret, "syntagma", time.Now(), time.Hour)
	require.NoError(t, err)

	return &testServer{
		engine: r,
		admin:  &http.Cookie{Name: middleware.AdminCookie, Value: token},
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) post(t *testing.T, username, text string, parentID *string) dto.CommentInfo {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/comments", dto.CommentCreateRequest{Username: username, Comment: text, ParentID: parentID}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Comment
}

func (s *testServer) list(t *testing.T) []dto.CommentInfo {
	t.Helper()
	w := s.do(t, http.MethodGet, "/api/comments", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.CommentListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Comments
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestComments_PostRootAndReply(t *testing.T) {
	s := newTestServer(t, 0)

	root := s.post(t, "anna", "**Article 1** is too vague", nil)
	assert.Equal(t, 0, root.Depth)
	assert.Nil(t, root.ParentID)
	assert.Contains(t, root.CommentHTML, "<strong>Article 1</strong>")

	reply := s.post(t, "nikos", "agreed", &root.ID)
	assert.Equal(t, 1, reply.Depth)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)

	assert.Len(t, s.list(t), 2)
}

func TestComments_PostErrors(t *testing.T) {
	s := newTestServer(t, 0)

	w := s.do(t, http.MethodPost, "/api/comments", dto.CommentCreateRequest{Username: " ", Comment: "text"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	missing := "does-not-exist"
	w = s.do(t, http.MethodPost, "/api/comments", dto.CommentCreateRequest{Username: "anna", Comment: "text", ParentID: &missing}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, decodeError(t, w))
}

func TestComments_EmptyParentIDIsRoot(t *testing.T) {
	s := newTestServer(t, 0)
	empty := ""

	root := s.post(t, "anna", "top level", &empty)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, 0, root.Depth)
}

func TestComments_ReplyLimit(t *testing.T) {
	s := newTestServer(t, 0)
	root := s.post(t, "anna", "root", nil)
	for i := 0; i < service.DefaultReplyLimit; i++ {
		s.post(t, "nikos", "reply", &root.ID)
	}

	w := s.do(t, http.MethodPost, "/api/comments", dto.CommentCreateRequest{Username: "eleni", Comment: "one too many", ParentID: &root.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComments_Vote(t *testing.T) {
	s := newTestServer(t, 0)
	c := s.post(t, "anna", "vote on me", nil)

	w := s.do(t, http.MethodPut, "/api/comments?id="+c.ID, dto.CommentActionRequest{Action: "upvote"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPut, "/api/comments?id="+c.ID, dto.CommentActionRequest{Action: "downvote"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Comment.Upvotes)
	assert.Equal(t, int64(1), resp.Comment.Downvotes)

	w = s.do(t, http.MethodPut, "/api/comments?id="+c.ID, dto.CommentActionRequest{Action: "bogus"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/comments?id=missing", dto.CommentActionRequest{Action: "upvote"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/api/comments", dto.CommentActionRequest{Action: "upvote"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComments_PinRequiresAdmin(t *testing.T) {
	s := newTestServer(t, 0)
	c := s.post(t, "anna", "pin me", nil)

	w := s.do(t, http.MethodPut, "/api/comments?id="+c.ID, dto.CommentActionRequest{Action: "pin"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "true", w.Header().Get(middleware.TwoFactorHeader))

	forged := &http.Cookie{Name: middleware.AdminCookie, Value: "true"}
	w = s.do(t, http.MethodPut, "/api/comments?id="+c.ID, dto.CommentActionRequest{Action: "pin"}, forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestComments_PinMovesToNewComment(t *testing.T) {
	s := newTestServer(t, 0)
	first := s.post(t, "anna", "first", nil)
	second := s.post(t, "nikos", "second", nil)

	w := s.do(t, http.MethodPut, "/api/comments?id="+first.ID, dto.CommentActionRequest{Action: "pin"}, s.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPut, "/api/comments?id="+second.ID, dto.CommentActionRequest{Action: "pin"}, s.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	comments := s.list(t)
	require.Len(t, comments, 2)
	assert.Equal(t, second.ID, comments[0].ID)
	assert.True(t, comments[0].Pinned)
	assert.False(t, comments[1].Pinned)

	w = s.do(t, http.MethodPut, "/api/comments?id="+second.ID, dto.CommentActionRequest{Action: "unpin"}, s.admin)
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range s.list(t) {
		assert.False(t, c.Pinned)
	}
}

func TestComments_DeleteKeepsReplies(t *testing.T) {
	s := newTestServer(t, 0)
	root := s.post(t, "anna", "root", nil)
	reply := s.post(t, "nikos", "reply", &root.ID)

	w := s.do(t, http.MethodDelete, "/api/comments?id="+root.ID, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "true", w.Header().Get(middleware.TwoFactorHeader))

	w = s.do(t, http.MethodDelete, "/api/comments?id="+root.ID, nil, s.admin)
	require.Equal(t, http.StatusOK, w.Code)

	comments := s.list(t)
	require.Len(t, comments, 1)
	assert.Equal(t, reply.ID, comments[0].ID)

	w = s.do(t, http.MethodDelete, "/api/comments?id="+root.ID, nil, s.admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComments_PostRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	s.post(t, "anna", "one", nil)
	s.post(t, "anna", "two", nil)

	w := s.do(t, http.MethodPost, "/api/comments", dto.CommentCreateRequest{Username: "anna", Comment: "three"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// 只限制发帖
	w = s.do(t, http.MethodGet, "/api/comments", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestComments_SearchIsAdminOnly(t *testing.T) {
	s := newTestServer(t, 0)
	s.post(t, "anna", "freedom of assembly", nil)
	s.post(t, "nikos", "taxation", nil)

	w := s.do(t, http.MethodGet, "/api/comments/search?q=assembly", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/comments/search?q=assembly", nil, s.admin)
	require.Equal(t, http.StatusOK, w.Code)
	var data dto.CommentSearchData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
	assert.Equal(t, int64(1), data.Total)
	require.Len(t, data.Comments, 1)
	assert.Equal(t, "anna", data.Comments[0].Username)
}

func TestTwoFactor_VerifyAndStatus(t *testing.T) {
	s := newTestServer(t, 0)

	w := s.do(t, http.MethodGet, "/api/check-2fa-status", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"required":true}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/verify-2fa", dto.VerifyTwoFactorRequest{Code: "000000"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	code, err := totp.GenerateCode(testTOTPSecret, time.Now())
	require.NoError(t, err)
	w = s.do(t, http.MethodPost, "/api/verify-2fa", dto.VerifyTwoFactorRequest{Code: code}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"2FA code valid"}`, w.Body.String())

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AdminCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, "/", session.Path)
	assert.Equal(t, 3600, session.MaxAge)

	w = s.do(t, http.MethodGet, "/api/check-2fa-status", nil, &http.Cookie{Name: session.Name, Value: session.Value})
	assert.JSONEq(t, `{"required":false}`, w.Body.String())
}

func TestArticles_SaveRequiresAdmin(t *testing.T) {
	s := newTestServer(t, 0)
	articles := []model.Article{
		{ID: "art-2", Name: "Freedom of Expression", Number: 2, Content: "<p>ok</p><script>alert(1)</script>"},
		{ID: "art-1", Name: "Sovereignty", Number: 1, Content: "<p>All powers</p>"},
	}

	w := s.do(t, http.MethodPost, "/api/articles", articles, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/articles", articles, s.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Articles saved successfully"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/articles", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got []model.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "art-1", got[0].ID)
	assert.NotContains(t, got[1].Content, "<script>")
}

func TestArticles_Resolve(t *testing.T) {
	s := newTestServer(t, 0)
	w := s.do(t, http.MethodPost, "/api/articles", []model.Article{{ID: "art-1", Name: "Sovereignty", Number: 1}}, s.admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/articles/resolve?articleId=art-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"Sovereignty"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/articles/resolve", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/articles/resolve?articleId=art-9", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFAQs_SaveAndList(t *testing.T) {
	s := newTestServer(t, 0)
	faqs := []model.FAQ{
		{ID: "q2", Question: "Who drafts?", Answer: "Citizens", Order: 2},
		{ID: "q1", Question: "What is this?", Answer: "A draft", Order: 1},
	}

	w := s.do(t, http.MethodPost, "/api/faqs", faqs, s.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/faqs", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got []model.FAQ
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "q1", got[0].ID)
}
