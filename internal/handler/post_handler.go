package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/minisns/internal/middleware"
	"github.com/hitoshi/minisns/internal/model"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, authorID, content string) (*model.PostWithAuthor, error)
	// List は全体フィードを返す。
	List(ctx context.Context, authorID, q string, limit int) ([]model.PostWithAuthor, error)
	// FollowingFeed はフォロー中の著者の投稿を返す。
	FollowingFeed(ctx context.Context, userID string, limit int) ([]model.PostWithAuthor, error)
}

// PostHandler は投稿のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// createPostRequest は投稿作成リクエストのボディ。
type createPostRequest struct {
	Content string `json:"content"`
}

// postResponse は投稿のAPIレスポンス。
type postResponse struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername *string   `json:"author_username"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Create は投稿を作成する。
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	post, err := h.service.Create(r.Context(), userID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toPostResponse(*post))
}

// List は全体フィードを返す。認証不要。
// GET /posts?limit=&authorId=&q=
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context(),
		r.URL.Query().Get("authorId"),
		r.URL.Query().Get("q"),
		parseLimit(r),
	)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toPostResponses(posts))
}

// FollowingFeed はフォロー中の著者の投稿を返す。
// GET /posts/following?limit=
func (h *PostHandler) FollowingFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	posts, err := h.service.FollowingFeed(r.Context(), userID, parseLimit(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toPostResponses(posts))
}

// parseLimit はlimitクエリパラメータを解析する。不正値や未指定は0（サービス側デフォルト）。
func parseLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	limit, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return limit
}

// toPostResponse はドメインの投稿をレスポンス型に変換する。
func toPostResponse(p model.PostWithAuthor) postResponse {
	return postResponse{
		ID:             p.ID,
		AuthorID:       p.AuthorID,
		AuthorUsername: nullableUsername(p.AuthorUsername),
		Content:        p.Content,
		CreatedAt:      p.CreatedAt,
	}
}

// toPostResponses は投稿一覧をレスポンス型に変換する。
func toPostResponses(posts []model.PostWithAuthor) []postResponse {
	results := make([]postResponse, len(posts))
	for i, p := range posts {
		results[i] = toPostResponse(p)
	}
	return results
}
