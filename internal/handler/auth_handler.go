// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/minisns/internal/auth"
	"github.com/hitoshi/minisns/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録する。
	Register(ctx context.Context, email, password, username string) (*model.User, error)
	// Login はログイン処理を実行する。有効なBearerトークン提示時は
	// 新規発行せず既存セッションの状態を返す。
	Login(ctx context.Context, bearerToken, email, password string) (*auth.LoginResult, error)
}

// AuthHandler は登録・ログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse はログインAPIレスポンス。
// 既存セッションが有効だった場合、tokenとneedsUsernameは省略される。
type loginResponse struct {
	Message          string `json:"message"`
	Token            string `json:"token,omitempty"`
	UserID           string `json:"userId"`
	ExpiresInSeconds int    `json:"expiresInSeconds"`
	NeedsUsername    *bool  `json:"needsUsername,omitempty"`
}

// Register はユーザー登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toUserResponse(user))
}

// Login はログインを処理する。
// POST /auth/login
//
// Authorizationヘッダーに有効なBearerトークンが提示されている場合は
// 資格情報を確認せず、既存セッションの残り有効秒数を返す。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	// 既存トークンのみでのログインを許容するため、空ボディはエラーにしない
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := h.service.Login(r.Context(), auth.BearerToken(r), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, loginResponse{
		Message:          result.Message,
		Token:            result.Token,
		UserID:           result.UserID,
		ExpiresInSeconds: result.ExpiresInSeconds,
		NeedsUsername:    result.NeedsUsername,
	})
}
