package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/minisns/internal/middleware"
	"github.com/hitoshi/minisns/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Get は指定IDのユーザーを取得する。
	Get(ctx context.Context, userID string) (*model.User, error)
	// ChangeUsername はusernameを変更する。現在値と同じ場合は冪等な無操作。
	ChangeUsername(ctx context.Context, userID, newUsername string) (*model.User, error)
	// DeleteAccount はフォローエッジ、投稿、ユーザー本体を一括削除する。
	DeleteAccount(ctx context.Context, userID string) (*model.User, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// userResponse はユーザーの公開プロジェクション。
// パスワードハッシュは決して含めない。usernameは未設定時null。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  *string   `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// changeUsernameRequest はusername変更リクエストのボディ。
type changeUsernameRequest struct {
	Username string `json:"username"`
}

// deletedUserResponse は退会処理のokフラグ付きレスポンス。
type deletedUserResponse struct {
	OK      bool            `json:"ok"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    deletedUserData `json:"data"`
}

// deletedUserData は削除したユーザーの最後の公開フィールド。
type deletedUserData struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
}

// Me は認証済みユーザーのプロフィールを返す。
// GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(user))
}

// ChangeUsername はusernameを変更する。
// PATCH /users/me/username
func (h *UserHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req changeUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	user, err := h.service.ChangeUsername(r.Context(), userID, req.Username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(user))
}

// DeleteMe は認証済みユーザーの退会処理を実行する。
// DELETE /users/me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	deleted, err := h.service.DeleteAccount(r.Context(), userID)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUserNotFound {
			writeJSONResponse(w, http.StatusNotFound, okErrorResponse{
				OK:      false,
				Code:    apiErr.Code,
				Message: apiErr.Message,
			})
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, deletedUserResponse{
		OK:      true,
		Code:    model.CodeUserDeleted,
		Message: "Usuario y datos asociados eliminados",
		Data: deletedUserData{
			ID:       deleted.ID,
			Email:    deleted.Email,
			Username: nullableUsername(deleted.Username),
		},
	})
}

// --- 共通ヘルパー ---

// okErrorResponse はokフラグ付きエンドポイントのエラーレスポンス。
type okErrorResponse struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// newInvalidRequestError はリクエストボディ解析失敗のエラーを生成する。
func newInvalidRequestError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "Cuerpo de la petición inválido.",
		Category: "validation",
		Action:   "Envía un JSON válido.",
	}
}

// toUserResponse はドメインのUserを公開プロジェクションに変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  nullableUsername(u.Username),
		CreatedAt: u.CreatedAt,
	}
}

// nullableUsername は未設定のusernameをJSONのnullとして表現する。
func nullableUsername(username string) *string {
	if username == "" {
		return nil
	}
	return &username
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSONResponse(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "Error interno del servidor.",
		Category: "system",
		Action:   "Intenta de nuevo más tarde.",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMissingFields, model.ErrCodeInvalidUsername,
		model.ErrCodeUsernameFormat, model.ErrCodePasswordTooShort,
		model.ErrCodeInvalidContent, model.ErrCodeFollowSelf:
		return http.StatusBadRequest
	case model.ErrCodeEmailInUse, model.ErrCodeUsernameInUse,
		model.ErrCodeAlreadyFollowing, model.ErrCodeNotFollowing:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeUserNotFound, model.ErrCodeTargetNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
