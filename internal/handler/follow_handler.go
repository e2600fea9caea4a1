package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/minisns/internal/follow"
	"github.com/hitoshi/minisns/internal/middleware"
	"github.com/hitoshi/minisns/internal/model"
)

// FollowServiceInterface はフォローハンドラーが必要とするサービスインターフェース。
type FollowServiceInterface interface {
	// Follow はフォローエッジを作成する。
	Follow(ctx context.Context, actorID string, target follow.Target) (*follow.Result, error)
	// Unfollow はフォローエッジを削除する。
	Unfollow(ctx context.Context, actorID string, target follow.Target) (*follow.Result, error)
}

// FollowHandler はフォローグラフのHTTPハンドラー。
// ID指定とusernameハンドル指定の2系統のルートを提供する。
type FollowHandler struct {
	service FollowServiceInterface
}

// NewFollowHandler はFollowHandlerを生成する。
func NewFollowHandler(service FollowServiceInterface) *FollowHandler {
	return &FollowHandler{service: service}
}

// followData はフォロー操作レスポンスのdataフィールド。
type followData struct {
	FollowingID string     `json:"followingId"`
	Username    *string    `json:"username"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	Deleted     bool       `json:"deleted,omitempty"`
}

// followResponse はokフラグと機械可読コード付きのフォロー操作レスポンス。
// messageは表示用テキストで、クライアントの分岐にはcodeを使う。
type followResponse struct {
	OK      bool        `json:"ok"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    *followData `json:"data,omitempty"`
}

// FollowByID はIDで指定した対象をフォローする。
// POST /users/{id}/follow
func (h *FollowHandler) FollowByID(w http.ResponseWriter, r *http.Request) {
	h.doFollow(w, r, follow.TargetByID(chi.URLParam(r, "id")))
}

// UnfollowByID はIDで指定した対象のフォローを解除する。
// DELETE /users/{id}/follow
func (h *FollowHandler) UnfollowByID(w http.ResponseWriter, r *http.Request) {
	h.doUnfollow(w, r, follow.TargetByID(chi.URLParam(r, "id")))
}

// FollowByHandle はusernameで指定した対象をフォローする。
// POST /users/handle/{username}/follow
func (h *FollowHandler) FollowByHandle(w http.ResponseWriter, r *http.Request) {
	h.doFollow(w, r, follow.TargetByHandle(chi.URLParam(r, "username")))
}

// UnfollowByHandle はusernameで指定した対象のフォローを解除する。
// DELETE /users/handle/{username}/follow
func (h *FollowHandler) UnfollowByHandle(w http.ResponseWriter, r *http.Request) {
	h.doUnfollow(w, r, follow.TargetByHandle(chi.URLParam(r, "username")))
}

// doFollow はアドレス指定方式によらないフォロー処理の共通部分。
func (h *FollowHandler) doFollow(w http.ResponseWriter, r *http.Request, target follow.Target) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	result, err := h.service.Follow(r.Context(), actorID, target)
	if err != nil {
		h.writeFollowError(w, err, false)
		return
	}

	createdAt := result.CreatedAt
	writeJSONResponse(w, http.StatusCreated, followResponse{
		OK:      true,
		Code:    model.CodeFollowCreated,
		Message: result.Message,
		Data: &followData{
			FollowingID: result.FollowingID,
			Username:    nullableUsername(result.Username),
			CreatedAt:   &createdAt,
		},
	})
}

// doUnfollow はアドレス指定方式によらないアンフォロー処理の共通部分。
func (h *FollowHandler) doUnfollow(w http.ResponseWriter, r *http.Request, target follow.Target) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	result, err := h.service.Unfollow(r.Context(), actorID, target)
	if err != nil {
		h.writeFollowError(w, err, true)
		return
	}

	writeJSONResponse(w, http.StatusOK, followResponse{
		OK:      true,
		Code:    model.CodeFollowDeleted,
		Message: result.Message,
		Data: &followData{
			FollowingID: result.FollowingID,
			Username:    nullableUsername(result.Username),
			Deleted:     true,
		},
	})
}

// writeFollowError はフォロー操作のエラーをokフラグ付きフォーマットで書き込む。
// アンフォロー時の対象未検出は404ではなく409で報告する。
func (h *FollowHandler) writeFollowError(w http.ResponseWriter, err error, unfollowing bool) {
	var stateErr *follow.StateError
	if errors.As(err, &stateErr) {
		writeJSONResponse(w, http.StatusConflict, followResponse{
			OK:      false,
			Code:    stateErr.Code,
			Message: stateErr.Message,
			Data: &followData{
				FollowingID: stateErr.FollowingID,
				Username:    nullableUsername(stateErr.Username),
			},
		})
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		status := mapAPIErrorToHTTPStatus(apiErr)
		if unfollowing && apiErr.Code == model.ErrCodeTargetNotFound {
			// 「エッジが存在し得ない」状態矛盾として競合クラスで報告する
			status = http.StatusConflict
		}
		writeJSONResponse(w, status, followResponse{
			OK:      false,
			Code:    apiErr.Code,
			Message: apiErr.Message,
		})
		return
	}

	slog.Error("follow operation failed", slog.String("error", err.Error()))
	code, message := "FOLLOW_ERROR", "Error al seguir"
	if unfollowing {
		code, message = "UNFOLLOW_ERROR", "Error al dejar de seguir"
	}
	writeJSONResponse(w, http.StatusInternalServerError, followResponse{
		OK:      false,
		Code:    code,
		Message: message,
	})
}
