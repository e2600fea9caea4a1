package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker はヘルスチェックに必要なDBアクセスを抽象化する。
// *sql.DB がこのインターフェースを満たす。
type HealthChecker interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// healthResponse はヘルスチェック成功時のレスポンス。
type healthResponse struct {
	OK     bool      `json:"ok"`
	DBTime time.Time `json:"db_time"`
}

// healthErrorResponse はヘルスチェック失敗時のレスポンス。
type healthErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Check はDB接続を確認する。
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	var dbTime time.Time
	if err := h.db.QueryRowContext(r.Context(), "SELECT NOW()").Scan(&dbTime); err != nil {
		slog.Error("health check failed", slog.String("error", err.Error()))
		writeJSONResponse(w, http.StatusInternalServerError, healthErrorResponse{
			OK:    false,
			Error: "DB connection failed",
		})
		return
	}

	writeJSONResponse(w, http.StatusOK, healthResponse{OK: true, DBTime: dbTime})
}
