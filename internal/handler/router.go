package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/minisns/internal/metrics"
	"github.com/hitoshi/minisns/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	MetricsCollector  metrics.MetricsCollector
	MetricsHandler    http.Handler

	// ヘルスチェック
	HealthChecker HealthChecker

	// ドメインサービス
	AuthService   AuthServiceInterface
	UserService   UserServiceInterface
	FollowService FollowServiceInterface
	PostService   PostServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → Metrics
//
// 認証が必要なルートにはさらにAuthMiddlewareを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	if deps.MetricsCollector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsCollector))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	followHandler := NewFollowHandler(deps.FollowService)
	postHandler := NewPostHandler(deps.PostService)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Check)

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// 全体フィードは公開
	r.Get("/posts", postHandler.List)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.Patch("/me/username", userHandler.ChangeUsername)
			r.Delete("/me", userHandler.DeleteMe)

			// idによるフォロー操作
			r.Post("/{id}/follow", followHandler.FollowByID)
			r.Delete("/{id}/follow", followHandler.UnfollowByID)

			// usernameによるフォロー操作
			r.Post("/handle/{username}/follow", followHandler.FollowByHandle)
			r.Delete("/handle/{username}/follow", followHandler.UnfollowByHandle)
		})

		r.Post("/posts", postHandler.Create)
		r.Get("/posts/following", postHandler.FollowingFeed)
	})

	return r
}
