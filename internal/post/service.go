// Package post は投稿のドメインロジックを提供する。
package post

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/minisns/internal/model"
	"github.com/hitoshi/minisns/internal/repository"
	"github.com/hitoshi/minisns/internal/security"
)

// maxContentLength は投稿contentの最大文字数。
const maxContentLength = 280

// ServiceConfig は投稿サービスの設定。
type ServiceConfig struct {
	DefaultLimit int // 一覧取得のデフォルト件数
	MaxLimit     int // 一覧取得の上限件数
}

// Service は投稿のサービス層。
type Service struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	sanitizer security.ContentSanitizerService
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
	config ServiceConfig,
) *Service {
	return &Service{
		postRepo:  postRepo,
		userRepo:  userRepo,
		sanitizer: sanitizer,
		config:    config,
	}
}

// Create は投稿を作成し、著者username付きで返す。
// contentはサニタイズ後に1〜280文字であることを検証する。
func (s *Service) Create(ctx context.Context, authorID, content string) (*model.PostWithAuthor, error) {
	content = s.sanitizer.Sanitize(content)
	if n := utf8.RuneCountInString(content); n < 1 || n > maxContentLength {
		return nil, model.NewInvalidContentError()
	}

	p := &model.Post{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := s.postRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find author: %w", err)
	}

	result := &model.PostWithAuthor{Post: *p}
	if author != nil {
		result.AuthorUsername = author.Username
	}

	slog.Info("post created",
		slog.String("post_id", p.ID),
		slog.String("author_id", authorID),
	)

	return result, nil
}

// List は全体フィードを返す。authorIDとqは空文字列で無効化される任意フィルタ。
func (s *Service) List(ctx context.Context, authorID, q string, limit int) ([]model.PostWithAuthor, error) {
	posts, err := s.postRepo.List(ctx, authorID, q, s.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// FollowingFeed はフォロー中の著者の投稿を返す。
func (s *Service) FollowingFeed(ctx context.Context, userID string, limit int) ([]model.PostWithAuthor, error) {
	posts, err := s.postRepo.ListFollowing(ctx, userID, s.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list following feed: %w", err)
	}
	return posts, nil
}

// clampLimit は取得件数を1〜MaxLimitの範囲に収める。0以下はデフォルト値。
func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		return s.config.MaxLimit
	}
	return limit
}
