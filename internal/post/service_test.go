package post

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/minisns/internal/model"
	"github.com/hitoshi/minisns/internal/repository"
	"github.com/hitoshi/minisns/internal/security"
)

// --- モック定義 ---

// mockPostRepo はrepository.PostRepositoryのモック実装。
type mockPostRepo struct {
	createFn        func(ctx context.Context, post *model.Post) error
	listFn          func(ctx context.Context, authorID, q string, limit int) ([]model.PostWithAuthor, error)
	listFollowingFn func(ctx context.Context, userID string, limit int) ([]model.PostWithAuthor, error)
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepo) List(ctx context.Context, authorID, q string, limit int) ([]model.PostWithAuthor, error) {
	if m.listFn != nil {
		return m.listFn(ctx, authorID, q, limit)
	}
	return nil, nil
}

func (m *mockPostRepo) ListFollowing(ctx context.Context, userID string, limit int) ([]model.PostWithAuthor, error) {
	if m.listFollowingFn != nil {
		return m.listFollowingFn(ctx, userID, limit)
	}
	return nil, nil
}

var _ repository.PostRepository = (*mockPostRepo)(nil)

// mockUserRepo は著者検索部分のみを実装するモック。
type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return false, nil
}

func (m *mockUserRepo) UpdateUsername(ctx context.Context, id, username string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) DeleteCascade(ctx context.Context, id string) (*model.User, error) {
	return nil, nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newTestService(postRepo *mockPostRepo, userRepo *mockUserRepo) *Service {
	return NewService(postRepo, userRepo, security.NewContentSanitizer(), ServiceConfig{
		DefaultLimit: 10,
		MaxLimit:     100,
	})
}

func authorUserRepo() *mockUserRepo {
	return &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Username: "alice99"}, nil
		},
	}
}

// --- Create テスト ---

func TestService_Create_Success(t *testing.T) {
	var saved *model.Post
	postRepo := &mockPostRepo{
		createFn: func(ctx context.Context, post *model.Post) error {
			saved = post
			return nil
		},
	}
	svc := newTestService(postRepo, authorUserRepo())

	result, err := svc.Create(context.Background(), "user-123", "hola mundo")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if saved == nil {
		t.Fatal("expected the post to be persisted")
	}
	if result.Content != "hola mundo" {
		t.Errorf("Content = %q, want %q", result.Content, "hola mundo")
	}
	if result.AuthorID != "user-123" {
		t.Errorf("AuthorID = %q, want %q", result.AuthorID, "user-123")
	}
	if result.AuthorUsername != "alice99" {
		t.Errorf("AuthorUsername = %q, want %q", result.AuthorUsername, "alice99")
	}
	if result.ID == "" {
		t.Error("ID should be generated")
	}
}

func TestService_Create_SanitizesHTML(t *testing.T) {
	var saved *model.Post
	postRepo := &mockPostRepo{
		createFn: func(ctx context.Context, post *model.Post) error {
			saved = post
			return nil
		},
	}
	svc := newTestService(postRepo, authorUserRepo())

	_, err := svc.Create(context.Background(), "user-123", "<script>alert(1)</script>hola <b>mundo</b>")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if strings.Contains(saved.Content, "<") {
		t.Errorf("content should be plain text, got %q", saved.Content)
	}
	if !strings.Contains(saved.Content, "mundo") {
		t.Errorf("text content should survive sanitization, got %q", saved.Content)
	}
}

func TestService_Create_ContentBounds(t *testing.T) {
	svc := newTestService(&mockPostRepo{}, authorUserRepo())

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"tags only", "<b></b>", true},
		{"single char", "a", false},
		{"280 chars", strings.Repeat("a", 280), false},
		{"281 chars", strings.Repeat("a", 281), true},
		// 文字数はルーン単位で数える
		{"280 multibyte runes", strings.Repeat("あ", 280), false},
		{"281 multibyte runes", strings.Repeat("あ", 281), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-123", tt.content)
			if tt.wantErr {
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidContent {
					t.Errorf("error = %v, want %s", err, model.ErrCodeInvalidContent)
				}
				return
			}
			if err != nil {
				t.Errorf("Create() error = %v", err)
			}
		})
	}
}

// --- List / FollowingFeed テスト ---

func TestService_List_PassesFiltersAndClampsLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"zero uses default", 0, 10},
		{"negative uses default", -5, 10},
		{"in range", 25, 25},
		{"over max is clamped", 500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuthorID, gotQ string
			var gotLimit int
			postRepo := &mockPostRepo{
				listFn: func(ctx context.Context, authorID, q string, limit int) ([]model.PostWithAuthor, error) {
					gotAuthorID, gotQ, gotLimit = authorID, q, limit
					return []model.PostWithAuthor{}, nil
				},
			}
			svc := newTestService(postRepo, &mockUserRepo{})

			_, err := svc.List(context.Background(), "author-1", "hola", tt.limit)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if gotAuthorID != "author-1" || gotQ != "hola" {
				t.Errorf("filters = (%q, %q), want (author-1, hola)", gotAuthorID, gotQ)
			}
			if gotLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", gotLimit, tt.wantLimit)
			}
		})
	}
}

func TestService_FollowingFeed_ClampsLimit(t *testing.T) {
	var gotUserID string
	var gotLimit int
	postRepo := &mockPostRepo{
		listFollowingFn: func(ctx context.Context, userID string, limit int) ([]model.PostWithAuthor, error) {
			gotUserID, gotLimit = userID, limit
			return []model.PostWithAuthor{}, nil
		},
	}
	svc := newTestService(postRepo, &mockUserRepo{})

	_, err := svc.FollowingFeed(context.Background(), "user-123", 0)
	if err != nil {
		t.Fatalf("FollowingFeed() error = %v", err)
	}
	if gotUserID != "user-123" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-123")
	}
	if gotLimit != 10 {
		t.Errorf("limit = %d, want default 10", gotLimit)
	}
}
