package follow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/minisns/internal/model"
	"github.com/hitoshi/minisns/internal/repository"
)

// --- モック定義 ---

// mockUserRepo はフォローサービスが使うユーザー検索部分のモック実装。
type mockUserRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	findByUsernameFn func(ctx context.Context, username string) (*model.User, error)
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
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
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

// mockFollowRepo はrepository.FollowRepositoryのモック実装。
type mockFollowRepo struct {
	createFn       func(ctx context.Context, followerID, followingID string) (*model.Follow, error)
	existsFn       func(ctx context.Context, followerID, followingID string) (bool, error)
	deleteByPairFn func(ctx context.Context, followerID, followingID string) (bool, error)
}

func (m *mockFollowRepo) Create(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
	if m.createFn != nil {
		return m.createFn(ctx, followerID, followingID)
	}
	return &model.Follow{FollowerID: followerID, FollowingID: followingID, CreatedAt: time.Now()}, nil
}

func (m *mockFollowRepo) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followingID)
	}
	return false, nil
}

func (m *mockFollowRepo) DeleteByPair(ctx context.Context, followerID, followingID string) (bool, error) {
	if m.deleteByPairFn != nil {
		return m.deleteByPairFn(ctx, followerID, followingID)
	}
	return true, nil
}

var _ repository.FollowRepository = (*mockFollowRepo)(nil)

func targetUserRepo() *mockUserRepo {
	return &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			if id == "target-456" {
				return &model.User{ID: "target-456", Username: "bob42"}, nil
			}
			return nil, nil
		},
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			if username == "bob42" {
				return &model.User{ID: "target-456", Username: "bob42"}, nil
			}
			return nil, nil
		},
	}
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	return apiErr.Code
}

// --- Follow テスト ---

func TestService_Follow_Success(t *testing.T) {
	createdAt := time.Now()
	followRepo := &mockFollowRepo{
		createFn: func(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
			if followerID != "actor-123" || followingID != "target-456" {
				t.Errorf("Create(%q, %q), want (actor-123, target-456)", followerID, followingID)
			}
			return &model.Follow{FollowerID: followerID, FollowingID: followingID, CreatedAt: createdAt}, nil
		},
	}
	svc := NewService(targetUserRepo(), followRepo)

	result, err := svc.Follow(context.Background(), "actor-123", TargetByID("target-456"))
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}

	if result.FollowingID != "target-456" {
		t.Errorf("FollowingID = %q, want %q", result.FollowingID, "target-456")
	}
	if result.Username != "bob42" {
		t.Errorf("Username = %q, want %q", result.Username, "bob42")
	}
	if !result.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt = %v, want %v", result.CreatedAt, createdAt)
	}
	if result.Message != "Has seguido a bob42 (target-456)." {
		t.Errorf("Message = %q", result.Message)
	}
}

// ID指定とusername指定は同じユーザーに解決され、結果も同一になる
func TestService_Follow_BothAddressingModesEquivalent(t *testing.T) {
	svc := NewService(targetUserRepo(), &mockFollowRepo{})

	byID, err := svc.Follow(context.Background(), "actor-123", TargetByID("target-456"))
	if err != nil {
		t.Fatalf("Follow(by id) error = %v", err)
	}
	byHandle, err := svc.Follow(context.Background(), "actor-123", TargetByHandle("Bob42"))
	if err != nil {
		t.Fatalf("Follow(by handle) error = %v", err)
	}

	if byID.FollowingID != byHandle.FollowingID || byID.Username != byHandle.Username {
		t.Errorf("results differ: %+v vs %+v", byID, byHandle)
	}
}

// ID指定の自己フォロー判定は存在確認より先に行う
func TestService_Follow_SelfByID_CheckedBeforeLookup(t *testing.T) {
	lookupCalled := false
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			lookupCalled = true
			return nil, nil
		},
	}
	svc := NewService(userRepo, &mockFollowRepo{})

	_, err := svc.Follow(context.Background(), "actor-123", TargetByID("actor-123"))
	if code := errCode(t, err); code != model.ErrCodeFollowSelf {
		t.Errorf("code = %q, want %q", code, model.ErrCodeFollowSelf)
	}
	if lookupCalled {
		t.Error("self-follow by id should be rejected before any lookup")
	}
}

// username指定で自分自身に解決された場合も自己フォローを拒否する
func TestService_Follow_SelfByHandle(t *testing.T) {
	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: "actor-123", Username: "alice99"}, nil
		},
	}
	svc := NewService(userRepo, &mockFollowRepo{})

	_, err := svc.Follow(context.Background(), "actor-123", TargetByHandle("alice99"))
	if code := errCode(t, err); code != model.ErrCodeFollowSelf {
		t.Errorf("code = %q, want %q", code, model.ErrCodeFollowSelf)
	}
}

func TestService_Follow_TargetNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockFollowRepo{})

	_, err := svc.Follow(context.Background(), "actor-123", TargetByID("ghost"))
	if code := errCode(t, err); code != model.ErrCodeTargetNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeTargetNotFound)
	}
}

// フォロー済みの場合は解決済み対象情報付きのStateErrorを返す
func TestService_Follow_AlreadyFollowing(t *testing.T) {
	followRepo := &mockFollowRepo{
		existsFn: func(ctx context.Context, followerID, followingID string) (bool, error) {
			return true, nil
		},
	}
	svc := NewService(targetUserRepo(), followRepo)

	_, err := svc.Follow(context.Background(), "actor-123", TargetByID("target-456"))

	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected *StateError, got %T: %v", err, err)
	}
	if stateErr.Code != model.ErrCodeAlreadyFollowing {
		t.Errorf("code = %q, want %q", stateErr.Code, model.ErrCodeAlreadyFollowing)
	}
	if stateErr.FollowingID != "target-456" || stateErr.Username != "bob42" {
		t.Errorf("resolved target = (%q, %q), want (target-456, bob42)", stateErr.FollowingID, stateErr.Username)
	}
	if stateErr.Message != "Ya sigues a bob42 (target-456)." {
		t.Errorf("Message = %q", stateErr.Message)
	}
}

// 存在チェックとINSERTの間で同一エッジが作られた場合もALREADY_FOLLOWINGにする
func TestService_Follow_UniqueViolationRace(t *testing.T) {
	followRepo := &mockFollowRepo{
		createFn: func(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
			return nil, &pq.Error{Code: "23505", Constraint: repository.FollowPairConstraint}
		},
	}
	svc := NewService(targetUserRepo(), followRepo)

	_, err := svc.Follow(context.Background(), "actor-123", TargetByID("target-456"))

	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected *StateError, got %T: %v", err, err)
	}
	if stateErr.Code != model.ErrCodeAlreadyFollowing {
		t.Errorf("code = %q, want %q", stateErr.Code, model.ErrCodeAlreadyFollowing)
	}
}

// --- Unfollow テスト ---

func TestService_Unfollow_Success(t *testing.T) {
	followRepo := &mockFollowRepo{
		existsFn: func(ctx context.Context, followerID, followingID string) (bool, error) {
			return true, nil
		},
	}
	svc := NewService(targetUserRepo(), followRepo)

	result, err := svc.Unfollow(context.Background(), "actor-123", TargetByHandle("bob42"))
	if err != nil {
		t.Fatalf("Unfollow() error = %v", err)
	}

	if result.FollowingID != "target-456" {
		t.Errorf("FollowingID = %q, want %q", result.FollowingID, "target-456")
	}
	if result.Message != "Has dejado de seguir a bob42 (target-456)." {
		t.Errorf("Message = %q", result.Message)
	}
}

// アンフォロー時の対象未検出は404系ではなく状態矛盾のTARGET_NOT_FOUNDで報告する
func TestService_Unfollow_TargetMissing(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockFollowRepo{})

	_, err := svc.Unfollow(context.Background(), "actor-123", TargetByID("ghost"))
	if code := errCode(t, err); code != model.ErrCodeTargetNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeTargetNotFound)
	}

	var apiErr *model.APIError
	errors.As(err, &apiErr)
	if apiErr.Message != "No se puede dejar de seguir: el usuario destino no existe." {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestService_Unfollow_NotFollowing(t *testing.T) {
	svc := NewService(targetUserRepo(), &mockFollowRepo{
		existsFn: func(ctx context.Context, followerID, followingID string) (bool, error) {
			return false, nil
		},
	})

	_, err := svc.Unfollow(context.Background(), "actor-123", TargetByID("target-456"))

	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected *StateError, got %T: %v", err, err)
	}
	if stateErr.Code != model.ErrCodeNotFollowing {
		t.Errorf("code = %q, want %q", stateErr.Code, model.ErrCodeNotFollowing)
	}
	if stateErr.Message != "No puedes dejar de seguir: no sigues a bob42 (target-456)." {
		t.Errorf("Message = %q", stateErr.Message)
	}
}

// 存在チェックとDELETEの間でエッジが消えた場合もNOT_FOLLOWINGにする
func TestService_Unfollow_DeleteRace(t *testing.T) {
	followRepo := &mockFollowRepo{
		existsFn: func(ctx context.Context, followerID, followingID string) (bool, error) {
			return true, nil
		},
		deleteByPairFn: func(ctx context.Context, followerID, followingID string) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(targetUserRepo(), followRepo)

	_, err := svc.Unfollow(context.Background(), "actor-123", TargetByID("target-456"))

	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected *StateError, got %T: %v", err, err)
	}
	if stateErr.Code != model.ErrCodeNotFollowing {
		t.Errorf("code = %q, want %q", stateErr.Code, model.ErrCodeNotFollowing)
	}
}

// --- IsFollowing テスト ---

func TestService_IsFollowing(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockFollowRepo{
		existsFn: func(ctx context.Context, followerID, followingID string) (bool, error) {
			return followerID == "actor-123" && followingID == "target-456", nil
		},
	})

	following, err := svc.IsFollowing(context.Background(), "actor-123", "target-456")
	if err != nil {
		t.Fatalf("IsFollowing() error = %v", err)
	}
	if !following {
		t.Error("IsFollowing() = false, want true")
	}

	following, err = svc.IsFollowing(context.Background(), "target-456", "actor-123")
	if err != nil {
		t.Fatalf("IsFollowing() error = %v", err)
	}
	if following {
		t.Error("follow edges are directed; reverse pair should be false")
	}
}
