// Package follow はフォローグラフ管理のドメインロジックを提供する。
package follow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/minisns/internal/model"
	"github.com/hitoshi/minisns/internal/repository"
)

// Target はフォロー対象のアドレス指定を表す。
// 不透明IDとusernameハンドルの2方式があり、どちらも同じユーザー検索に
// 帰着するため、follow/unfollowの挙動は指定方式によらず同一になる。
type Target struct {
	id     string
	handle string
}

// TargetByID はIDによる対象指定を生成する。
func TargetByID(id string) Target {
	return Target{id: id}
}

// TargetByHandle はusernameハンドルによる対象指定を生成する。
func TargetByHandle(handle string) Target {
	return Target{handle: strings.ToLower(handle)}
}

// Result はフォロー・アンフォロー操作の成功結果を表す。
// Messageには解決済みのusernameとidを埋め込んだ表示用テキストが入る。
type Result struct {
	FollowingID string
	Username    string
	CreatedAt   time.Time
	Message     string
}

// StateError は解決済み対象情報付きのフォロー状態エラー。
// ALREADY_FOLLOWING / NOT_FOLLOWING のレスポンスに対象ユーザーの
// データを含めるために使う。
type StateError struct {
	*model.APIError
	FollowingID string
	Username    string
}

// Unwrap はラップしたAPIErrorを返す。errors.Asによる汎用マッピング用。
func (e *StateError) Unwrap() error {
	return e.APIError
}

// Service はフォローグラフのサービス層。
type Service struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *Service {
	return &Service{
		userRepo:   userRepo,
		followRepo: followRepo,
	}
}

// resolve は対象指定をユーザーレコードに解決する。見つからない場合はnilを返す。
func (s *Service) resolve(ctx context.Context, target Target) (*model.User, error) {
	if target.id != "" {
		return s.userRepo.FindByID(ctx, target.id)
	}
	return s.userRepo.FindByUsername(ctx, target.handle)
}

// Follow はactorIDから対象へのフォローエッジを作成する。
// 自己フォロー、対象未検出、フォロー済みはそれぞれ専用エラーになる。
// ID指定の自己フォロー判定は存在確認より先に行うため、actor自身のIDを
// 指定した場合は対象が存在しなくてもFOLLOW_SELFになる。
func (s *Service) Follow(ctx context.Context, actorID string, target Target) (*Result, error) {
	if target.id != "" && target.id == actorID {
		return nil, model.NewSelfFollowError()
	}

	resolved, err := s.resolve(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target: %w", err)
	}
	if resolved == nil {
		return nil, model.NewTargetNotFoundError()
	}
	if resolved.ID == actorID {
		return nil, model.NewSelfFollowError()
	}

	following, err := s.IsFollowing(ctx, actorID, resolved.ID)
	if err != nil {
		return nil, err
	}
	if following {
		return nil, &StateError{
			APIError:    model.NewAlreadyFollowingError(resolved.Username, resolved.ID),
			FollowingID: resolved.ID,
			Username:    resolved.Username,
		}
	}

	edge, err := s.followRepo.Create(ctx, actorID, resolved.ID)
	if err != nil {
		// 存在チェックとINSERTの間で同一エッジが作られた場合、主キー違反を
		// ALREADY_FOLLOWINGとして報告し、内部エラーとしては扱わない
		if repository.IsUniqueViolation(err, repository.FollowPairConstraint) {
			return nil, &StateError{
				APIError:    model.NewAlreadyFollowingError(resolved.Username, resolved.ID),
				FollowingID: resolved.ID,
				Username:    resolved.Username,
			}
		}
		return nil, err
	}

	slog.Info("follow created",
		slog.String("follower_id", actorID),
		slog.String("following_id", resolved.ID),
	)

	return &Result{
		FollowingID: resolved.ID,
		Username:    resolved.Username,
		CreatedAt:   edge.CreatedAt,
		Message:     fmt.Sprintf("Has seguido a %s (%s).", resolved.Username, resolved.ID),
	}, nil
}

// Unfollow はactorIDから対象へのフォローエッジを削除する。
// 対象未検出は「エッジが存在し得ない」という状態矛盾として
// 競合クラスのエラーで報告する（フォロー時の404との非対称は意図的）。
func (s *Service) Unfollow(ctx context.Context, actorID string, target Target) (*Result, error) {
	resolved, err := s.resolve(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target: %w", err)
	}
	if resolved == nil {
		return nil, model.NewUnfollowTargetMissingError()
	}

	following, err := s.IsFollowing(ctx, actorID, resolved.ID)
	if err != nil {
		return nil, err
	}
	if !following {
		return nil, &StateError{
			APIError:    model.NewNotFollowingError(resolved.Username, resolved.ID),
			FollowingID: resolved.ID,
			Username:    resolved.Username,
		}
	}

	deleted, err := s.followRepo.DeleteByPair(ctx, actorID, resolved.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// 存在チェックとDELETEの間でエッジが消えた場合もNOT_FOLLOWINGとする
		return nil, &StateError{
			APIError:    model.NewNotFollowingError(resolved.Username, resolved.ID),
			FollowingID: resolved.ID,
			Username:    resolved.Username,
		}
	}

	slog.Info("follow deleted",
		slog.String("follower_id", actorID),
		slog.String("following_id", resolved.ID),
	)

	return &Result{
		FollowingID: resolved.ID,
		Username:    resolved.Username,
		Message:     fmt.Sprintf("Has dejado de seguir a %s (%s).", resolved.Username, resolved.ID),
	}, nil
}

// IsFollowing は指定ペアのエッジが存在するかを返す。
// 副作用のない純粋な存在チェックで、何度呼んでも安全。
func (s *Service) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	following, err := s.followRepo.Exists(ctx, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow state: %w", err)
	}
	return following, nil
}
