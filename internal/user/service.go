// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/minisns/internal/model"
	"github.com/hitoshi/minisns/internal/repository"
)

// Service はユーザー管理のサービス層。
// プロフィール取得、username変更、退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Get は指定IDのユーザーを取得する。存在しない場合はUSER_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// ChangeUsername はusernameを変更する。
// 登録時と同一の正規化・形式検証を行う。新しい値が現在値と同じ場合は
// 何も更新せず現在のレコードを返す（冪等）。
// ストレージ層の一意制約違反は競合エラーに、CHECK制約違反は
// バリデーションエラーに変換する。
func (s *Service) ChangeUsername(ctx context.Context, userID, newUsername string) (*model.User, error) {
	if newUsername == "" {
		return nil, model.NewMissingFieldsError("username requerido")
	}
	newUsername = strings.ToLower(strings.TrimSpace(newUsername))

	if !model.UsernameRe.MatchString(newUsername) {
		return nil, model.NewInvalidUsernameError()
	}

	current, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if current == nil {
		return nil, model.NewUserNotFoundError()
	}
	if current.Username == newUsername {
		return current, nil
	}

	updated, err := s.userRepo.UpdateUsername(ctx, userID, newUsername)
	if err != nil {
		// 存在チェックとUPDATEの間で同じusernameが取られた場合は
		// ストレージ層の制約違反をここで競合に変換する
		if repository.IsUniqueViolation(err, repository.UserUsernameConstraint) {
			return nil, model.NewUsernameInUseError()
		}
		if repository.IsCheckViolation(err) {
			return nil, model.NewUsernameFormatError()
		}
		return nil, fmt.Errorf("failed to update username: %w", err)
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("username changed",
		slog.String("user_id", userID),
		slog.String("username", updated.Username),
	)

	return updated, nil
}

// DeleteAccount は退会処理を実行する。
// フォローエッジ（両方向）、投稿、ユーザー本体を単一トランザクションで
// 削除し、削除したユーザーの公開フィールドを返す。
// 存在しないユーザーの場合はUSER_NOT_FOUNDを返す。
func (s *Service) DeleteAccount(ctx context.Context, userID string) (*model.User, error) {
	deleted, err := s.userRepo.DeleteCascade(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete account: %w", err)
	}
	if deleted == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("account deleted",
		slog.String("user_id", deleted.ID),
		slog.String("username", deleted.Username),
	)

	return deleted, nil
}
