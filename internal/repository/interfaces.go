// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/minisns/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// email/usernameの一意制約違反はそのまま返すため、呼び出し元が
	// IsUniqueViolationで判定して競合エラーに変換する。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はemailの大文字小文字を無視してユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByUsername はusernameの大文字小文字を無視してユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// ExistsByEmail はemailが既に使用されているかを返す。
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername はusernameが既に使用されているかを返す。
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// UpdateUsername はusernameを更新し、更新後のユーザーを返す。
	// ユーザーが存在しない場合はnilを返す。
	// 一意制約・CHECK制約違反はそのまま返す。
	UpdateUsername(ctx context.Context, id, username string) (*model.User, error)

	// DeleteCascade はフォローエッジ（両方向）、投稿、ユーザー本体を
	// 同一トランザクションで削除し、削除前の公開フィールドを返す。
	// ユーザーが存在しない場合はnilを返し、何も削除しない。
	DeleteCascade(ctx context.Context, id string) (*model.User, error)
}

// FollowRepository はフォローエッジの永続化インターフェース。
type FollowRepository interface {
	// Create はフォローエッジを作成する。
	// 同一ペアの重複は主キー制約違反としてそのまま返す。
	Create(ctx context.Context, followerID, followingID string) (*model.Follow, error)

	// Exists は指定ペアのエッジが存在するかを返す。
	Exists(ctx context.Context, followerID, followingID string) (bool, error)

	// DeleteByPair は指定ペアのエッジを削除し、削除が行われたかを返す。
	DeleteByPair(ctx context.Context, followerID, followingID string) (bool, error)
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// List は全体フィードを新しい順に返す。
	// authorIDが空でなければ著者で、qが空でなければcontentの部分一致で絞り込む。
	List(ctx context.Context, authorID, q string, limit int) ([]model.PostWithAuthor, error)

	// ListFollowing はuserIDがフォローしている著者の投稿を新しい順に返す。
	ListFollowing(ctx context.Context, userID string, limit int) ([]model.PostWithAuthor, error)
}
