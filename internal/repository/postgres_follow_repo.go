package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/minisns/internal/model"
)

// FollowPairConstraint はフォローエッジの主キー制約名。
// 同一ペアの重複INSERTをALREADY_FOLLOWINGに変換するために参照する。
const FollowPairConstraint = "follows_pkey"

// PostgresFollowRepo はPostgreSQLを使用したフォローエッジリポジトリ。
type PostgresFollowRepo struct {
	db *sql.DB
}

// NewPostgresFollowRepo はPostgresFollowRepoを生成する。
func NewPostgresFollowRepo(db *sql.DB) *PostgresFollowRepo {
	return &PostgresFollowRepo{db: db}
}

// Create はフォローエッジを作成し、作成日時付きで返す。
func (r *PostgresFollowRepo) Create(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
	follow := &model.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO follows (follower_id, following_id)
		 VALUES ($1, $2)
		 RETURNING created_at`,
		followerID, followingID,
	).Scan(&follow.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert follow: %w", err)
	}
	return follow, nil
}

// Exists は指定ペアのエッジが存在するかを返す。
func (r *PostgresFollowRepo) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return true, nil
}

// DeleteByPair は指定ペアのエッジを削除し、削除が行われたかを返す。
// エッジが存在しなかった場合はfalseを返す。これを呼び出し元が
// NOT_FOLLOWINGに変換する（チェックと削除の競合もここで吸収される）。
func (r *PostgresFollowRepo) DeleteByPair(ctx context.Context, followerID, followingID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ FollowRepository = (*PostgresFollowRepo)(nil)
