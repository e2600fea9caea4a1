package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/minisns/internal/model"
)

// usersテーブルの一意制約名。一意制約違反をemail競合とusername競合に
// 振り分けるためにサービス層から参照する。
const (
	UserEmailConstraint    = "users_email_key"
	UserUsernameConstraint = "users_username_key"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, nullableString(user.Username), user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, email, username, password, created_at FROM users WHERE id = $1`, id)
}

// FindByEmail はemailの大文字小文字を無視してユーザーを検索する。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, email, username, password, created_at FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

// FindByUsername はusernameの大文字小文字を無視してユーザーを検索する。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT id, email, username, password, created_at FROM users WHERE LOWER(username) = LOWER($1)`, username)
}

// ExistsByEmail はemailが既に使用されているかを返す。
func (r *PostgresUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

// ExistsByUsername はusernameが既に使用されているかを返す。
func (r *PostgresUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM users WHERE LOWER(username) = LOWER($1)`, username)
}

// UpdateUsername はusernameを更新し、更新後のユーザーを返す。
// ユーザーが存在しない場合はnilを返す。
func (r *PostgresUserRepo) UpdateUsername(ctx context.Context, id, username string) (*model.User, error) {
	user := &model.User{}
	var storedUsername sql.NullString
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET username = LOWER($1)
		 WHERE id = $2
		 RETURNING id, email, username, password, created_at`,
		username, id,
	).Scan(&user.ID, &user.Email, &storedUsername, &user.PasswordHash, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update username: %w", err)
	}
	user.Username = storedUsername.String

	return user, nil
}

// DeleteCascade はフォローエッジ、投稿、ユーザー本体を同一トランザクションで削除する。
// 途中で失敗した場合は全てロールバックされ、部分的な削除は残らない。
// ユーザーが存在しない場合はnilを返す。
func (r *PostgresUserRepo) DeleteCascade(ctx context.Context, id string) (*model.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. フォローエッジを削除（フォローする側・される側の両方）
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 OR following_id = $1`, id,
	); err != nil {
		return nil, fmt.Errorf("failed to delete follows: %w", err)
	}

	// 2. 投稿を削除
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM posts WHERE author_id = $1`, id,
	); err != nil {
		return nil, fmt.Errorf("failed to delete posts: %w", err)
	}

	// 3. ユーザー本体を削除し、最後の公開フィールドを返す
	user := &model.User{}
	var storedUsername sql.NullString
	err = tx.QueryRowContext(ctx,
		`DELETE FROM users WHERE id = $1 RETURNING id, email, username`, id,
	).Scan(&user.ID, &user.Email, &storedUsername)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	user.Username = storedUsername.String

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// findOne は単一ユーザーを取得する共通処理。見つからない場合はnilを返す。
func (r *PostgresUserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	var storedUsername sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Email, &storedUsername, &user.PasswordHash, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user.Username = storedUsername.String

	return user, nil
}

// exists は存在チェックの共通処理。
func (r *PostgresUserRepo) exists(ctx context.Context, query string, arg any) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return true, nil
}

// nullableString は空文字列をNULLとして保存するための変換。
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
