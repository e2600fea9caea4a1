package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/minisns/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, content, created_at)
		 VALUES ($1, $2, $3, $4)`,
		post.ID, post.AuthorID, post.Content, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// List は全体フィードを新しい順に返す。
// authorIDとqは空文字列で無効化される任意フィルタ。
func (r *PostgresPostRepo) List(ctx context.Context, authorID, q string, limit int) ([]model.PostWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.author_id, u.username, p.content, p.created_at
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE ($1 = '' OR p.author_id = $1::uuid)
		   AND ($2 = '' OR p.content ILIKE '%' || $2 || '%')
		 ORDER BY p.created_at DESC
		 LIMIT $3`,
		authorID, q, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ListFollowing はuserIDがフォローしている著者の投稿を新しい順に返す。
func (r *PostgresPostRepo) ListFollowing(ctx context.Context, userID string, limit int) ([]model.PostWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.author_id, u.username, p.content, p.created_at
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 JOIN follows f ON f.following_id = p.author_id
		 WHERE f.follower_id = $1
		 ORDER BY p.created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list following feed: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// scanPosts は投稿一覧クエリの行をスキャンする共通処理。
func scanPosts(rows *sql.Rows) ([]model.PostWithAuthor, error) {
	posts := []model.PostWithAuthor{}
	for rows.Next() {
		var p model.PostWithAuthor
		var username sql.NullString
		if err := rows.Scan(&p.ID, &p.AuthorID, &username, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.AuthorUsername = username.String
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
