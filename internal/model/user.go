// Package model はドメインモデルを定義する。
package model

import (
	"regexp"
	"time"
)

// UsernameRe はusernameの形式制約。小文字英数字のみ、3〜30文字。
// DBのCHECK制約と同一のパターンを使用する。
var UsernameRe = regexp.MustCompile(`^[a-z0-9]{3,30}$`)

// User は登録済みアカウントを表す。
// emailとusernameは小文字に正規化して保存する。
// usernameは登録後に変更可能で、未設定の場合は空文字列。
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// NeedsUsername はusernameが未設定、または形式制約を満たさない場合にtrueを返す。
// ログイン後のクライアント誘導（PATCH /users/me/username）に使用する。
func (u *User) NeedsUsername() bool {
	return u.Username == "" || !UsernameRe.MatchString(u.Username)
}

// Follow はフォロー関係（有向エッジ）を表す。
// (follower_id, following_id) の順序付きペアで一意。
// AがBをフォローしてもBがAをフォローすることにはならない。
type Follow struct {
	FollowerID  string
	FollowingID string
	CreatedAt   time.Time
}

// Post は短文投稿を表す。contentは1〜280文字。
type Post struct {
	ID        string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// PostWithAuthor は投稿と著者usernameを結合した読み取り用モデル。
type PostWithAuthor struct {
	Post
	AuthorUsername string
}
