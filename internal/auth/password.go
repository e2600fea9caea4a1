// Package auth は登録・ログイン、パスワードハッシュ、セッショントークンを提供する。
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost はパスワードハッシュのコスト係数。
// ブルートフォース耐性とログインレイテンシのバランスで12に固定する。
const bcryptCost = 12

// HashPassword は平文パスワードの一方向ハッシュを生成する。
// ソルトはbcryptが内部で生成するため、同じ入力でも毎回異なるダイジェストになる。
func HashPassword(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword は平文パスワードとダイジェストを照合する。
// 比較はbcrypt自身の検証を使い、文字列の直接比較は行わない。
// 不一致は正常な否定結果でありエラーではないため、boolのみを返す。
// ダイジェストが不正な形式の場合もfalseを返す。
func VerifyPassword(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
