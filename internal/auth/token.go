package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL はセッショントークンの有効期間。発行から5分で固定。
const TokenTTL = 5 * time.Minute

// bearerPrefix はAuthorizationヘッダーのスキーム。
// 大文字小文字を区別し、スペースは1つのみ許容する。
const bearerPrefix = "Bearer "

// ErrInvalidToken は署名不正・形式不正・期限切れのトークンを示す。
// 3つの原因は呼び出し元で区別しない（いずれも再ログインが必要）。
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenClaims は検証済みトークンから取り出した主張を表す。
type TokenClaims struct {
	SubjectID string
	ExpiresAt time.Time
}

// TokenIssuer は署名付きセッショントークンの発行と検証を行う。
// 署名鍵は起動時に注入し、ハンドラー内で環境変数を読むことはしない。
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer はTokenIssuerを生成する。
// secretの存在確認はconfig.Loadが起動時に行う。
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue はsubjectIDを主体とするHS256署名トークンを発行する。
// 有効期限は発行時刻からTokenTTL後。
func (i *TokenIssuer) Issue(subjectID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify はトークンを検証し、主体IDと有効期限を返す。
// 署名不正・形式不正・期限切れのいずれでもErrInvalidTokenを返す。
// クロックスキューの猶予は設けない。
func (i *TokenIssuer) Verify(tokenString string) (*TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		SubjectID: claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SecondsRemaining は有効期限までの残り秒数を返す。負にはならない。
func SecondsRemaining(expiresAt time.Time) int {
	remaining := int(time.Until(expiresAt).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// BearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// ヘッダーが "Bearer " で始まる場合のみトークンありとみなす。
// ヘッダー欠落や別スキームは「トークンなし」であり、エラーではない。
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, bearerPrefix) {
		return ""
	}
	return h[len(bearerPrefix):]
}
