// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は投稿contentをサニタイズし、埋め込まれた
// HTMLタグ・スクリプトを除去する。投稿はプレーンテキストのみを想定
// しているため、bluemondayのStrictPolicy（全タグ除去）を使用する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は投稿contentのサニタイズ機能のインターフェースを定義する。
// 投稿の保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力からHTMLタグをすべて除去し、前後の空白を取り除いた
	// プレーンテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを持たないため、すべてのHTML要素が除去される。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は投稿contentからHTMLタグを除去する。
func (s *contentSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// compile-time interface check
var _ ContentSanitizerService = (*contentSanitizer)(nil)
