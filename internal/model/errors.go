// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントが分岐に使う機械可読コードと、表示用メッセージを含む。
// メッセージはプロダクト仕様によりスペイン語。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, user, follow, post, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingFields      = "MISSING_FIELDS"
	ErrCodeInvalidUsername    = "INVALID_USERNAME"
	ErrCodeUsernameFormat     = "USERNAME_FORMAT"
	ErrCodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	ErrCodeEmailInUse         = "EMAIL_IN_USE"
	ErrCodeUsernameInUse      = "USERNAME_IN_USE"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeInvalidContent     = "INVALID_CONTENT"
	ErrCodeFollowSelf         = "FOLLOW_SELF"
	ErrCodeTargetNotFound     = "TARGET_NOT_FOUND"
	ErrCodeAlreadyFollowing   = "ALREADY_FOLLOWING"
	ErrCodeNotFollowing       = "NOT_FOLLOWING"
)

// フォロー・削除操作の成功コード。okフラグ付きレスポンスで使用する。
const (
	CodeFollowCreated = "FOLLOW_CREATED"
	CodeFollowDeleted = "FOLLOW_DELETED"
	CodeUserDeleted   = "USER_DELETED"
)

// NewMissingFieldsError は必須フィールド欠落エラーを生成する。
// messageは呼び出し元の文脈に応じた文言（例: "credenciales requeridas"）。
func NewMissingFieldsError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  message,
		Category: "validation",
		Action:   "Completa todos los campos requeridos.",
	}
}

// NewInvalidUsernameError はusername形式エラーを生成する。
func NewInvalidUsernameError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUsername,
		Message:  "username inválido (solo letras y números, 3..30)",
		Category: "validation",
		Action:   "Usa solo letras minúsculas y números, entre 3 y 30 caracteres.",
	}
}

// NewUsernameFormatError はストレージ層のCHECK制約違反に対応するエラーを生成する。
func NewUsernameFormatError() *APIError {
	return &APIError{
		Code:     ErrCodeUsernameFormat,
		Message:  "username no cumple formato",
		Category: "validation",
		Action:   "Usa solo letras minúsculas y números, entre 3 y 30 caracteres.",
	}
}

// NewPasswordTooShortError はパスワード長エラーを生成する。
func NewPasswordTooShortError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooShort,
		Message:  "password mínimo 8 caracteres",
		Category: "validation",
		Action:   "Elige una contraseña de al menos 8 caracteres.",
	}
}

// NewEmailInUseError はemail重複エラーを生成する。
func NewEmailInUseError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailInUse,
		Message:  "email ya en uso",
		Category: "validation",
		Action:   "Usa otro email o inicia sesión con el existente.",
	}
}

// NewUsernameInUseError はusername重複エラーを生成する。
func NewUsernameInUseError() *APIError {
	return &APIError{
		Code:     ErrCodeUsernameInUse,
		Message:  "username ya en uso",
		Category: "validation",
		Action:   "Elige otro username.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// 「emailが存在しない」と「パスワード不一致」を区別しない共通エラー。
// アカウント列挙攻撃を防ぐため、両方で同一のレスポンスを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "credenciales inválidas",
		Category: "auth",
		Action:   "Verifica tu email y contraseña.",
	}
}

// NewUnauthorizedError はトークン欠落・無効・期限切れのエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "token inválido o expirado",
		Category: "auth",
		Action:   "Inicia sesión de nuevo con POST /auth/login.",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "Usuario no encontrado",
		Category: "user",
		Action:   "Verifica el identificador del usuario.",
	}
}

// NewInvalidContentError は投稿content長エラーを生成する。
func NewInvalidContentError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidContent,
		Message:  "content 1..280 requerido",
		Category: "validation",
		Action:   "El contenido debe tener entre 1 y 280 caracteres.",
	}
}

// NewSelfFollowError は自己フォローエラーを生成する。
func NewSelfFollowError() *APIError {
	return &APIError{
		Code:     ErrCodeFollowSelf,
		Message:  "No puedes seguirte a ti mismo",
		Category: "follow",
		Action:   "Elige otro usuario para seguir.",
	}
}

// NewTargetNotFoundError はフォロー対象未検出エラーを生成する。
func NewTargetNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTargetNotFound,
		Message:  "Usuario a seguir no existe",
		Category: "follow",
		Action:   "Verifica el id o username del usuario destino.",
	}
}

// NewUnfollowTargetMissingError はアンフォロー時の対象未検出エラーを生成する。
// フォロー時と異なり「エッジが存在し得ない」という状態矛盾として扱うため、
// 呼び出し元は409で応答する。
func NewUnfollowTargetMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeTargetNotFound,
		Message:  "No se puede dejar de seguir: el usuario destino no existe.",
		Category: "follow",
		Action:   "Verifica el id o username del usuario destino.",
	}
}

// NewAlreadyFollowingError はフォロー済みエラーを生成する。
// メッセージには解決済みのusernameとidを埋め込む。
func NewAlreadyFollowingError(username, id string) *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyFollowing,
		Message:  fmt.Sprintf("Ya sigues a %s (%s).", username, id),
		Category: "follow",
		Action:   "Ya sigues a este usuario, no es necesario repetir la acción.",
	}
}

// NewNotFollowingError は未フォローエラーを生成する。
func NewNotFollowingError(username, id string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFollowing,
		Message:  fmt.Sprintf("No puedes dejar de seguir: no sigues a %s (%s).", username, id),
		Category: "follow",
		Action:   "No sigues a este usuario.",
	}
}
