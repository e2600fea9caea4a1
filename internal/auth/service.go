package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/minisns/internal/model"
	"github.com/hitoshi/minisns/internal/repository"
)

// minPasswordLength は登録時のパスワード最小長。
const minPasswordLength = 8

// LoginResult はログイン処理の結果を表す。
// 既存セッションが有効だった場合、Tokenは空でNeedsUsernameはnilになる。
type LoginResult struct {
	Message          string
	Token            string
	UserID           string
	ExpiresInSeconds int
	NeedsUsername    *bool
}

// Service は登録・ログインのビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	issuer   *TokenIssuer
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, issuer *TokenIssuer) *Service {
	return &Service{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// Register は新規ユーザーを登録する。
// 検証はストレージアクセスより先にすべて実行する。
// 重複チェックはemail→usernameの順で行い、両方が衝突していても
// email競合を先に報告する。
func (s *Service) Register(ctx context.Context, email, password, username string) (*model.User, error) {
	if email == "" || password == "" || username == "" {
		return nil, model.NewMissingFieldsError("email, password y username requeridos")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.ToLower(strings.TrimSpace(username))

	if !model.UsernameRe.MatchString(username) {
		return nil, model.NewInvalidUsernameError()
	}
	if len(password) < minPasswordLength {
		return nil, model.NewPasswordTooShortError()
	}

	emailTaken, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if emailTaken {
		return nil, model.NewEmailInUseError()
	}

	usernameTaken, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if usernameTaken {
		return nil, model.NewUsernameInUseError()
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 存在チェックとINSERTは別操作なので、同時リクエストでは両方が
		// チェックを通過し得る。ストレージ層の一意制約違反を競合として報告する。
		if repository.IsUniqueViolation(err, repository.UserEmailConstraint) {
			return nil, model.NewEmailInUseError()
		}
		if repository.IsUniqueViolation(err, repository.UserUsernameConstraint) {
			return nil, model.NewUsernameInUseError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login はログイン処理を実行する。
//
// まず提示されたBearerトークンを既存セッションとして検証する。有効なら
// 新しいトークンは発行せず、残り有効秒数のみを報告する（有効なセッションの
// 下でのログインは冪等）。トークンが無い・無効・期限切れの場合にのみ
// 資格情報による認証と新規発行に進む。
//
// emailが存在しない場合とパスワード不一致の場合は同一のエラーを返す。
func (s *Service) Login(ctx context.Context, bearerToken, email, password string) (*LoginResult, error) {
	if bearerToken != "" {
		if claims, err := s.issuer.Verify(bearerToken); err == nil {
			return &LoginResult{
				Message:          "Ya iniciaste sesión. Tu token sigue siendo válido.",
				UserID:           claims.SubjectID,
				ExpiresInSeconds: SecondsRemaining(claims.ExpiresAt),
			}, nil
		}
		// 無効・期限切れトークンは通常ログインにフォールバックする
	}

	if email == "" || password == "" {
		return nil, model.NewMissingFieldsError("credenciales requeridas")
	}
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	needsUsername := user.NeedsUsername()
	message := "Inicio de sesión exitoso."
	if needsUsername {
		message = "Inicio de sesión exitoso. Debes crear tu username con PATCH /users/me/username."
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.Bool("needs_username", needsUsername),
	)

	return &LoginResult{
		Message:          message,
		Token:            token,
		UserID:           user.ID,
		ExpiresInSeconds: int(TokenTTL.Seconds()),
		NeedsUsername:    &needsUsername,
	}, nil
}
