// Package services содержит бизнес-логику входа в портал: проверку учётных
// данных и кодов доступа, защиту от подбора пароля и журнал действий.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/community-portal/internal/config"
	"github.com/magabrotheeeer/community-portal/internal/family"
	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/community-portal/internal/lib/metrics"
	"github.com/magabrotheeeer/community-portal/internal/lib/password"
	"github.com/magabrotheeeer/community-portal/internal/lib/sl"
	"github.com/magabrotheeeer/community-portal/internal/models"
	"github.com/magabrotheeeer/community-portal/internal/storage"
)

var (
	// ErrInvalidCredentials неизвестный логин или неверный пароль. Клиенту эти случаи не различаются.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidAccessCode код доступа не совпал или для семейства не задан.
	ErrInvalidAccessCode = errors.New("invalid access code")
	// ErrTooManyAttempts превышен лимит неудачных попыток входа.
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// AccountRepository описывает хранилище учётных записей и журнала действий.
type AccountRepository interface {
	GetAccountByUsername(ctx context.Context, role jwt.Role, username string) (*models.Account, error)
	GetAccountByID(ctx context.Context, role jwt.Role, id string) (*models.Account, error)
	CreateAccount(ctx context.Context, role jwt.Role, account models.Account) (string, error)
	LogActivity(ctx context.Context, activity models.Activity) error
	ListActivity(ctx context.Context, limit int) ([]models.Activity, error)
}

// AttemptTracker считает неудачные попытки входа.
type AttemptTracker interface {
	Failures(ctx context.Context, key string) (int64, error)
	RegisterFailure(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

// TokenIssuer выпускает токены сессий и отметки о коде доступа.
type TokenIssuer interface {
	Issue(claims jwt.Claims, ttl time.Duration) (string, error)
}

// AuthService отвечает за вход, выход и коды доступа всех семейств.
type AuthService struct {
	log      *slog.Logger
	accounts AccountRepository
	attempts AttemptTracker
	issuer   TokenIssuer
	codes    config.AccessCodes
	throttle config.LoginThrottle
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewAuthService создаёт AuthService. attempts и m могут быть nil.
func NewAuthService(
	log *slog.Logger,
	accounts AccountRepository,
	attempts AttemptTracker,
	issuer TokenIssuer,
	codes config.AccessCodes,
	throttle config.LoginThrottle,
	m *metrics.Metrics,
) *AuthService {
	return &AuthService{
		log:      log,
		accounts: accounts,
		attempts: attempts,
		issuer:   issuer,
		codes:    codes,
		throttle: throttle,
		metrics:  m,
		now:      time.Now,
	}
}

func throttleKey(fam family.Family, username string) string {
	return fam.Name() + ":" + username
}

// Login проверяет логин и пароль в коллекции семейства и выпускает токен сессии.
//
// Срок жизни токена равен сроку жизни cookie семейства.
func (s *AuthService) Login(ctx context.Context, fam family.Family, username, rawPassword string) (string, error) {
	const op = "services.auth.Login"
	log := s.log.With(slog.String("op", op), slog.String("family", fam.Name()))
	key := throttleKey(fam, username)

	if s.attempts != nil {
		n, err := s.attempts.Failures(ctx, key)
		if err != nil {
			// Недоступный redis не должен блокировать вход.
			log.Warn("failed to read login failures", sl.Err(err))
		} else if s.throttle.MaxAttempts > 0 && n >= int64(s.throttle.MaxAttempts) {
			s.metrics.LoginAttempt(fam.Name(), metrics.LoginThrottled)
			return "", fmt.Errorf("%s: %w", op, ErrTooManyAttempts)
		}
	}

	account, err := s.accounts.GetAccountByUsername(ctx, fam.Role, username)
	if errors.Is(err, storage.ErrAccountNotFound) {
		s.registerFailure(ctx, log, fam, key)
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		s.metrics.LoginAttempt(fam.Name(), metrics.LoginError)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(account.PasswordHash, rawPassword); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			log.Error("stored password hash is broken", slog.String("account_id", account.ID), sl.Err(err))
		}
		s.registerFailure(ctx, log, fam, key)
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	claims, err := jwt.ClaimsFor(fam.Role, account.ID, account.Username)
	if err != nil {
		s.metrics.LoginAttempt(fam.Name(), metrics.LoginError)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	token, err := s.issuer.Issue(claims, fam.TTL)
	if err != nil {
		s.metrics.LoginAttempt(fam.Name(), metrics.LoginError)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.logActivity(ctx, log, models.Activity{
		Action:    models.ActionLogin,
		Role:      fam.Name(),
		Username:  account.Username,
		AccountID: account.ID,
	})
	if s.attempts != nil {
		if err := s.attempts.Reset(ctx, key); err != nil {
			log.Warn("failed to reset login failures", sl.Err(err))
		}
	}

	s.metrics.LoginAttempt(fam.Name(), metrics.LoginSuccess)
	return token, nil
}

func (s *AuthService) registerFailure(ctx context.Context, log *slog.Logger, fam family.Family, key string) {
	s.metrics.LoginAttempt(fam.Name(), metrics.LoginInvalid)
	if s.attempts == nil {
		return
	}
	if _, err := s.attempts.RegisterFailure(ctx, key, s.throttle.Window); err != nil {
		log.Warn("failed to register login failure", sl.Err(err))
	}
}

// VerifyAccessCode сравнивает код доступа семейства за постоянное время и при
// совпадении выпускает отметку с scope pre_auth на PreAuthTTL семейства.
func (s *AuthService) VerifyAccessCode(fam family.Family, code string) (string, error) {
	const op = "services.auth.VerifyAccessCode"

	var expected string
	switch fam.Role {
	case jwt.RoleAdmin:
		expected = s.codes.AdminAccessCode
	case jwt.RoleAmbassador:
		expected = s.codes.AmbassadorAccessCode
	}
	if !fam.RequiresPreAuth() || expected == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidAccessCode)
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(expected)) != 1 {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidAccessCode)
	}

	token, err := s.issuer.Issue(jwt.NewPreAuthClaims(fam.Role), fam.PreAuthTTL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// Logout записывает выход в журнал. Без проверенных claims ничего не делает.
//
// В токене ментора нет имени пользователя, его достаём из хранилища,
// чтобы запись о выходе совпадала с записью о входе.
func (s *AuthService) Logout(ctx context.Context, fam family.Family, claims *jwt.Claims) {
	if claims == nil {
		return
	}
	const op = "services.auth.Logout"
	log := s.log.With(slog.String("op", op), slog.String("family", fam.Name()))

	username := claims.Username
	if username == "" {
		account, err := s.accounts.GetAccountByID(ctx, fam.Role, claims.UserID)
		if err != nil {
			log.Warn("failed to resolve username for logout", slog.String("account_id", claims.UserID), sl.Err(err))
		} else {
			username = account.Username
		}
	}

	s.logActivity(ctx, log, models.Activity{
		Action:    models.ActionLogout,
		Role:      fam.Name(),
		Username:  username,
		AccountID: claims.UserID,
	})
}

// Register создаёт учётные данные для входа в семейство role.
func (s *AuthService) Register(ctx context.Context, role jwt.Role, username, name, rawPassword string) (string, error) {
	const op = "services.auth.Register"
	if !role.Valid() {
		return "", fmt.Errorf("%s: %w", op, jwt.ErrUnknownRole)
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.accounts.CreateAccount(ctx, role, models.Account{
		Username:     username,
		Name:         name,
		PasswordHash: hashed,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ActivityLog возвращает последние записи журнала действий.
func (s *AuthService) ActivityLog(ctx context.Context, limit int) ([]models.Activity, error) {
	const op = "services.auth.ActivityLog"
	logs, err := s.accounts.ListActivity(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return logs, nil
}

func (s *AuthService) logActivity(ctx context.Context, log *slog.Logger, activity models.Activity) {
	activity.Timestamp = s.now().UTC()
	if err := s.accounts.LogActivity(ctx, activity); err != nil {
		log.Warn("failed to write activity log", sl.Err(err))
	}
}
