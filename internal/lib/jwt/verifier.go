package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier проверяет подлинность и срок действия токенов.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier создаёт Verifier на секретном ключе. Пустой ключ даёт ErrMissingSecret.
func NewVerifier(secret string, opts ...Option) (*Verifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	o := buildOptions(opts)
	return &Verifier{
		secret: []byte(secret),
		now:    o.now,
	}, nil
}

// Verify проверяет подпись и exp, после чего возвращает claims.
//
// Поле alg из заголовка не читается: подпись всегда пересчитывается как
// HMAC-SHA256 и сравнивается за постоянное время. Возвращаемые ошибки
// оборачивают ErrMalformedToken, ErrSignatureMismatch или ErrExpiredToken.
func (v *Verifier) Verify(token string) (*Claims, error) {
	const op = "jwt.Verify"

	headerSeg, payloadSeg, sigSeg, err := split(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sig, err := decodeRaw(sigSeg)
	if err != nil {
		return nil, fmt.Errorf("%s: signature: %w", op, err)
	}
	err = jwt.SigningMethodHS256.Verify(headerSeg+"."+payloadSeg, sig, v.secret)
	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, fmt.Errorf("%s: %w", op, ErrSignatureMismatch)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrSignatureMismatch, err)
	}

	// Дальше данные уже подписаны нашим ключом.
	var h header
	if err := DecodeSegment(headerSeg, &h); err != nil {
		return nil, fmt.Errorf("%s: header: %w", op, err)
	}
	var claims Claims
	if err := DecodeSegment(payloadSeg, &claims); err != nil {
		return nil, fmt.Errorf("%s: payload: %w", op, err)
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%s: %w: exp is missing", op, ErrExpiredToken)
	}
	if !claims.ExpiresAt.After(v.now()) {
		return nil, fmt.Errorf("%s: %w", op, ErrExpiredToken)
	}
	return &claims, nil
}

// Valid — булева форма Verify.
func (v *Verifier) Valid(token string) bool {
	_, err := v.Verify(token)
	return err == nil
}

// VerifyWithRole проверяет токен сессии: роль должна совпадать с role,
// а токены с непустым scope отклоняются с ErrScopeMismatch.
func (v *Verifier) VerifyWithRole(token string, role Role) (*Claims, error) {
	const op = "jwt.VerifyWithRole"
	claims, err := v.verifyRole(token, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.Scope != "" {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrScopeMismatch, claims.Scope)
	}
	return claims, nil
}

// VerifyPreAuth проверяет отметку о введённом коде доступа семейства role.
func (v *Verifier) VerifyPreAuth(token string, role Role) (*Claims, error) {
	const op = "jwt.VerifyPreAuth"
	claims, err := v.verifyRole(token, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.Scope != ScopePreAuth {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrScopeMismatch, claims.Scope)
	}
	return claims, nil
}

func (v *Verifier) verifyRole(token string, role Role) (*Claims, error) {
	claims, err := v.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Role != role {
		return nil, fmt.Errorf("%w: want %q, got %q", ErrRoleMismatch, role, claims.Role)
	}
	return claims, nil
}

// DecodeUnsafe извлекает claims БЕЗ проверки подписи.
//
// Годится только для токена, который уже прошёл Verify. Принимать по нему
// решения об авторизации нельзя.
func DecodeUnsafe(token string) (*Claims, error) {
	const op = "jwt.DecodeUnsafe"
	_, payloadSeg, _, err := split(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var claims Claims
	if err := DecodeSegment(payloadSeg, &claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &claims, nil
}

func split(token string) (headerSeg, payloadSeg, sigSeg string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return "", "", "", fmt.Errorf("%w: empty segment", ErrMalformedToken)
		}
	}
	return parts[0], parts[1], parts[2], nil
}
