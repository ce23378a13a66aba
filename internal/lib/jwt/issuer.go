package jwt

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	algHS256 = "HS256"
	typJWT   = "JWT"
)

// header — фиксированный заголовок токена, алгоритм не согласовывается.
type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// Option настраивает Issuer и Verifier.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock подменяет источник текущего времени (используется в тестах).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Issuer выпускает подписанные токены.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer создаёт Issuer на секретном ключе. Пустой ключ даёт ErrMissingSecret.
func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	o := buildOptions(opts)
	return &Issuer{
		secret: []byte(secret),
		now:    o.now,
	}, nil
}

// Issue выставляет iat = now, exp = iat + ttl и возвращает строку
// header.payload.signature.
//
// Переданные claims копируются: iat, exp и jti всегда перезаписываются.
func (i *Issuer) Issue(claims Claims, ttl time.Duration) (string, error) {
	const op = "jwt.Issue"
	if !claims.Role.Valid() {
		return "", fmt.Errorf("%s: %w: %q", op, ErrUnknownRole, claims.Role)
	}
	if ttl < time.Second {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidTTL)
	}

	issuedAt := i.now().Truncate(time.Second)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl.Truncate(time.Second))),
	}

	headerSeg, err := EncodeSegment(header{Alg: algHS256, Typ: typJWT})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	payloadSeg, err := EncodeSegment(claims)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	signingInput := headerSeg + "." + payloadSeg
	sig, err := ComputeSignature(i.secret, signingInput)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return strings.Join([]string{signingInput, new(jwt.Token).EncodeSegment(sig)}, "."), nil
}
