package jwt

import "errors"

var (
	// ErrMissingSecret возвращается конструкторами при пустом секрете.
	// Это ошибка развёртывания: процесс не должен стартовать без секрета.
	ErrMissingSecret = errors.New("jwt secret is not set")
	// ErrMalformedToken — неверное число сегментов, битый base64 или JSON.
	ErrMalformedToken = errors.New("malformed token")
	// ErrSignatureMismatch — подпись не совпала.
	ErrSignatureMismatch = errors.New("token signature mismatch")
	// ErrExpiredToken — exp отсутствует или уже наступил.
	ErrExpiredToken = errors.New("token expired")
	// ErrRoleMismatch — подпись верна, но роль в токене не та, что ожидалась.
	ErrRoleMismatch = errors.New("token role mismatch")
	// ErrScopeMismatch — токен выпущен для другой цели (сессия или код доступа).
	ErrScopeMismatch = errors.New("token scope mismatch")
	// ErrUnknownRole — роль не входит в набор admin/mentor/ambassador.
	ErrUnknownRole = errors.New("unknown role")
	// ErrInvalidTTL — время жизни меньше секунды, exp не был бы больше iat.
	ErrInvalidTTL = errors.New("token ttl must be at least one second")
)
