package jwt

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// segmentParser используется только для строгого base64url-декодирования сегментов.
var segmentParser = jwt.NewParser(jwt.WithStrictDecoding())

// EncodeSegment сериализует значение в JSON и кодирует его в base64url без паддинга.
func EncodeSegment(value any) (string, error) {
	const op = "jwt.EncodeSegment"
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return new(jwt.Token).EncodeSegment(raw), nil
}

// DecodeSegment — обратная операция к EncodeSegment.
//
// Любая ошибка base64 или JSON оборачивает ErrMalformedToken; значения по
// умолчанию вместо битых данных не подставляются.
func DecodeSegment(segment string, dst any) error {
	const op = "jwt.DecodeSegment"
	raw, err := decodeRaw(segment)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrMalformedToken, err)
	}
	return nil
}

// ComputeSignature считает HMAC-SHA256 от UTF-8 байтов message на ключе secret.
// Для одной и той же пары (secret, message) результат всегда одинаков.
func ComputeSignature(secret []byte, message string) ([]byte, error) {
	const op = "jwt.ComputeSignature"
	sig, err := jwt.SigningMethodHS256.Sign(message, secret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sig, nil
}

func decodeRaw(segment string) ([]byte, error) {
	if segment == "" {
		return nil, fmt.Errorf("%w: empty segment", ErrMalformedToken)
	}
	raw, err := segmentParser.DecodeSegment(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	return raw, nil
}
