package jwt

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_Verify_ConcreteMentorScenario(t *testing.T) {
	issuer := mustIssuer(t, "s3cr3t")
	verifier := mustVerifier(t, "s3cr3t")

	token, err := issuer.Issue(Claims{UserID: "u1", Role: RoleMentor}, 604800*time.Second)
	require.NoError(t, err)

	assert.True(t, verifier.Valid(token))

	decoded, err := DecodeUnsafe(token)
	require.NoError(t, err)
	assert.Equal(t, RoleMentor, decoded.Role)
	assert.Equal(t, "u1", decoded.UserID)
	assert.Equal(t, int64(604800), decoded.ExpiresAt.Unix()-decoded.IssuedAt.Unix())
}

func TestVerifier_Verify_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	issuer := mustIssuer(t, secretKey)
	verifier := mustVerifier(t, secretKey)

	validToken, err := issuer.Issue(NewMentorClaims("u1"), 15*time.Minute)
	require.NoError(t, err)
	parts := strings.Split(validToken, ".")

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "empty token",
			token:   "",
			wantErr: ErrMalformedToken,
		},
		{
			name:    "not a token",
			token:   "not.a.token",
			wantErr: ErrMalformedToken,
		},
		{
			name:    "two segments",
			token:   parts[0] + "." + parts[1],
			wantErr: ErrMalformedToken,
		},
		{
			name:    "four segments",
			token:   validToken + ".extra",
			wantErr: ErrMalformedToken,
		},
		{
			name:    "empty signature segment",
			token:   parts[0] + "." + parts[1] + ".",
			wantErr: ErrMalformedToken,
		},
		{
			name:    "tampered token",
			token:   validToken + "tampered",
			wantErr: ErrMalformedToken,
		},
		{
			name:    "wrong secret key",
			token:   createTokenWithWrongSecret(t),
			wantErr: ErrSignatureMismatch,
		},
		{
			name:    "expired token",
			token:   createExpiredToken(t, secretKey),
			wantErr: ErrExpiredToken,
		},
		{
			name:    "payload swapped from another token",
			token:   parts[0] + "." + strings.Split(createTokenWithWrongSecret(t), ".")[1] + "." + parts[2],
			wantErr: ErrSignatureMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := verifier.Verify(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
			assert.False(t, verifier.Valid(tt.token))
		})
	}
}

func TestVerifier_Verify_TamperAnyByte(t *testing.T) {
	issuer := mustIssuer(t, "secret")
	verifier := mustVerifier(t, "secret")

	token, err := issuer.Issue(NewAmbassadorClaims("b1", "amb"), time.Hour)
	require.NoError(t, err)
	require.True(t, verifier.Valid(token))

	for i := range len(token) {
		if token[i] == '.' {
			continue
		}
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]
		assert.False(t, verifier.Valid(tampered), "byte %d flipped but token still valid", i)
	}
}

func TestVerifier_Verify_ExpiryBoundary(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	issuer := mustIssuer(t, "secret", WithClock(clock.Now))
	verifier := mustVerifier(t, "secret", WithClock(clock.Now))

	token, err := issuer.Issue(NewMentorClaims("u1"), time.Second)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.NoError(t, err)

	clock.Advance(999 * time.Millisecond)
	assert.True(t, verifier.Valid(token))

	clock.Advance(time.Millisecond)
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	clock.Advance(time.Hour)
	assert.False(t, verifier.Valid(token))
}

func TestVerifier_Verify_MissingExp(t *testing.T) {
	secret := "secret"
	verifier := mustVerifier(t, secret)

	headerSeg, err := EncodeSegment(header{Alg: algHS256, Typ: typJWT})
	require.NoError(t, err)
	payloadSeg, err := EncodeSegment(map[string]any{"id": "u1", "role": "mentor"})
	require.NoError(t, err)
	token := signRaw(t, secret, headerSeg, payloadSeg)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifier_Verify_IgnoresHeaderAlgorithm(t *testing.T) {
	secret := "secret"
	verifier := mustVerifier(t, secret)

	exp := time.Now().Add(time.Hour).Unix()
	payloadSeg, err := EncodeSegment(map[string]any{"id": "u1", "role": "admin", "exp": exp})
	require.NoError(t, err)

	noneHeader, err := EncodeSegment(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)

	// alg=none без подписи отклоняется как битый токен.
	_, err = verifier.Verify(noneHeader + "." + payloadSeg + ".")
	assert.ErrorIs(t, err, ErrMalformedToken)

	// alg=none с поддельной подписью отклоняется по подписи.
	_, err = verifier.Verify(noneHeader + "." + payloadSeg + ".c2lnbmF0dXJl")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifier_DifferentSecretKeys(t *testing.T) {
	issuer := mustIssuer(t, "first_secret_key")
	sameVerifier := mustVerifier(t, "first_secret_key")
	otherVerifier := mustVerifier(t, "different_secret_key")

	token, err := issuer.Issue(NewAdminClaims("a1", "admin"), 15*time.Minute)
	require.NoError(t, err)

	claims, err := otherVerifier.Verify(token)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Nil(t, claims)

	claims, err = sameVerifier.Verify(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
}

func TestVerifier_VerifyWithRole(t *testing.T) {
	issuer := mustIssuer(t, "secret")
	verifier := mustVerifier(t, "secret")

	mentorToken, err := issuer.Issue(NewMentorClaims("u1"), time.Hour)
	require.NoError(t, err)

	claims, err := verifier.VerifyWithRole(mentorToken, RoleMentor)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	for _, role := range []Role{RoleAmbassador, RoleAdmin} {
		claims, err = verifier.VerifyWithRole(mentorToken, role)
		assert.ErrorIs(t, err, ErrRoleMismatch)
		assert.Nil(t, claims)
	}

	_, err = verifier.VerifyWithRole("not.a.token", RoleMentor)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestVerifier_PreAuthAndSessionTokensDoNotMix(t *testing.T) {
	issuer := mustIssuer(t, "secret")
	verifier := mustVerifier(t, "secret")

	preAuth, err := issuer.Issue(NewPreAuthClaims(RoleAdmin), 5*time.Minute)
	require.NoError(t, err)
	session, err := issuer.Issue(NewAdminClaims("a1", "root"), time.Hour)
	require.NoError(t, err)

	claims, err := verifier.VerifyPreAuth(preAuth, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, ScopePreAuth, claims.Scope)

	_, err = verifier.VerifyWithRole(preAuth, RoleAdmin)
	assert.ErrorIs(t, err, ErrScopeMismatch)

	_, err = verifier.VerifyPreAuth(session, RoleAdmin)
	assert.ErrorIs(t, err, ErrScopeMismatch)

	_, err = verifier.VerifyPreAuth(preAuth, RoleAmbassador)
	assert.ErrorIs(t, err, ErrRoleMismatch)

	_, err = verifier.VerifyPreAuth("true", RoleAdmin)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestDecodeUnsafe_Malformed(t *testing.T) {
	for _, token := range []string{"", "abc", "a.b", "a.!!!.c", "a.b.c.d"} {
		claims, err := DecodeUnsafe(token)
		assert.ErrorIs(t, err, ErrMalformedToken, token)
		assert.Nil(t, claims)
	}
}

func TestVerifier_ConcurrentUse(t *testing.T) {
	issuer := mustIssuer(t, "secret")
	verifier := mustVerifier(t, "secret")

	token, err := issuer.Issue(NewMentorClaims("u1"), time.Hour)
	require.NoError(t, err)

	done := make(chan bool, 32)
	for range 32 {
		go func() {
			_, err := verifier.VerifyWithRole(token, RoleMentor)
			done <- err == nil
		}()
	}
	for range 32 {
		assert.True(t, <-done)
	}
}

func createExpiredToken(t *testing.T, secretKey string) string {
	t.Helper()
	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	issuer := mustIssuer(t, secretKey, WithClock(past))
	token, err := issuer.Issue(NewMentorClaims("u1"), time.Hour)
	require.NoError(t, err)
	return token
}

func createTokenWithWrongSecret(t *testing.T) string {
	t.Helper()
	issuer := mustIssuer(t, "wrong_secret_key")
	token, err := issuer.Issue(NewMentorClaims("intruder"), 15*time.Minute)
	require.NoError(t, err)
	return token
}

func signRaw(t *testing.T, secret, headerSeg, payloadSeg string) string {
	t.Helper()
	sig, err := ComputeSignature([]byte(secret), headerSeg+"."+payloadSeg)
	require.NoError(t, err)
	return headerSeg + "." + payloadSeg + "." + base64.RawURLEncoding.EncodeToString(sig)
}
