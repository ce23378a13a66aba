package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock — управляемые часы для проверки границ exp.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func mustIssuer(t *testing.T, secret string, opts ...Option) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(secret, opts...)
	require.NoError(t, err)
	return issuer
}

func mustVerifier(t *testing.T, secret string, opts ...Option) *Verifier {
	t.Helper()
	verifier, err := NewVerifier(secret, opts...)
	require.NoError(t, err)
	return verifier
}

func TestNewIssuer_MissingSecret(t *testing.T) {
	issuer, err := NewIssuer("")
	assert.ErrorIs(t, err, ErrMissingSecret)
	assert.Nil(t, issuer)

	verifier, err := NewVerifier("")
	assert.ErrorIs(t, err, ErrMissingSecret)
	assert.Nil(t, verifier)
}

func TestIssuer_Issue_RoundTrip(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	issuer := mustIssuer(t, "test_secret_key_1234567890", WithClock(clock.Now))

	tests := []struct {
		name   string
		claims Claims
		ttl    time.Duration
	}{
		{
			name:   "admin session",
			claims: NewAdminClaims("65f0c1a2b3c4d5e6f7a8b9c0", "admin_user"),
			ttl:    24 * time.Hour,
		},
		{
			name:   "mentor session",
			claims: NewMentorClaims("65f0c1a2b3c4d5e6f7a8b9c1"),
			ttl:    7 * 24 * time.Hour,
		},
		{
			name:   "ambassador session",
			claims: NewAmbassadorClaims("65f0c1a2b3c4d5e6f7a8b9c2", "user@domain.com"),
			ttl:    24 * time.Hour,
		},
		{
			name:   "short pre-auth ttl",
			claims: NewAmbassadorClaims("a1", "amb"),
			ttl:    5 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := issuer.Issue(tt.claims, tt.ttl)
			require.NoError(t, err)
			assert.Len(t, strings.Split(token, "."), 3)
			assert.True(t, strings.HasPrefix(token, "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9."))

			got, err := DecodeUnsafe(token)
			require.NoError(t, err)
			assert.Equal(t, tt.claims.UserID, got.UserID)
			assert.Equal(t, tt.claims.Role, got.Role)
			assert.Equal(t, tt.claims.Username, got.Username)
			assert.Equal(t, clock.Now().Unix(), got.IssuedAt.Unix())
			assert.Equal(t, clock.Now().Add(tt.ttl).Unix(), got.ExpiresAt.Unix())
			assert.Greater(t, got.ExpiresAt.Unix(), got.IssuedAt.Unix())
		})
	}
}

func TestIssuer_Issue_MentorTokenCarriesNoUsername(t *testing.T) {
	issuer := mustIssuer(t, "secret")

	token, err := issuer.Issue(NewMentorClaims("m1"), time.Hour)
	require.NoError(t, err)

	payload := strings.Split(token, ".")[1]
	var raw map[string]any
	require.NoError(t, DecodeSegment(payload, &raw))
	assert.NotContains(t, raw, "username")
	assert.Equal(t, "m1", raw["id"])
	assert.Equal(t, "mentor", raw["role"])
}

func TestIssuer_Issue_Rejects(t *testing.T) {
	issuer := mustIssuer(t, "secret")

	_, err := issuer.Issue(Claims{UserID: "u1", Role: "root"}, time.Hour)
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = issuer.Issue(Claims{UserID: "u1"}, time.Hour)
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = issuer.Issue(NewMentorClaims("u1"), 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)

	_, err = issuer.Issue(NewMentorClaims("u1"), 500*time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestIssuer_Issue_DifferentInstantsGiveDifferentTokens(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	issuer := mustIssuer(t, "secret", WithClock(clock.Now))
	verifier := mustVerifier(t, "secret", WithClock(clock.Now))

	claims := NewMentorClaims("u1")
	first, err := issuer.Issue(claims, time.Hour)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	second, err := issuer.Issue(claims, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, strings.Split(first, ".")[2], strings.Split(second, ".")[2])
	assert.True(t, verifier.Valid(first))
	assert.True(t, verifier.Valid(second))

	c1, err := DecodeUnsafe(first)
	require.NoError(t, err)
	c2, err := DecodeUnsafe(second)
	require.NoError(t, err)
	assert.Equal(t, c1.IssuedAt.Add(2*time.Second).Unix(), c2.IssuedAt.Unix())
}

func TestIssuer_Issue_SameInstantStillUnique(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	issuer := mustIssuer(t, "secret", WithClock(clock.Now))

	first, err := issuer.Issue(NewMentorClaims("u1"), time.Hour)
	require.NoError(t, err)
	second, err := issuer.Issue(NewMentorClaims("u1"), time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestClaimsFor(t *testing.T) {
	claims, err := ClaimsFor(RoleAdmin, "a1", "root")
	require.NoError(t, err)
	assert.Equal(t, NewAdminClaims("a1", "root"), claims)

	claims, err = ClaimsFor(RoleMentor, "m1", "ignored")
	require.NoError(t, err)
	assert.Equal(t, NewMentorClaims("m1"), claims)

	claims, err = ClaimsFor(RoleAmbassador, "b1", "amb")
	require.NoError(t, err)
	assert.Equal(t, NewAmbassadorClaims("b1", "amb"), claims)

	_, err = ClaimsFor("guest", "g1", "")
	assert.ErrorIs(t, err, ErrUnknownRole)
}
