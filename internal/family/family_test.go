package family

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/community-portal/internal/config"
	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
)

func testSet() Set {
	return FromConfig(config.JWTToken{
		AdminTTL:      24 * time.Hour,
		MentorTTL:     7 * 24 * time.Hour,
		AmbassadorTTL: 24 * time.Hour,
		PreAuthTTL:    5 * time.Minute,
	})
}

func TestFromConfig_CookieTable(t *testing.T) {
	set := testSet()

	tests := []struct {
		family        Family
		cookie        string
		preAuthCookie string
		ttl           time.Duration
		sameSite      http.SameSite
	}{
		{set.Admin, "admin-token", "admin-code-verified", 24 * time.Hour, http.SameSiteLaxMode},
		{set.Mentor, "mentor-token", "", 7 * 24 * time.Hour, http.SameSiteDefaultMode},
		{set.Ambassador, "ambassador-token", "ambassador-access-verified", 24 * time.Hour, http.SameSiteLaxMode},
	}

	for _, tt := range tests {
		t.Run(tt.family.Name(), func(t *testing.T) {
			assert.Equal(t, tt.cookie, tt.family.CookieName)
			assert.Equal(t, tt.preAuthCookie, tt.family.PreAuthCookie)
			assert.Equal(t, tt.preAuthCookie != "", tt.family.RequiresPreAuth())
			assert.Equal(t, tt.ttl, tt.family.TTL)

			c := tt.family.SessionCookie("tok", true)
			assert.Equal(t, tt.cookie, c.Name)
			assert.Equal(t, "tok", c.Value)
			assert.Equal(t, int(tt.ttl.Seconds()), c.MaxAge)
			assert.True(t, c.HttpOnly)
			assert.True(t, c.Secure)
			assert.Equal(t, "/", c.Path)
			assert.Equal(t, tt.sameSite, c.SameSite)
		})
	}
}

func TestFamily_PreAuthSessionCookie(t *testing.T) {
	c := testSet().Ambassador.PreAuthSessionCookie("pre-auth-token", false)

	assert.Equal(t, "ambassador-access-verified", c.Name)
	assert.Equal(t, "pre-auth-token", c.Value)
	assert.Equal(t, 300, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestFamily_ExpiredCookies(t *testing.T) {
	set := testSet()

	admin := set.Admin.ExpiredCookies(false)
	require.Len(t, admin, 2)
	assert.Equal(t, "admin-token", admin[0].Name)
	assert.Equal(t, "admin-code-verified", admin[1].Name)
	for _, c := range admin {
		assert.Equal(t, -1, c.MaxAge)
		assert.Empty(t, c.Value)
	}

	mentor := set.Mentor.ExpiredCookies(false)
	require.Len(t, mentor, 1)
	assert.Equal(t, "mentor-token", mentor[0].Name)
}

func TestSet_ByRole(t *testing.T) {
	set := testSet()

	f, ok := set.ByRole(jwt.RoleMentor)
	require.True(t, ok)
	assert.Equal(t, "/mentor/dashboard", f.DashboardPath)

	_, ok = set.ByRole("guest")
	assert.False(t, ok)

	assert.Len(t, set.All(), 3)
}
