package logout

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/community-portal/internal/config"
	"github.com/magabrotheeeer/community-portal/internal/family"
	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Logout(_ context.Context, fam family.Family, claims *jwt.Claims) {
	m.Called(fam.Role, claims.UserID)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLogoutHandler(t *testing.T) {
	families := family.FromConfig(config.JWTToken{
		AdminTTL:      time.Hour,
		MentorTTL:     time.Hour,
		AmbassadorTTL: time.Hour,
		PreAuthTTL:    time.Minute,
	})
	issuer, err := jwt.NewIssuer("s3cr3t")
	require.NoError(t, err)
	verifier, err := jwt.NewVerifier("s3cr3t")
	require.NoError(t, err)

	adminToken, err := issuer.Issue(jwt.NewAdminClaims("a1", "root"), time.Hour)
	require.NoError(t, err)

	t.Run("valid session is logged and cleared", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("Logout", jwt.RoleAdmin, "a1").Once()

		req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
		req.AddCookie(&http.Cookie{Name: "admin-token", Value: adminToken})
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc, verifier, families.Admin, false).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 2)
		names := []string{cookies[0].Name, cookies[1].Name}
		assert.ElementsMatch(t, []string{"admin-token", "admin-code-verified"}, names)
		for _, c := range cookies {
			assert.Equal(t, -1, c.MaxAge)
			assert.Empty(t, c.Value)
		}
		svc.AssertExpectations(t)
	})

	t.Run("foreign token is not logged but cookie is cleared", func(t *testing.T) {
		svc := new(ServiceMock)

		req := httptest.NewRequest(http.MethodPost, "/api/mentor/logout", nil)
		req.AddCookie(&http.Cookie{Name: "mentor-token", Value: adminToken})
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc, verifier, families.Mentor, false).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "mentor-token", cookies[0].Name)
		svc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})

	t.Run("no cookie", func(t *testing.T) {
		svc := new(ServiceMock)
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc, verifier, families.Ambassador, false).
			ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ambassador/logout", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"redirect":"/ambassador"`)
		svc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})
}
