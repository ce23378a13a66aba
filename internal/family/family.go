// Package family описывает три независимых семейства аутентификации
// (admin, mentor, ambassador): имя cookie, срок жизни сессии, предварительный
// шаг с кодом доступа и адреса страниц. Одна таблица заменяет три копии
// одной и той же логики для каждой роли.
package family

import (
	"net/http"
	"time"

	"github.com/magabrotheeeer/community-portal/internal/config"
	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
)

// Family — параметры одного семейства ролей.
type Family struct {
	Role          jwt.Role
	CookieName    string
	TTL           time.Duration
	PreAuthCookie string // пусто, если шаг с кодом доступа не нужен
	PreAuthTTL    time.Duration
	SameSite      http.SameSite
	EntryPath     string
	LoginPath     string
	DashboardPath string
	APIPrefix     string
}

// Name возвращает имя семейства для логов и метрик.
func (f Family) Name() string {
	return string(f.Role)
}

// RequiresPreAuth сообщает, защищён ли вход семейства кодом доступа.
func (f Family) RequiresPreAuth() bool {
	return f.PreAuthCookie != ""
}

// SessionCookie собирает cookie сессии. Max-Age совпадает со сроком жизни токена.
func (f Family) SessionCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     f.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(f.TTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: f.SameSite,
	}
}

// PreAuthSessionCookie собирает короткоживущую cookie «код доступа подтверждён».
// token — подписанная отметка с scope pre_auth, выпущенная на PreAuthTTL.
func (f Family) PreAuthSessionCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     f.PreAuthCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(f.PreAuthTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookies возвращает cookie, которые стирают сессию семейства в браузере.
func (f Family) ExpiredCookies(secure bool) []*http.Cookie {
	names := []string{f.CookieName}
	if f.RequiresPreAuth() {
		names = append(names, f.PreAuthCookie)
	}
	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: f.SameSite,
		})
	}
	return cookies
}

// Set — все семейства приложения.
type Set struct {
	Admin      Family
	Mentor     Family
	Ambassador Family
}

// FromConfig строит таблицу семейств по конфигу.
func FromConfig(cfg config.JWTToken) Set {
	return Set{
		Admin: Family{
			Role:          jwt.RoleAdmin,
			CookieName:    "admin-token",
			TTL:           cfg.AdminTTL,
			PreAuthCookie: "admin-code-verified",
			PreAuthTTL:    cfg.PreAuthTTL,
			SameSite:      http.SameSiteLaxMode,
			EntryPath:     "/admin",
			LoginPath:     "/admin/login",
			DashboardPath: "/admin/dashboard",
			APIPrefix:     "/api/admin",
		},
		Mentor: Family{
			Role:          jwt.RoleMentor,
			CookieName:    "mentor-token",
			TTL:           cfg.MentorTTL,
			SameSite:      http.SameSiteDefaultMode,
			EntryPath:     "/mentor",
			LoginPath:     "/mentor/login",
			DashboardPath: "/mentor/dashboard",
			APIPrefix:     "/api/mentor",
		},
		Ambassador: Family{
			Role:          jwt.RoleAmbassador,
			CookieName:    "ambassador-token",
			TTL:           cfg.AmbassadorTTL,
			PreAuthCookie: "ambassador-access-verified",
			PreAuthTTL:    cfg.PreAuthTTL,
			SameSite:      http.SameSiteLaxMode,
			EntryPath:     "/ambassador",
			LoginPath:     "/ambassador/login",
			DashboardPath: "/ambassador/dashboard",
			APIPrefix:     "/api/ambassador",
		},
	}
}

// All возвращает семейства в фиксированном порядке.
func (s Set) All() []Family {
	return []Family{s.Admin, s.Mentor, s.Ambassador}
}

// ByRole ищет семейство по роли.
func (s Set) ByRole(role jwt.Role) (Family, bool) {
	for _, f := range s.All() {
		if f.Role == role {
			return f, true
		}
	}
	return Family{}, false
}
