// Package middlewarectx содержит HTTP middleware портала.
//
// Guard — единый параметризованный шлюз для всех семейств ролей. По таблице
// правил он классифицирует путь запроса, достаёт cookie нужного семейства,
// проверяет токен и либо пропускает запрос дальше, либо перенаправляет
// браузер, либо отвечает 401 для API. Guard не хранит состояния между
// запросами: всё, что он знает о сессии, лежит в cookie.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/community-portal/internal/family"
	"github.com/magabrotheeeer/community-portal/internal/http/response"
	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/community-portal/internal/lib/metrics"
	"github.com/magabrotheeeer/community-portal/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// ClaimsKey — ключ проверенных claims в контексте запроса.
const ClaimsKey Key = "claims"

// RouteKind — класс пути с точки зрения guard.
type RouteKind int

const (
	// Public — путь не входит ни в одно правило, запрос проходит без проверок.
	Public RouteKind = iota
	// PreAuthGate — входная страница семейства; с валидной сессией уводит на дашборд.
	PreAuthGate
	// LoginOnly — страница входа; доступна только после предварительного шага.
	LoginOnly
	// Protected — требует валидную сессию своего семейства.
	Protected
)

func (k RouteKind) String() string {
	switch k {
	case PreAuthGate:
		return "pre_auth_gate"
	case LoginOnly:
		return "login_only"
	case Protected:
		return "protected"
	}
	return "public"
}

// Rule связывает путь (точный или префикс) с семейством и классом.
type Rule struct {
	Family  family.Family
	Kind    RouteKind
	Path    string   // точное совпадение
	Prefix  string   // совпадение по префиксу, если Path пуст
	Exclude []string // точные пути, исключённые из префиксного правила
}

func (r Rule) matches(path string) bool {
	if r.Path != "" {
		return path == r.Path
	}
	if r.Prefix == "" || !strings.HasPrefix(path, r.Prefix) {
		return false
	}
	return !slices.Contains(r.Exclude, path)
}

// Публичные API-эндпоинты семейства: через них сессия и появляется.
const (
	LoginEndpoint      = "/login"
	VerifyCodeEndpoint = "/verify-code"
	LogoutEndpoint     = "/logout"
	CheckAuthEndpoint  = "/check-auth"
)

// DefaultRules строит таблицу правил для всех семейств.
// Точные правила идут раньше префиксных, первое совпадение побеждает.
func DefaultRules(families family.Set) []Rule {
	var rules []Rule
	for _, f := range families.All() {
		rules = append(rules,
			Rule{Family: f, Kind: PreAuthGate, Path: f.EntryPath},
			Rule{Family: f, Kind: LoginOnly, Path: f.LoginPath},
			Rule{Family: f, Kind: Protected, Prefix: f.EntryPath + "/", Exclude: []string{f.LoginPath}},
			Rule{Family: f, Kind: Protected, Prefix: f.APIPrefix + "/", Exclude: []string{
				f.APIPrefix + LoginEndpoint,
				f.APIPrefix + VerifyCodeEndpoint,
				f.APIPrefix + LogoutEndpoint,
				f.APIPrefix + CheckAuthEndpoint,
			}},
		)
	}
	return rules
}

// Classify возвращает первое правило, совпавшее с путём.
func Classify(rules []Rule, path string) (Rule, bool) {
	for _, rule := range rules {
		if rule.matches(path) {
			return rule, true
		}
	}
	return Rule{Kind: Public}, false
}

// TokenVerifier проверяет токены сессий и отметки о коде доступа.
type TokenVerifier interface {
	VerifyWithRole(token string, role jwt.Role) (*jwt.Claims, error)
	VerifyPreAuth(token string, role jwt.Role) (*jwt.Claims, error)
}

// Guard возвращает middleware, которое применяет таблицу правил к каждому запросу.
//
// Причина отказа (нет cookie, битая подпись, истёк срок, чужая роль) пишется
// только в лог; клиент во всех случаях получает одинаковый ответ.
func Guard(verifier TokenVerifier, rules []Rule, log *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := Classify(rules, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			const op = "middlewarectx.Guard"
			fam := rule.Family
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("path", r.URL.Path),
				slog.String("family", fam.Name()),
				slog.String("route", rule.Kind.String()),
			)

			switch rule.Kind {
			case PreAuthGate:
				if _, ok := session(r, fam, verifier); ok {
					log.Debug("session already active, redirecting to dashboard")
					m.GuardDecision(fam.Name(), metrics.DecisionRedirect)
					redirect(w, r, fam.DashboardPath)
					return
				}

			case LoginOnly:
				if err := CheckPreAuth(r, fam, verifier); err != nil {
					log.Info("access code is not verified, redirecting to entry", sl.Err(err))
					m.GuardDecision(fam.Name(), metrics.DecisionRedirect)
					redirect(w, r, fam.EntryPath)
					return
				}
				if _, ok := session(r, fam, verifier); ok {
					log.Debug("session already active, redirecting to dashboard")
					m.GuardDecision(fam.Name(), metrics.DecisionRedirect)
					redirect(w, r, fam.DashboardPath)
					return
				}

			case Protected:
				claims, err := verify(r, fam, verifier)
				if err != nil {
					log.Info("unauthorized request", sl.Err(err))
					deny(w, r, fam, m)
					return
				}
				r = r.WithContext(context.WithValue(r.Context(), ClaimsKey, claims))
			}

			m.GuardDecision(fam.Name(), metrics.DecisionAllow)
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext возвращает claims, положенные guard для защищённого маршрута.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims)
	return claims, ok && claims != nil
}

// SessionToken достаёт значение cookie сессии семейства.
func SessionToken(r *http.Request, fam family.Family) (string, bool) {
	c, err := r.Cookie(fam.CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func verify(r *http.Request, fam family.Family, verifier TokenVerifier) (*jwt.Claims, error) {
	token, ok := SessionToken(r, fam)
	if !ok {
		return nil, http.ErrNoCookie
	}
	return verifier.VerifyWithRole(token, fam.Role)
}

func session(r *http.Request, fam family.Family, verifier TokenVerifier) (*jwt.Claims, bool) {
	claims, err := verify(r, fam, verifier)
	return claims, err == nil
}

// CheckPreAuth проверяет подписанную отметку о введённом коде доступа.
// Для семейств без кода доступа всегда возвращает nil.
func CheckPreAuth(r *http.Request, fam family.Family, verifier TokenVerifier) error {
	if !fam.RequiresPreAuth() {
		return nil
	}
	c, err := r.Cookie(fam.PreAuthCookie)
	if err != nil {
		return err
	}
	_, err = verifier.VerifyPreAuth(c.Value, fam.Role)
	return err
}

func isAPI(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

func deny(w http.ResponseWriter, r *http.Request, fam family.Family, m *metrics.Metrics) {
	if isAPI(r.URL.Path) {
		m.GuardDecision(fam.Name(), metrics.DecisionReject)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	m.GuardDecision(fam.Name(), metrics.DecisionRedirect)
	redirect(w, r, fam.EntryPath)
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
