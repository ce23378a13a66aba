// Package pages отдаёт минимальные серверные страницы семейств: вход,
// форму логина и дашборд. Каждая защищённая guard страница имеет
// обработчик, который видит проверенные claims.
package pages

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/community-portal/internal/family"
	"github.com/magabrotheeeer/community-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/community-portal/internal/lib/sl"
)

// Kind — вид страницы семейства.
type Kind string

const (
	// Entry — входная страница; у admin и ambassador на ней форма кода доступа.
	Entry Kind = "entry"
	// Login — форма логина и пароля.
	Login Kind = "login"
	// Dashboard — дашборд с именем вошедшего пользователя и кнопкой выхода.
	Dashboard Kind = "dashboard"
)

var layout = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="ru">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{- if eq .Kind "entry"}}
{{- if .PreAuth}}
<form data-endpoint="{{.APIPrefix}}/verify-code" data-next="{{.LoginPath}}">
<input type="password" name="code" placeholder="Access code" required>
<button type="submit">Continue</button>
</form>
{{- else}}
<a href="{{.LoginPath}}">Sign in</a>
{{- end}}
{{- else if eq .Kind "login"}}
<form data-endpoint="{{.APIPrefix}}/login" data-next="{{.DashboardPath}}">
<input type="text" name="username" placeholder="Username" required>
<input type="password" name="password" placeholder="Password" required>
<button type="submit">Sign in</button>
</form>
{{- else}}
<p>Signed in as {{if .Username}}{{.Username}}{{else}}{{.AccountID}}{{end}}</p>
<form data-endpoint="{{.APIPrefix}}/logout" data-next="{{.EntryPath}}"><button type="submit">Sign out</button></form>
{{- end}}
</body>
</html>
`))

type view struct {
	Title         string
	Kind          Kind
	PreAuth       bool
	APIPrefix     string
	EntryPath     string
	LoginPath     string
	DashboardPath string
	Username      string
	AccountID     string
}

// Handler рисует страницу одного вида для одного семейства.
type Handler struct {
	log  *slog.Logger
	fam  family.Family
	kind Kind
}

// New создаёт Handler.
func New(log *slog.Logger, fam family.Family, kind Kind) *Handler {
	return &Handler{log: log, fam: fam, kind: kind}
}

// ServeHTTP отдаёт HTML-страницу. Доступ к ней уже решил guard; на дашборде
// имя пользователя берётся из claims, которые guard положил в контекст.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pages"

	v := view{
		Title:         h.fam.Name() + " " + string(h.kind),
		Kind:          h.kind,
		PreAuth:       h.fam.RequiresPreAuth(),
		APIPrefix:     h.fam.APIPrefix,
		EntryPath:     h.fam.EntryPath,
		LoginPath:     h.fam.LoginPath,
		DashboardPath: h.fam.DashboardPath,
	}
	if claims, ok := middlewarectx.ClaimsFromContext(r.Context()); ok {
		v.Username = claims.Username
		v.AccountID = claims.UserID
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := layout.Execute(w, v); err != nil {
		h.log.Error("failed to render page",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
	}
}
