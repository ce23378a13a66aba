// Package jwt реализует выпуск и проверку компактных токенов HS256,
// которыми подписываются сессии администраторов, менторов и амбассадоров.
//
// Issuer создаёт токен для набора claims, Verifier проверяет подпись и срок
// действия. Алгоритм зафиксирован (HS256) и никогда не читается из токена.
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role — роль, к которой привязан токен.
type Role string

const (
	// RoleAdmin — администратор портала.
	RoleAdmin Role = "admin"
	// RoleMentor — ментор.
	RoleMentor Role = "mentor"
	// RoleAmbassador — амбассадор.
	RoleAmbassador Role = "ambassador"
)

// Valid сообщает, входит ли роль в закрытый набор известных ролей.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMentor, RoleAmbassador:
		return true
	}
	return false
}

// Claims описывает полезную нагрузку токена.
//
// iat и exp выставляет только Issuer, значения из запроса клиента не принимаются.
type Claims struct {
	UserID   string `json:"id"`                 // Идентификатор документа в хранилище
	Role     Role   `json:"role,omitempty"`     // Роль семейства, выпустившего токен
	Username string `json:"username,omitempty"` // Имя пользователя для журнала действий
	Scope    string `json:"scope,omitempty"`    // Пусто у сессий, ScopePreAuth у отметки кода доступа
	jwt.RegisteredClaims
}

// ScopePreAuth помечает токен, подтверждающий введённый код доступа.
// Такой токен не открывает сессию.
const ScopePreAuth = "pre_auth"

// NewPreAuthClaims собирает claims отметки о проверенном коде доступа семейства role.
func NewPreAuthClaims(role Role) Claims {
	return Claims{Role: role, Scope: ScopePreAuth}
}

// NewAdminClaims собирает claims для сессии администратора.
func NewAdminClaims(id, username string) Claims {
	return Claims{UserID: id, Role: RoleAdmin, Username: username}
}

// NewMentorClaims собирает claims для сессии ментора. Имя пользователя в токен ментора не попадает.
func NewMentorClaims(id string) Claims {
	return Claims{UserID: id, Role: RoleMentor}
}

// NewAmbassadorClaims собирает claims для сессии амбассадора.
func NewAmbassadorClaims(id, username string) Claims {
	return Claims{UserID: id, Role: RoleAmbassador, Username: username}
}

// ClaimsFor выбирает конструктор по роли семейства.
func ClaimsFor(role Role, id, username string) (Claims, error) {
	switch role {
	case RoleAdmin:
		return NewAdminClaims(id, username), nil
	case RoleMentor:
		return NewMentorClaims(id), nil
	case RoleAmbassador:
		return NewAmbassadorClaims(id, username), nil
	}
	return Claims{}, ErrUnknownRole
}
