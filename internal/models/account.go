// Package models содержит доменные модели портала: учётные записи
// семейств ролей и записи журнала действий.
package models

// Account учётная запись, от имени которой выдаётся сессия.
// Для наставников Username используется только как логин и в токен не попадает.
type Account struct {
	ID           string // Hex-представление ObjectID документа
	Username     string // Логин
	Name         string // Отображаемое имя
	PasswordHash string // bcrypt-хеш пароля
}
