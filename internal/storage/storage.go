// Package storage содержит ошибки, общие для реализаций хранилища.
package storage

import "errors"

var (
	// ErrAccountNotFound учётная запись с таким логином не найдена.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists логин уже занят в коллекции роли.
	ErrAccountExists = errors.New("account already exists")
	// ErrUnknownCollection для роли не задана коллекция.
	ErrUnknownCollection = errors.New("no collection for role")
)
