// Package migrations создаёт индексы MongoDB, на которые опирается хранилище:
// уникальный логин в каждой коллекции учётных записей и сортировку журнала.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/magabrotheeeer/community-portal/internal/config"
)

//go:embed mongo/*.json
var files embed.FS

// Run применяет все миграции. Повторный запуск ничего не меняет.
func Run(cfg config.Mongo) error {
	const op = "migrations.Run"

	dsn, err := DatabaseURL(cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	src, err := iofs.New(files, "mongo")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DatabaseURL переносит имя базы в путь URI: так его ждёт драйвер миграций.
// Если в URI есть пользователь, но нет authSource, аутентификация остаётся в admin.
func DatabaseURL(cfg config.Mongo) (string, error) {
	u, err := url.Parse(cfg.MongoURI)
	if err != nil {
		return "", err
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if cfg.MongoDatabase == "" {
		return "", errors.New("database name is empty")
	}

	u.Path = "/" + cfg.MongoDatabase
	q := u.Query()
	if u.User != nil && q.Get("authSource") == "" {
		q.Set("authSource", "admin")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
