// Package mongodb реализует хранилище портала поверх MongoDB:
// поиск учётных записей по семействам ролей и журнал действий.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/magabrotheeeer/community-portal/internal/config"
	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/community-portal/internal/models"
	"github.com/magabrotheeeer/community-portal/internal/storage"
)

// Имена коллекций.
const (
	AdminsCollection      = "admins"
	MentorsCollection     = "mentors"
	AmbassadorsCollection = "ambassadors"
	ActivityCollection    = "activity_logs"
)

// DefaultActivityLimit размер страницы журнала, если лимит не задан.
const DefaultActivityLimit = 20

// Storage держит клиент MongoDB и базу портала.
type Storage struct {
	Client *mongo.Client
	DB     *mongo.Database
}

type accountDoc struct {
	ID       bson.ObjectID `bson:"_id"`
	Username string        `bson:"username"`
	Name     string        `bson:"name"`
	Password string        `bson:"password"`
}

// New подключается к MongoDB. Холодный старт кластера переживается повторными попытками.
func New(ctx context.Context, cfg config.Mongo) (*Storage, error) {
	const op = "storage.mongodb.New"

	attempts := max(cfg.MongoRetryAttempts, 1)
	opts := options.Client().ApplyURI(cfg.MongoURI).SetConnectTimeout(cfg.MongoConnectTimeout)

	var lastErr error
	for i := range attempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%s: %w", op, ctx.Err())
			case <-time.After(cfg.MongoRetryInterval):
			}
		}

		client, err := connect(ctx, opts, cfg.MongoConnectTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		return &Storage{Client: client, DB: client.Database(cfg.MongoDatabase)}, nil
	}
	return nil, fmt.Errorf("%s: after %d attempts: %w", op, attempts, lastErr)
}

func connect(ctx context.Context, opts *options.ClientOptions, timeout time.Duration) (*mongo.Client, error) {
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// CollectionFor возвращает имя коллекции с учётными записями роли.
func CollectionFor(role jwt.Role) (string, error) {
	switch role {
	case jwt.RoleAdmin:
		return AdminsCollection, nil
	case jwt.RoleMentor:
		return MentorsCollection, nil
	case jwt.RoleAmbassador:
		return AmbassadorsCollection, nil
	}
	return "", fmt.Errorf("%w: %q", storage.ErrUnknownCollection, role)
}

// GetAccountByUsername ищет учётную запись по логину в коллекции роли.
func (s *Storage) GetAccountByUsername(ctx context.Context, role jwt.Role, username string) (*models.Account, error) {
	const op = "storage.mongodb.GetAccountByUsername"

	acc, err := s.findAccount(ctx, role, bson.D{{Key: "username", Value: username}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// GetAccountByID ищет учётную запись по идентификатору из токена.
// Строка, не являющаяся ObjectID, даёт storage.ErrAccountNotFound.
func (s *Storage) GetAccountByID(ctx context.Context, role jwt.Role, id string) (*models.Account, error) {
	const op = "storage.mongodb.GetAccountByID"

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
	}
	acc, err := s.findAccount(ctx, role, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

func (s *Storage) findAccount(ctx context.Context, role jwt.Role, filter bson.D) (*models.Account, error) {
	name, err := CollectionFor(role)
	if err != nil {
		return nil, err
	}

	var doc accountDoc
	err = s.DB.Collection(name).FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return &models.Account{
		ID:           doc.ID.Hex(),
		Username:     doc.Username,
		Name:         doc.Name,
		PasswordHash: doc.Password,
	}, nil
}

// CreateAccount добавляет учётную запись и возвращает её идентификатор.
// Уникальность логина обеспечивает индекс из пакета migrations.
func (s *Storage) CreateAccount(ctx context.Context, role jwt.Role, account models.Account) (string, error) {
	const op = "storage.mongodb.CreateAccount"

	name, err := CollectionFor(role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	doc := accountDoc{
		ID:       bson.NewObjectID(),
		Username: account.Username,
		Name:     account.Name,
		Password: account.PasswordHash,
	}
	_, err = s.DB.Collection(name).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("%s: %w", op, storage.ErrAccountExists)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return doc.ID.Hex(), nil
}

// LogActivity записывает действие в журнал.
func (s *Storage) LogActivity(ctx context.Context, activity models.Activity) error {
	const op = "storage.mongodb.LogActivity"
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now().UTC()
	}
	if _, err := s.DB.Collection(ActivityCollection).InsertOne(ctx, activity); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListActivity возвращает последние записи журнала, новые первыми.
func (s *Storage) ListActivity(ctx context.Context, limit int) ([]models.Activity, error) {
	const op = "storage.mongodb.ListActivity"
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.DB.Collection(ActivityCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cursor.Close(ctx)

	result := make([]models.Activity, 0, limit)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

// Close отключается от MongoDB.
func (s *Storage) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
