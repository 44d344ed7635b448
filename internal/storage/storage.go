package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by GetItem when no value is stored under the key.
var ErrNotFound = errors.New("storage: item not found")

// Storage is a browser-style key/value store partitioned by client scope.
type Storage interface {
	GetItem(ctx context.Context, scope, key string) (string, error)
	SetItem(ctx context.Context, scope, key, value string) error
	RemoveItem(ctx context.Context, scope, key string) error
	ListScopes(ctx context.Context) ([]string, error)

	LoadConversations(ctx context.Context, clientID string) ([]models.Conversation, error)
	SaveConversations(ctx context.Context, clientID string, convs []models.Conversation) error
}

// Entry is one stored value. (scope, key) is unique.
type Entry struct {
	ID        uint      `gorm:"primaryKey"`
	Scope     string    `gorm:"size:64;not null;uniqueIndex:idx_scope_key"`
	Key       string    `gorm:"size:128;not null;uniqueIndex:idx_scope_key"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Entry) TableName() string { return "local_storage_entries" }

// Service keeps entries in the database and mirrors them into Redis when a
// client is configured.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	TTL   time.Duration
}

// NewStorageService Constructor. rdb may be nil.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		TTL:   config.StorageCacheTTL,
	}
}

func cacheKey(scope, key string) string {
	return "localstorage:" + scope + ":" + key
}

// GetItem reads through the cache.
func (s *Service) GetItem(ctx context.Context, scope, key string) (string, error) {
	if s.Redis != nil {
		val, err := s.Redis.Get(ctx, cacheKey(scope, key)).Result()
		if err == nil {
			return val, nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("[storage] cache read failed for %s/%s: %v", scope, key, err)
		}
	}

	var entry Entry
	err := s.DB.WithContext(ctx).
		Where("scope = ? AND key = ?", scope, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s/%s: %w", scope, key, err)
	}

	s.cache(ctx, scope, key, entry.Value)
	return entry.Value, nil
}

// SetItem upserts the value and refreshes the cache.
func (s *Service) SetItem(ctx context.Context, scope, key, value string) error {
	entry := Entry{Scope: scope, Key: key, Value: value}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", scope, key, err)
	}

	s.cache(ctx, scope, key, value)
	return nil
}

// RemoveItem deletes the value. Removing a missing key is not an error.
func (s *Service) RemoveItem(ctx context.Context, scope, key string) error {
	if s.Redis != nil {
		if err := s.Redis.Del(ctx, cacheKey(scope, key)).Err(); err != nil {
			log.Printf("[storage] cache delete failed for %s/%s: %v", scope, key, err)
		}
	}

	err := s.DB.WithContext(ctx).
		Where("scope = ? AND key = ?", scope, key).
		Delete(&Entry{}).Error
	if err != nil {
		return fmt.Errorf("remove %s/%s: %w", scope, key, err)
	}
	return nil
}

// ListScopes returns every scope that holds at least one entry.
func (s *Service) ListScopes(ctx context.Context) ([]string, error) {
	var scopes []string
	if err := s.DB.WithContext(ctx).
		Model(&Entry{}).
		Distinct().
		Order("scope").
		Pluck("scope", &scopes).Error; err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	return scopes, nil
}

// LoadConversations returns the client's saved conversation list, or nil when
// nothing has been saved yet.
func (s *Service) LoadConversations(ctx context.Context, clientID string) ([]models.Conversation, error) {
	raw, err := s.GetItem(ctx, clientID, config.ConversationsStorageKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var convs []models.Conversation
	if err := json.Unmarshal([]byte(raw), &convs); err != nil {
		return nil, fmt.Errorf("decode conversations for %s: %w", clientID, err)
	}
	return convs, nil
}

// SaveConversations stores the list as JSON text under the conversations key.
func (s *Service) SaveConversations(ctx context.Context, clientID string, convs []models.Conversation) error {
	data, err := json.Marshal(convs)
	if err != nil {
		return fmt.Errorf("encode conversations for %s: %w", clientID, err)
	}
	return s.SetItem(ctx, clientID, config.ConversationsStorageKey, string(data))
}

func (s *Service) cache(ctx context.Context, scope, key, value string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Set(ctx, cacheKey(scope, key), value, s.TTL).Err(); err != nil {
		log.Printf("[storage] cache write failed for %s/%s: %v", scope, key, err)
	}
}
