// Package store is the persistence adapter: it loads and saves whole JSON documents
// keyed by a logical name. Nothing above this package knows how documents are kept.
//
// Every document is rewritten in full on save. There are no partial updates, no
// schema version field, and no transaction spanning several documents.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/trentd187/scorebook/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Logical document names.
const (
	KeyPlayers            = "app_players"
	KeyCurrentMatch       = "current_match"
	KeyMatchHistory       = "match_history"
	KeySettings           = "app_settings"
	KeyOnboardingComplete = "onboarding_complete"
)

// Store reads and writes raw document bytes by key.
type Store interface {
	// Get returns the stored bytes. found is false when the key has never been
	// written or was deleted; that is not an error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// DeserializationError reports a stored document that is not valid JSON for the
// type it is loaded into. Callers recover by using the type's default value.
type DeserializationError struct {
	Key string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("document %q: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// LoadJSON decodes the document at key into v.
// It returns found=false with a nil error when the document is absent, and a
// *DeserializationError when the bytes do not decode.
func LoadJSON(ctx context.Context, s Store, key string, v any) (found bool, err error) {
	data, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, &DeserializationError{Key: key, Err: err}
	}
	return true, nil
}

// LoadOr decodes the document at key, falling back to def when it is absent,
// unreadable or unparsable. Failures are logged and never returned.
func LoadOr[T any](ctx context.Context, s Store, key string, def T) T {
	var v T
	found, err := LoadJSON(ctx, s, key, &v)
	if err != nil {
		var de *DeserializationError
		if errors.As(err, &de) {
			log.Printf("[store] Failed to parse %s, using default: %v", key, de.Err)
		} else {
			log.Printf("[store] Failed to read %s, using default: %v", key, err)
		}
		return def
	}
	if !found {
		return def
	}
	return v
}

// --- GORM-backed store ---

// GormStore keeps each document as one row of the documents table.
// It works with any dialect GORM supports; the scorebook uses SQLite on-device
// and PostgreSQL when DATABASE_URL points at a server.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps an open GORM handle. The documents table must already exist
// (see database.Migrate).
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc models.Document
	err := s.DB.WithContext(ctx).Where("name = ?", key).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(doc.Value), true, nil
}

// Put upserts the row so a document is always replaced wholesale.
func (s *GormStore) Put(ctx context.Context, key string, value []byte) error {
	doc := models.Document{Name: key, Value: string(value)}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.DB.WithContext(ctx).Where("name = ?", key).Delete(&models.Document{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// --- In-memory store ---

// MemoryStore keeps documents in a map. It is the fallback when no database can
// be opened (nothing persists across restarts) and the store used by tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}
