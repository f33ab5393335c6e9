package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"datve-cli/model"
)

const (
	appDir            = "datve-cli"
	sessionFile       = "session.json"
	DefaultCatalogTTL = 6 * time.Hour
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

// Session is the persisted auth record. Token and user are always written
// together; an empty token means logged out.
type Session struct {
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
	SavedAt time.Time   `json:"saved_at"`
}

func (s Session) Empty() bool {
	return strings.TrimSpace(s.Token) == ""
}

func LoadSession() (Session, error) {
	path, err := configPath(sessionFile)
	if err != nil {
		return Session{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, nil
		}
		return Session{}, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, errors.New("invalid session format")
	}
	return session, nil
}

func SaveSession(token string, user *model.User) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is required")
	}
	path, err := configPath(sessionFile)
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(Session{Token: token, User: user, SavedAt: time.Now()}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, payload, 0o600)
}

func ClearSession() error {
	path, err := configPath(sessionFile)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Sessions adapts the package-level session functions to an object that can
// be handed to the session manager.
type Sessions struct{}

func (Sessions) Load() (Session, error) { return LoadSession() }

func (Sessions) Save(token string, user *model.User) error { return SaveSession(token, user) }

func (Sessions) Clear() error { return ClearSession() }

func LoadMovieCache(ttl time.Duration) ([]model.Movie, bool, error) {
	return loadCatalog[[]model.Movie]("movies.json", ttl)
}

func SaveMovieCache(movies []model.Movie) error {
	return saveCatalog("movies.json", movies)
}

func LoadTicketTypeCache(ttl time.Duration) ([]model.TicketType, bool, error) {
	return loadCatalog[[]model.TicketType]("ticket_types.json", ttl)
}

func SaveTicketTypeCache(types []model.TicketType) error {
	return saveCatalog("ticket_types.json", types)
}

func LoadFoodCache(ttl time.Duration) ([]model.FoodItem, bool, error) {
	return loadCatalog[[]model.FoodItem]("food.json", ttl)
}

func SaveFoodCache(items []model.FoodItem) error {
	return saveCatalog("food.json", items)
}

func loadCatalog[T any](name string, ttl time.Duration) (T, bool, error) {
	var zero T
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	path, err := cachePath(name)
	if err != nil {
		return zero, false, err
	}
	cache, err := loadCache[T](path)
	if err != nil {
		return zero, false, err
	}
	if cache.UpdatedAt.IsZero() {
		return cache.Data, false, nil
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= ttl, nil
}

func saveCatalog[T any](name string, data T) error {
	path, err := cachePath(name)
	if err != nil {
		return err
	}
	return saveCache(path, data)
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	payload, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, payload, 0o644)
}

// writeFileAtomic replaces path in one rename so readers never see a
// half-written record.
func writeFileAtomic(path string, payload []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}
