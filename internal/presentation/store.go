package presentation

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	settingsBucket = []byte("settings")
	displayKey     = []byte("display")
)

// SettingsStore persists Settings in a bbolt file.
type SettingsStore struct {
	db *bolt.DB
}

// OpenSettingsStore opens (creating if needed) the store at path.
func OpenSettingsStore(path string) (*SettingsStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open settings db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create settings bucket: %w", err)
	}
	return &SettingsStore{db: db}, nil
}

// Load returns the stored settings merged over the defaults. A store that was never written
// yields the defaults.
func (s *SettingsStore) Load() (Settings, error) {
	out := DefaultSettings()

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(settingsBucket).Get(displayKey)
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &out)
	})
	if err != nil {
		return DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}
	if err := out.Validate(); err != nil {
		return DefaultSettings(), fmt.Errorf("stored settings are invalid: %w", err)
	}
	return out, nil
}

func (s *SettingsStore) Save(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).Put(displayKey, raw)
	})
}

// Reset stores and returns the defaults.
func (s *SettingsStore) Reset() (Settings, error) {
	def := DefaultSettings()
	if err := s.Save(def); err != nil {
		return Settings{}, fmt.Errorf("reset settings: %w", err)
	}
	return def, nil
}

func (s *SettingsStore) Close() error { return s.db.Close() }
