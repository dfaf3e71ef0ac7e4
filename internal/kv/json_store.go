package kv

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// JSONStore keeps all pairs in one JSON file, rewritten atomically on every change
type JSONStore struct {
	filePath string
	logger   *zap.Logger
	mu       sync.RWMutex
	values   map[string]string
}

// NewJSONStore loads the store at filePath, creating it on first write. A file
// that is not valid JSON is moved aside to filePath+".corrupt" and the store
// starts empty.
func NewJSONStore(filePath string, logger *zap.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &JSONStore{
		filePath: filePath,
		logger:   logger,
		values:   make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *JSONStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.values[key]
	s.values[key] = value
	if err := s.persistLocked(); err != nil {
		if existed {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *JSONStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	prev := s.values[key]
	delete(s.values, key)
	if err := s.persistLocked(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) load() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return err
	}
	raw, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		corruptPath := s.filePath + ".corrupt"
		s.logger.Error("corrupt local store, starting empty",
			zap.String("path", s.filePath),
			zap.String("moved_to", corruptPath),
			zap.Error(err),
		)
		if rerr := os.Rename(s.filePath, corruptPath); rerr != nil {
			s.logger.Warn("failed to move corrupt local store aside", zap.Error(rerr))
		}
		return nil
	}
	s.values = values
	return nil
}

func (s *JSONStore) persistLocked() error {
	raw, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.filePath)
}
