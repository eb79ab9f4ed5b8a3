package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logging "polymarket-alert/internal/infra/log"

	"go.uber.org/zap"
)

// WatermarkStore maps a normalized wallet address to the hash of the last
// transaction an alert was sent for. An empty hash means the address is
// known but not yet synced; the first poll cycle seeds it silently.
//
// Every mutation rewrites the whole file, so a crash loses at most the
// last write. The mutex serializes access between the alerts monitor and
// the command handler.
type WatermarkStore struct {
	mu   sync.Mutex
	path string
	seen map[string]string
}

// NewWatermarkStore loads the store from path. A missing or corrupt file
// starts the store empty rather than failing.
func NewWatermarkStore(path string) *WatermarkStore {
	s := &WatermarkStore{
		path: path,
		seen: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.LogWarn("Failed to read watermark file, starting empty",
				zap.String("file", path), zap.Error(err))
		}
		return s
	}

	if err := json.Unmarshal(data, &s.seen); err != nil {
		logging.LogWarn("Failed to parse watermark file, starting empty",
			zap.String("file", path), zap.Error(err))
		s.seen = make(map[string]string)
	}
	return s
}

// Get returns the last-seen transaction hash for address. ok is false when
// the address has no initialized watermark yet.
func (s *WatermarkStore) Get(address string) (hash string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.seen[normalizeAddress(address)]
	return h, h != ""
}

// Set advances the watermark and persists immediately.
func (s *WatermarkStore) Set(address, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[normalizeAddress(address)] = hash
	s.persistLocked()
}

// Ensure creates an uninitialized entry for address if none exists, so the
// next poll cycle seeds it instead of treating it as unknown.
func (s *WatermarkStore) Ensure(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := normalizeAddress(address)
	if _, exists := s.seen[addr]; exists {
		return
	}
	s.seen[addr] = ""
	s.persistLocked()
}

func (s *WatermarkStore) persistLocked() {
	if err := saveJSON(s.path, s.seen); err != nil {
		logging.LogError("Failed to persist watermarks", zap.String("file", s.path), zap.Error(err))
	}
}

// saveJSON writes data to path through a temp file and rename.
func saveJSON(path string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
