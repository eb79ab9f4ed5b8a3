package fs

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	logging "polymarket-alert/internal/infra/log"

	"go.uber.org/zap"
)

// SubscriptionStore maps a chat id to the ordered list of wallet addresses
// it follows. Every mutation rewrites the whole file. Adding an address
// also registers it with the watermark store so the alerts monitor seeds
// it on the next cycle instead of flooding the subscriber with backlog.
type SubscriptionStore struct {
	mu         sync.Mutex
	path       string
	subs       map[string][]string
	watermarks *WatermarkStore
}

// NewSubscriptionStore loads the store from path. A missing or corrupt
// file starts the store empty rather than failing.
func NewSubscriptionStore(path string, watermarks *WatermarkStore) *SubscriptionStore {
	s := &SubscriptionStore{
		path:       path,
		subs:       make(map[string][]string),
		watermarks: watermarks,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.LogWarn("Failed to read subscriptions file, starting empty",
				zap.String("file", path), zap.Error(err))
		}
		return s
	}

	if err := json.Unmarshal(data, &s.subs); err != nil {
		logging.LogWarn("Failed to parse subscriptions file, starting empty",
			zap.String("file", path), zap.Error(err))
		s.subs = make(map[string][]string)
	}
	return s
}

// Add subscribes chatID to address. Returns false without persisting when
// the subscription already exists.
func (s *SubscriptionStore) Add(chatID, address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := normalizeAddress(address)
	list := s.subs[chatID]
	for _, a := range list {
		if a == addr {
			return false
		}
	}

	s.subs[chatID] = append(list, addr)
	s.persistLocked()

	if s.watermarks != nil {
		s.watermarks.Ensure(addr)
	}
	return true
}

// Remove drops address from chatID's list. Returns false without
// persisting when the subscription does not exist.
func (s *SubscriptionStore) Remove(chatID, address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := normalizeAddress(address)
	list := s.subs[chatID]
	for i, a := range list {
		if a == addr {
			s.subs[chatID] = append(list[:i:i], list[i+1:]...)
			s.persistLocked()
			return true
		}
	}
	return false
}

// ListFor returns chatID's addresses in insertion order.
func (s *SubscriptionStore) ListFor(chatID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.subs[chatID]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// AllWatchedAddresses returns the union of addresses across all
// subscribers. Order is unspecified.
func (s *SubscriptionStore) AllWatchedAddresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]struct{})
	for _, list := range s.subs {
		for _, a := range list {
			set[a] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	return out
}

// SubscribersOf returns every chat id whose list contains address.
func (s *SubscriptionStore) SubscribersOf(address string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := normalizeAddress(address)
	var out []string
	for chatID, list := range s.subs {
		for _, a := range list {
			if a == addr {
				out = append(out, chatID)
				break
			}
		}
	}
	return out
}

func (s *SubscriptionStore) persistLocked() {
	if err := saveJSON(s.path, s.subs); err != nil {
		logging.LogError("Failed to persist subscriptions", zap.String("file", s.path), zap.Error(err))
	}
}

// normalizeAddress canonicalizes a wallet address for storage and
// comparison.
func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// NormalizeAddress is the exported form used by command handling to echo
// addresses back the way they are stored.
func NormalizeAddress(address string) string {
	return normalizeAddress(address)
}
