// Package chatstore persists the mapping from recipient phone numbers to
// provider chat IDs so repeat sends skip the create-chat call.
package chatstore

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFileName is the store file under the relaybot state directory.
const DefaultFileName = "chats.json"

// Store maps recipient identifiers to provider chat IDs, backed by a JSON
// file that is rewritten wholesale on every mutation. Persistence is
// best-effort: a missing or corrupt file loads as empty, and a failed save
// never fails the caller; re-resolving a chat through the API is safe,
// just wasteful. Concurrent writers race on the file (last save wins),
// which is accepted for the same reason.
type Store struct {
	path  string
	mu    sync.Mutex
	cache map[string]string
}

// New creates a store backed by the JSON file at path. The file is not
// read until the first access.
func New(path string) *Store {
	return &Store{path: path}
}

// load returns the in-memory map, reading the backing file on first use.
// Caller must hold mu.
func (s *Store) load() map[string]string {
	if s.cache != nil {
		return s.cache
	}
	s.cache = make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return s.cache
	}
	if err := json.Unmarshal(data, &s.cache); err != nil {
		log.Printf("[relay] chat store %s is corrupt, starting empty: %v", s.path, err)
		s.cache = make(map[string]string)
	}
	return s.cache
}

// save rewrites the backing file from the in-memory map. Caller must hold mu.
func (s *Store) save() {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		log.Printf("[relay] chat store: create dir: %v", err)
		return
	}
	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		log.Printf("[relay] chat store: save: %v", err)
	}
}

// Lookup returns the cached chat ID for a recipient.
func (s *Store) Lookup(recipient string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chatID, ok := s.load()[recipient]
	return chatID, ok
}

// Write stores a recipient → chat ID mapping, replacing any existing one.
func (s *Store) Write(recipient, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()[recipient] = chatID
	s.save()
}

// Delete removes a recipient's mapping.
func (s *Store) Delete(recipient string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store := s.load()
	if _, ok := store[recipient]; !ok {
		return
	}
	delete(store, recipient)
	s.save()
}

// All returns a copy of every recipient → chat ID mapping.
func (s *Store) All() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	store := s.load()
	out := make(map[string]string, len(store))
	for k, v := range store {
		out[k] = v
	}
	return out
}

// ResetCache drops the in-memory copy so the next access re-reads the
// backing file. Called at adapter startup to pick up external changes.
func (s *Store) ResetCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}
