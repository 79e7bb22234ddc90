package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	defaultMaxHistory = 50
	fileExt           = ".jsonl"
)

// header is the first line of a conversation file; every following line
// is one JSON-encoded message.
type header struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Manager persists per-conversation history under <dataDir>/sessions,
// one file per conversation key ("relay:+15551234567", "cli:local").
type Manager struct {
	dir        string
	mu         sync.RWMutex
	cache      map[string]*Session
	maxHistory int
}

// NewManager creates a session manager rooted at dataDir.
func NewManager(dataDir string) *Manager {
	dir := filepath.Join(dataDir, "sessions")
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Printf("warning: failed to create sessions directory: %v", err)
	}

	return &Manager{
		dir:        dir,
		cache:      make(map[string]*Session),
		maxHistory: defaultMaxHistory,
	}
}

// SetMaxHistory caps how many messages Save keeps per conversation.
func (m *Manager) SetMaxHistory(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxHistory = max
}

// GetOrCreate returns the cached conversation for key, loading it from
// disk or starting a fresh one when there is none.
func (m *Manager) GetOrCreate(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.cache[key]; ok {
		return sess
	}

	sess := m.read(key)
	if sess == nil {
		sess = NewSession(key)
	}
	m.cache[key] = sess
	return sess
}

// Get returns the conversation for key, or nil when it has never been
// seen.
func (m *Manager) Get(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.cache[key]; ok {
		return sess
	}

	sess := m.read(key)
	if sess != nil {
		m.cache[key] = sess
	}
	return sess
}

// Save writes a conversation to disk, keeping at most maxHistory of the
// most recent messages.
func (m *Manager) Save(sess *Session) error {
	if sess == nil {
		return fmt.Errorf("cannot save nil session")
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	messages := sess.Messages
	if m.maxHistory > 0 && len(messages) > m.maxHistory {
		messages = messages[len(messages)-m.maxHistory:]
	}

	file, err := os.OpenFile(m.pathFor(sess.Key), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := writeLine(w, header{Key: sess.Key, CreatedAt: sess.CreatedAt, UpdatedAt: sess.UpdatedAt}); err != nil {
		return fmt.Errorf("failed to write session header: %w", err)
	}
	for _, msg := range messages {
		if err := writeLine(w, msg); err != nil {
			return fmt.Errorf("failed to write session message: %w", err)
		}
	}
	return w.Flush()
}

// Delete removes a conversation from cache and disk. It reports whether
// a persisted file existed.
func (m *Manager) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cache, key)
	return os.Remove(m.pathFor(key)) == nil
}

// Clear empties a conversation's history while keeping the key.
func (m *Manager) Clear(key string) error {
	m.mu.Lock()
	sess, ok := m.cache[key]
	m.mu.Unlock()

	if ok {
		sess.Clear()
		return m.Save(sess)
	}

	if err := os.Remove(m.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// ClearAll deletes every persisted conversation and empties the cache,
// returning how many files were removed.
func (m *Manager) ClearAll() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache = make(map[string]*Session)

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	removed := 0
	var lastErr error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, entry.Name())); err != nil {
			lastErr = err
			continue
		}
		removed++
	}
	return removed, lastErr
}

// List summarizes every persisted conversation.
func (m *Manager) List() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil
	}

	var infos []SessionInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}

		// A cached session may be newer than its file.
		if sess, ok := m.cache[m.keyFromFilename(entry.Name())]; ok {
			infos = append(infos, sess.Info())
			continue
		}

		if info, ok := m.readInfo(filepath.Join(m.dir, entry.Name())); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

// pathFor returns the file path backing a conversation key.
func (m *Manager) pathFor(key string) string {
	return filepath.Join(m.dir, m.safeKey(key)+fileExt)
}

// safeKey converts a conversation key to a safe filename.
func (m *Manager) safeKey(key string) string {
	key = strings.ReplaceAll(key, "\x00", "")
	key = strings.ReplaceAll(key, "..", "")
	key = strings.ReplaceAll(key, "/", "")
	key = strings.ReplaceAll(key, "\\", "")
	return strings.ReplaceAll(key, ":", "_")
}

// keyFromFilename reverses safeKey's channel separator for the
// "channel_id" filename shape.
func (m *Manager) keyFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, fileExt)
	return strings.Replace(name, "_", ":", 1)
}

// read loads a full conversation from disk, or nil if the file is
// missing or its header is unreadable.
func (m *Manager) read(key string) *Session {
	file, err := os.Open(m.pathFor(key))
	if err != nil {
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	meta, ok := scanHeader(scanner)
	if !ok {
		return nil
	}

	sess := &Session{
		Key:       meta.Key,
		Messages:  make([]Message, 0),
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
		Metadata:  make(map[string]interface{}),
	}
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			// Skip lines damaged by a partial write.
			continue
		}
		sess.Messages = append(sess.Messages, msg)
	}
	return sess
}

// readInfo loads only the header and message count of a conversation
// file.
func (m *Manager) readInfo(path string) (SessionInfo, bool) {
	file, err := os.Open(path)
	if err != nil {
		return SessionInfo{}, false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	meta, ok := scanHeader(scanner)
	if !ok {
		return SessionInfo{}, false
	}

	count := 0
	for scanner.Scan() {
		count++
	}
	return SessionInfo{
		Key:          meta.Key,
		MessageCount: count,
		CreatedAt:    meta.CreatedAt,
		UpdatedAt:    meta.UpdatedAt,
	}, true
}

func scanHeader(scanner *bufio.Scanner) (header, bool) {
	if !scanner.Scan() {
		return header{}, false
	}
	var meta header
	if err := json.Unmarshal(scanner.Bytes(), &meta); err != nil {
		return header{}, false
	}
	return meta, true
}

func writeLine(w *bufio.Writer, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(line); err != nil {
		return err
	}
	return w.WriteByte('\n')
}
