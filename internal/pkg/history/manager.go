// Package history records the messages gitpick committed.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
	"github.com/gitsage/gitpick/internal/pkg/message"
)

// DefaultMaxEntries bounds the history file when no limit is configured.
const DefaultMaxEntries = 500

// Entry is one pick.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Message     string    `json:"message,omitempty"`
	Custom      bool      `json:"custom"`
	Type        string    `json:"type,omitempty"`
	DiffSummary string    `json:"diff_summary,omitempty"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	Committed   bool      `json:"committed"`
	Amended     bool      `json:"amended"`
}

// NewEntry fills the Conventional Commits type of msg when it has one.
func NewEntry(msg string, custom bool) *Entry {
	e := &Entry{Message: msg, Custom: custom}
	if c, ok := message.ParseConventional(msg); ok {
		e.Type = c.Type
	}
	return e
}

// Manager stores entries.
type Manager interface {
	Save(entry *Entry) error
	List(limit int) ([]*Entry, error)
	Clear() error
}

// FileManager keeps entries in a JSON array on disk, oldest first.
type FileManager struct {
	mu         sync.Mutex
	path       string
	maxEntries int
	now        func() time.Time
}

// NewFileManager returns a FileManager writing to path.
func NewFileManager(path string, maxEntries int) *FileManager {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &FileManager{path: path, maxEntries: maxEntries, now: time.Now}
}

// Save appends entry, assigning an ID and timestamp when missing. The oldest
// entries are dropped once the file holds more than maxEntries.
func (m *FileManager) Save(entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = m.now()
	}

	entries, err := m.load()
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	if len(entries) > m.maxEntries {
		entries = entries[len(entries)-m.maxEntries:]
	}
	return m.store(entries)
}

// List returns the newest limit entries, or all of them when limit <= 0.
func (m *FileManager) List(limit int) ([]*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.load()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// Clear empties the history file.
func (m *FileManager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store([]*Entry{})
}

func (m *FileManager) load() ([]*Entry, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return []*Entry{}, nil
	}
	if err != nil {
		return nil, fsError(err, "read history", m.path)
	}

	var entries []*Entry
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fsError(err, "parse history", m.path).
			WithSuggestion("Run 'gitpick history clear' to reset the file")
	}
	return entries, nil
}

func (m *FileManager) store(entries []*Entry) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return fsError(err, "create history directory", m.path)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fsError(err, "encode history", m.path)
	}
	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fsError(err, "write history", m.path)
	}
	return nil
}

func fsError(err error, op, path string) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to "+op).
		WithContext("path", path)
}
