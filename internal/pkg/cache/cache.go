// Package cache remembers generated candidates per diff so re-running
// gitpick on the same staged changes does not call the provider again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
)

const (
	DefaultMaxEntries = 50
	DefaultTTL        = time.Hour
)

// Entry is one cached set of candidates.
type Entry struct {
	Key        string    `json:"key"`
	Candidates []string  `json:"candidates"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (e *Entry) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store looks up and records candidates.
type Store interface {
	Get(key string) ([]string, bool)
	Put(key string, candidates []string) error
	Clear() error
}

// FileCache is an LRU of candidate lists persisted as JSON. Entries are kept
// least recently used first.
type FileCache struct {
	mu         sync.Mutex
	path       string
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	entries    []*Entry
	loaded     bool
}

// NewFileCache returns a cache backed by path.
func NewFileCache(path string, maxEntries int, ttl time.Duration) *FileCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FileCache{path: path, maxEntries: maxEntries, ttl: ttl, now: time.Now}
}

// Key hashes everything that influences what a provider returns.
func Key(diff, provider, model, prompt string, count int) string {
	sum := sha256.Sum256([]byte(diff + "|" + provider + "|" + model + "|" + prompt + "|" + strconv.Itoa(count)))
	return hex.EncodeToString(sum[:])
}

// Get returns the candidates for key when present and not expired. A cache
// that cannot be read behaves as empty.
func (c *FileCache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(); err != nil {
		apperrors.Debug("cache unavailable: %v", err)
		return nil, false
	}
	i := c.index(key)
	if i < 0 {
		return nil, false
	}
	e := c.entries[i]
	if e.expired(c.now()) {
		c.remove(i)
		return nil, false
	}
	c.remove(i)
	c.entries = append(c.entries, e)
	return append([]string(nil), e.Candidates...), true
}

// Put stores candidates under key, evicting the least recently used entry
// when full, and writes the cache file.
func (c *FileCache) Put(key string, candidates []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(); err != nil {
		c.entries = nil
	}
	if i := c.index(key); i >= 0 {
		c.remove(i)
	}
	c.prune()
	for len(c.entries) >= c.maxEntries {
		c.remove(0)
	}
	c.entries = append(c.entries, &Entry{
		Key:        key,
		Candidates: append([]string(nil), candidates...),
		ExpiresAt:  c.now().Add(c.ttl),
	})
	return c.save()
}

// Clear drops every entry.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.loaded = true
	return c.save()
}

// Len reports the number of entries, expired ones included.
func (c *FileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.load()
	return len(c.entries)
}

func (c *FileCache) load() error {
	if c.loaded {
		return nil
	}
	c.loaded = true
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &c.entries)
}

func (c *FileCache) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to create cache directory")
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to encode cache")
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write cache").
			WithContext("path", c.path)
	}
	return nil
}

func (c *FileCache) prune() {
	now := c.now()
	kept := c.entries[:0]
	for _, e := range c.entries {
		if !e.expired(now) {
			kept = append(kept, e)
		}
	}
	c.entries = kept
}

func (c *FileCache) index(key string) int {
	for i, e := range c.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

func (c *FileCache) remove(i int) {
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
}

// Nop never hits.
type Nop struct{}

func (Nop) Get(string) ([]string, bool) { return nil, false }
func (Nop) Put(string, []string) error  { return nil }
func (Nop) Clear() error                { return nil }
