package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rshade/storekit/internal/logging"
)

const (
	entryExt      = ".json"
	tempExt       = ".tmp"
	bytesPerMB    = 1 << 20
	dirPerm       = 0o750
	entryFilePerm = 0o600
)

// Cache errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrCacheExpired    = errors.New("cache entry expired")
	ErrInvalidCacheKey = errors.New("invalid cache key")
	ErrCacheDisabled   = errors.New("cache is disabled")
)

// Options configures a FileStore.
type Options struct {
	Directory string
	Enabled   bool
	TTL       time.Duration
	// MaxSizeMB bounds the directory size. Zero means unbounded.
	MaxSizeMB int
	// Now overrides the wall clock in tests.
	Now func() time.Time
}

// FileStore keeps one JSON file per entry. Safe for concurrent use.
type FileStore struct {
	dir      string
	enabled  bool
	ttl      time.Duration
	maxBytes int64
	now      func() time.Time

	mu sync.RWMutex
}

// NewFileStore creates the directory if needed. A disabled store accepts no
// writes and reports ErrCacheDisabled from every operation.
func NewFileStore(opts Options) (*FileStore, error) {
	if !opts.Enabled {
		return &FileStore{}, nil
	}
	if opts.Directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if err := ValidateTTL(ttl); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Directory, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &FileStore{
		dir:      opts.Directory,
		enabled:  true,
		ttl:      ttl,
		maxBytes: int64(opts.MaxSizeMB) * bytesPerMB,
		now:      now,
	}, nil
}

// Enabled reports whether the store is active.
func (s *FileStore) Enabled() bool { return s.enabled }

// Directory returns the cache directory.
func (s *FileStore) Directory() string { return s.dir }

// TTL returns the entry lifetime.
func (s *FileStore) TTL() time.Duration { return s.ttl }

// Get returns the entry for key. Expired entries are removed and reported as
// ErrCacheExpired.
func (s *FileStore) Get(ctx context.Context, key string) (*Entry, error) {
	if err := s.check(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, err := s.read(s.path(key))
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if entry.ExpiredAt(s.now()) {
		logging.FromContext(ctx).Debug().
			Str("component", "cache").
			Str("key", key).
			Dur("age", entry.Age(s.now())).
			Msg("cache entry expired")
		_ = s.Delete(key)
		return nil, ErrCacheExpired
	}
	return entry, nil
}

// Set writes data under key, replacing any previous entry, then evicts the
// oldest entries if the size budget is exceeded.
func (s *FileStore) Set(ctx context.Context, key, operation string, data json.RawMessage) error {
	if err := s.check(key); err != nil {
		return err
	}

	entry := newEntry(key, operation, data, s.ttl, s.now())
	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	tmp := path + tempExt
	if writeErr := os.WriteFile(tmp, raw, entryFilePerm); writeErr != nil {
		return fmt.Errorf("failed to write cache file: %w", writeErr)
	}
	if renameErr := os.Rename(tmp, path); renameErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename cache file: %w", renameErr)
	}

	if s.maxBytes > 0 {
		evicted, evictErr := s.evictLocked()
		if evictErr != nil {
			return evictErr
		}
		if evicted > 0 {
			logging.FromContext(ctx).Debug().
				Str("component", "cache").
				Int("evicted", evicted).
				Msg("cache over size budget, evicted oldest entries")
		}
	}
	return nil
}

// Delete removes key. Missing entries are not an error.
func (s *FileStore) Delete(key string) error {
	if err := s.check(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (s *FileStore) Clear() error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if removeErr := os.Remove(f.path); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove cache file %s: %w", filepath.Base(f.path), removeErr)
		}
	}
	return nil
}

// CleanupExpired removes expired and unreadable entries and returns how many
// were removed.
func (s *FileStore) CleanupExpired() (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.files()
	if err != nil {
		return 0, err
	}
	now := s.now()
	removed := 0
	for _, f := range files {
		entry, readErr := s.read(f.path)
		if readErr == nil && !entry.ExpiredAt(now) {
			continue
		}
		if os.Remove(f.path) == nil {
			removed++
		}
	}
	return removed, nil
}

// Size returns the total size of all entries in bytes.
func (s *FileStore) Size() (int64, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.files()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	return total, nil
}

// Count returns the number of entries, expired ones included.
func (s *FileStore) Count() (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.files()
	return len(files), err
}

func (s *FileStore) check(key string) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if key == "" || strings.ContainsAny(key, `/\:`) {
		return fmt.Errorf("%w: %q", ErrInvalidCacheKey, key)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+entryExt)
}

func (s *FileStore) read(path string) (*Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	var entry Entry
	if unmarshalErr := json.Unmarshal(raw, &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", unmarshalErr)
	}
	return &entry, nil
}

type fileInfo struct {
	path    string
	size    int64
	modTime time.Time
}

func (s *FileStore) files() ([]fileInfo, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}
	out := make([]fileInfo, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != entryExt {
			continue
		}
		info, infoErr := de.Info()
		if infoErr != nil {
			continue
		}
		out = append(out, fileInfo{
			path:    filepath.Join(s.dir, de.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return out, nil
}

// evictLocked removes the least recently written entries until the
// directory fits in maxBytes.
func (s *FileStore) evictLocked() (int, error) {
	files, err := s.files()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	if total <= s.maxBytes {
		return 0, nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })
	evicted := 0
	for _, f := range files {
		if total <= s.maxBytes {
			break
		}
		if os.Remove(f.path) == nil {
			total -= f.size
			evicted++
		}
	}
	return evicted, nil
}
