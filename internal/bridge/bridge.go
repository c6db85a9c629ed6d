// Package bridge gives generated apps an isolated key/value store. One
// Bridge multiplexes a single on-disk root into per-app namespaces; an app
// reaches its data only through the AppStore handle bound to its namespace,
// so an operation addressing another app's keys cannot be constructed.
//
// It is the only durable-storage surface exposed to generated app code.
package bridge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const maxKeyLen = 64

// StorageError reports a persistence fault on one key operation. It never
// affects sibling keys or other namespaces.
type StorageError struct {
	Namespace string
	Key       string
	Op        string
	Err       error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s failed in %s: %v", e.Op, e.Namespace, e.Err)
	}
	return fmt.Sprintf("storage %s failed for %s/%s: %v", e.Op, e.Namespace, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Bridge multiplexes one storage root into per-app namespaces.
type Bridge struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex // one lock per (namespace, key) pair
}

// New returns a Bridge rooted at dir (typically <data-dir>/app_data).
func New(dir string) *Bridge {
	return &Bridge{
		root:  dir,
		locks: make(map[string]*sync.Mutex),
	}
}

// Attach binds an app identity to its namespace and returns the store
// handle. The namespace directory is created eagerly so the readiness
// signal means the store is usable.
func (b *Bridge) Attach(appID string) (*AppStore, error) {
	ns := sanitizeNamespace(appID)
	dir := filepath.Join(b.root, ns)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Namespace: ns, Op: "attach", Err: err}
	}
	ready := make(chan struct{})
	close(ready)
	return &AppStore{bridge: b, ns: ns, dir: dir, ready: ready}, nil
}

// keyLock returns the mutex serializing writes to one (namespace, key)
// pair. Distinct pairs never share a lock, so they proceed independently.
func (b *Bridge) keyLock(ns, key string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := ns + "/" + key
	l, ok := b.locks[id]
	if !ok {
		l = &sync.Mutex{}
		b.locks[id] = l
	}
	return l
}

// AppStore is one app's view of the bridge. Every operation resolves inside
// the namespace fixed at Attach time.
type AppStore struct {
	bridge *Bridge
	ns     string
	dir    string
	ready  chan struct{}
}

// Ready is closed once the store is attached and usable. It fires exactly
// once per AppStore.
func (s *AppStore) Ready() <-chan struct{} { return s.ready }

// Namespace reports the sanitized namespace this store is bound to.
func (s *AppStore) Namespace() string { return s.ns }

func (s *AppStore) keyPath(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// Get returns the stored value for key, reporting absence separately from
// failure.
func (s *AppStore) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, &StorageError{Namespace: s.ns, Key: key, Op: "get", Err: err}
	}
	return string(data), true, nil
}

// Set stores value under key. The write is atomic: the value lands in a
// temp file first and is renamed into place, so a crash mid-write never
// leaves a corrupt or partial entry.
func (s *AppStore) Set(key, value string) error {
	lock := s.bridge.keyLock(s.ns, key)
	lock.Lock()
	defer lock.Unlock()

	path := s.keyPath(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return &StorageError{Namespace: s.ns, Key: key, Op: "set", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Namespace: s.ns, Key: key, Op: "set", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Namespace: s.ns, Key: key, Op: "set", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Namespace: s.ns, Key: key, Op: "set", Err: err}
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *AppStore) Delete(key string) error {
	lock := s.bridge.keyLock(s.ns, key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.keyPath(key)); err != nil && !os.IsNotExist(err) {
		return &StorageError{Namespace: s.ns, Key: key, Op: "delete", Err: err}
	}
	return nil
}

// Keys lists the stored keys in sorted order.
func (s *AppStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageError{Namespace: s.ns, Op: "keys", Err: err}
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes every entry in the namespace. The namespace stays attached
// and usable afterward.
func (s *AppStore) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return &StorageError{Namespace: s.ns, Op: "clear", Err: err}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &StorageError{Namespace: s.ns, Op: "clear", Err: err}
	}
	return nil
}

// sanitizeNamespace maps an app identity to a filesystem-safe namespace.
// Distinct identities may collapse to the same namespace only if they
// differ solely in unsafe characters.
func sanitizeNamespace(appID string) string {
	return sanitizeChars(appID, -1)
}

// sanitizeKey maps a storage key to a filesystem-safe name, capped at a
// fixed length.
func sanitizeKey(key string) string {
	return sanitizeChars(key, maxKeyLen)
}

func sanitizeChars(s string, limit int) string {
	var b strings.Builder
	n := 0
	for _, c := range s {
		if limit >= 0 && n >= limit {
			break
		}
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
		n++
	}
	return b.String()
}
