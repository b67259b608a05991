package nsindex

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

type shape int

const (
	shapeString shape = iota
	shapeList
	shapeHash
)

type entry struct {
	shape shape
	str   string
	list  []string // head first
	hash  map[string]string
}

// Memory implements Driver with thread-safe in-memory storage.
// It mirrors the store semantics an Index relies on: missing keys read as
// empty, a key holds one shape at a time, and empty lists or hashes vanish.
type Memory struct {
	mu   sync.RWMutex
	data map[string]*entry
}

// NewMemory creates an in-memory Driver instance.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]*entry)}
}

// lookup returns the entry at key if it has shape s. Caller holds the lock.
func (m *Memory) lookup(key string, s shape) (*entry, error) {
	e, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	if e.shape != s {
		return nil, ErrTypeMismatch
	}
	return e, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = &entry{shape: shapeString, str: value}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.lookup(key, shapeString)
	if err != nil || e == nil {
		return "", false, err
	}
	return e.str, true, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) LPush(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lpushLocked(key, value)
}

func (m *Memory) lpushLocked(key, value string) error {
	e, err := m.lookup(key, shapeList)
	if err != nil {
		return err
	}
	if e == nil {
		m.data[key] = &entry{shape: shapeList, list: []string{value}}
		return nil
	}
	e.list = slices.Insert(e.list, 0, value)
	return nil
}

// LPushUnique prepends value unless the list already holds it, under one lock.
func (m *Memory) LPushUnique(ctx context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(key, shapeList)
	if err != nil {
		return false, err
	}
	if e != nil && slices.Contains(e.list, value) {
		return false, nil
	}
	return true, m.lpushLocked(key, value)
}

func (m *Memory) LRange(ctx context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.lookup(key, shapeList)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return []string{}, nil
	}
	return slices.Clone(e.list), nil
}

func (m *Memory) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(key, shapeHash)
	if err != nil {
		return err
	}
	if e == nil {
		m.data[key] = &entry{shape: shapeHash, hash: maps.Clone(fields)}
		return nil
	}
	maps.Copy(e.hash, fields)
	return nil
}

func (m *Memory) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.lookup(key, shapeHash)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return map[string]string{}, nil
	}
	return maps.Clone(e.hash), nil
}

// Keys returns the keys matching a glob pattern with the store's syntax:
// '*' and '?' match any character including '/', '[...]' is a class and
// '\' quotes the next character. Braces and commas are plain characters.
func (m *Memory) Keys(ctx context.Context, pattern string) ([]string, error) {
	pat := quoteAlternation(hideSlash(pattern))
	if !doublestar.ValidatePattern(pat) {
		return nil, ErrInvalidPattern
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []string
	for key := range m.data {
		if matched, _ := doublestar.Match(pat, hideSlash(key)); matched {
			result = append(result, key)
		}
	}
	return result, nil
}

// Close drops all data.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]*entry)
	return nil
}

// Len reports the number of keys held, across all namespaces.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// hideSlash swaps '/' for a rune the matcher does not treat as a separator.
func hideSlash(s string) string {
	return strings.ReplaceAll(s, "/", "\x00")
}

// quoteAlternation escapes '{', '}' and ',' outside character classes so the
// matcher sees them as literals. Escaped pairs and classes pass through as is.
func quoteAlternation(pattern string) string {
	if !strings.ContainsAny(pattern, "{},") {
		return pattern
	}
	var b strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			i++
			b.WriteByte(pattern[i])
			continue
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '{' || c == '}' || c == ',':
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}
