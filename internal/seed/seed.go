// Package seed loads bulk index entries from JSON files.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/khicago/nsindex"
)

// Entry is one key/value pair of a seed file. Value is a JSON string, or a
// JSON object of strings for object indexes.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Load reads a JSON array of Entry from path.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("seed: decode %s: %w", path, err)
	}
	for i, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("seed: entry %d missing key", i)
		}
	}
	return entries, nil
}

// Decode converts the raw JSON value into the shape kind stores.
func (e Entry) Decode(kind nsindex.Kind) (nsindex.Value, error) {
	if len(e.Value) == 0 || string(e.Value) == "null" {
		return nil, fmt.Errorf("seed: %s: missing value", e.Key)
	}
	if kind == nsindex.KindObject {
		var rec map[string]string
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			return nil, fmt.Errorf("seed: %s: want an object of strings: %w", e.Key, err)
		}
		return nsindex.Record(rec), nil
	}
	var s string
	if err := json.Unmarshal(e.Value, &s); err != nil {
		return nil, fmt.Errorf("seed: %s: want a string: %w", e.Key, err)
	}
	return nsindex.Text(s), nil
}

// Apply puts every entry, one after another, so list indexes keep file order
// (the last entry for a key ends up first). It stops at the first failure and
// reports how many entries were stored.
func Apply[TKey ~string](ctx context.Context, idx *nsindex.Index[TKey], entries []Entry) (int, error) {
	for i, e := range entries {
		v, err := e.Decode(idx.Kind())
		if err != nil {
			return i, err
		}
		if err := idx.Put(ctx, TKey(e.Key), v); err != nil {
			return i, fmt.Errorf("seed: put %s: %w", e.Key, err)
		}
	}
	return len(entries), nil
}
