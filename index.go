package nsindex

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

func (idx *Index[TKey]) checkKey(key TKey) error {
	if key == "" {
		return fmt.Errorf("%w: key must be a non-empty string", ErrInvalidArgument)
	}
	return nil
}

func (idx *Index[TKey]) checkValue(v Value) error {
	if v == nil {
		return fmt.Errorf("%w: value must not be nil", ErrInvalidArgument)
	}
	if !idx.kind.accepts(v) {
		if idx.kind == KindObject {
			return fmt.Errorf("%w: %s index needs a Record value, got %T", ErrInvalidArgument, idx.kind, v)
		}
		return fmt.Errorf("%w: %s index needs a Text value, got %T", ErrInvalidArgument, idx.kind, v)
	}
	return nil
}

// Put stores value under key.
//
// KindSingle overwrites, KindList prepends, KindUniqueList prepends unless the
// list already holds value, KindObject merges the record's fields into the
// existing ones. Invalid input is rejected before the store is touched.
func (idx *Index[TKey]) Put(ctx context.Context, key TKey, value Value) error {
	if err := idx.checkKey(key); err != nil {
		return err
	}
	if err := idx.checkValue(value); err != nil {
		return err
	}
	return idx.put(ctx, key, value)
}

func (idx *Index[TKey]) put(ctx context.Context, key TKey, value Value) error {
	full := idx.key(key)
	switch idx.kind {
	case KindSingle:
		if err := idx.driver.Set(ctx, full, string(value.(Text))); err != nil {
			return idx.storeErr(ctx, "Put", key, err)
		}
	case KindList:
		if err := idx.driver.LPush(ctx, full, string(value.(Text))); err != nil {
			return idx.storeErr(ctx, "Put", key, err)
		}
	case KindUniqueList:
		return idx.putUnique(ctx, key, string(value.(Text)))
	case KindObject:
		fields := value.(Record)
		if len(fields) == 0 {
			return nil
		}
		if err := idx.driver.HSet(ctx, full, fields); err != nil {
			return idx.storeErr(ctx, "Put", key, err)
		}
	}
	return nil
}

// putUnique reads the list and pushes only when value is missing. Without an
// atomic driver primitive two concurrent callers can both miss and both push.
func (idx *Index[TKey]) putUnique(ctx context.Context, key TKey, value string) error {
	full := idx.key(key)
	if up, ok := idx.driver.(UniquePusher); ok && idx.atomicUnique {
		pushed, err := up.LPushUnique(ctx, full, value)
		if err != nil {
			return idx.storeErr(ctx, "Put", key, err)
		}
		if !pushed {
			idx.logf("debug", ctx, "Put %s: value already present", key)
		}
		return nil
	}

	items, err := idx.driver.LRange(ctx, full)
	if err != nil {
		return idx.storeErr(ctx, "Put", key, err)
	}
	if slices.Contains(items, value) {
		idx.logf("debug", ctx, "Put %s: value already present", key)
		return nil
	}
	if err := idx.driver.LPush(ctx, full, value); err != nil {
		return idx.storeErr(ctx, "Put", key, err)
	}
	return nil
}

// Get returns the current value of key. Unknown keys are not an error:
// KindSingle yields Absent, list kinds an empty List, KindObject an empty Record.
func (idx *Index[TKey]) Get(ctx context.Context, key TKey) (Value, error) {
	if err := idx.checkKey(key); err != nil {
		return nil, err
	}
	full := idx.key(key)
	switch idx.kind {
	case KindSingle:
		v, found, err := idx.driver.Get(ctx, full)
		if err != nil {
			return nil, idx.storeErr(ctx, "Get", key, err)
		}
		if !found {
			return Absent{}, nil
		}
		return Text(v), nil
	case KindObject:
		fields, err := idx.driver.HGetAll(ctx, full)
		if err != nil {
			return nil, idx.storeErr(ctx, "Get", key, err)
		}
		return Record(fields).Clone(), nil
	default:
		items, err := idx.driver.LRange(ctx, full)
		if err != nil {
			return nil, idx.storeErr(ctx, "Get", key, err)
		}
		return List(items).Clone(), nil
	}
}

// GetText is Get for KindSingle indexes. found is false for an absent key.
func (idx *Index[TKey]) GetText(ctx context.Context, key TKey) (value string, found bool, err error) {
	if idx.kind != KindSingle {
		return "", false, fmt.Errorf("%w: GetText on %s index", ErrInvalidArgument, idx.kind)
	}
	v, err := idx.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if t, ok := v.(Text); ok {
		return string(t), true, nil
	}
	return "", false, nil
}

// GetList is Get for KindList and KindUniqueList indexes.
func (idx *Index[TKey]) GetList(ctx context.Context, key TKey) ([]string, error) {
	if idx.kind != KindList && idx.kind != KindUniqueList {
		return nil, fmt.Errorf("%w: GetList on %s index", ErrInvalidArgument, idx.kind)
	}
	v, err := idx.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return v.(List), nil
}

// GetRecord is Get for KindObject indexes.
func (idx *Index[TKey]) GetRecord(ctx context.Context, key TKey) (map[string]string, error) {
	if idx.kind != KindObject {
		return nil, fmt.Errorf("%w: GetRecord on %s index", ErrInvalidArgument, idx.kind)
	}
	v, err := idx.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return v.(Record), nil
}

// Delete removes everything stored under key. Unknown keys are a no-op.
func (idx *Index[TKey]) Delete(ctx context.Context, key TKey) error {
	if err := idx.checkKey(key); err != nil {
		return err
	}
	if err := idx.driver.Delete(ctx, idx.key(key)); err != nil {
		return idx.storeErr(ctx, "Delete", key, err)
	}
	return nil
}

// Update replaces key's data with value: a Delete followed by a Put.
// The two steps are not atomic; if the Put fails the key stays deleted.
func (idx *Index[TKey]) Update(ctx context.Context, key TKey, value Value) error {
	if err := idx.checkKey(key); err != nil {
		return err
	}
	if err := idx.checkValue(value); err != nil {
		return err
	}
	if err := idx.Delete(ctx, key); err != nil {
		return err
	}
	return idx.put(ctx, key, value)
}

// Search returns the keys starting with prefix, in no particular order.
// prefix may contain the store's glob syntax (*, ?, [...]).
func (idx *Index[TKey]) Search(ctx context.Context, prefix string) ([]TKey, error) {
	pattern := escapeGlob(idx.namespace) + prefix + "*"
	fullKeys, err := idx.driver.Keys(ctx, pattern)
	if errors.Is(err, ErrInvalidPattern) {
		return nil, fmt.Errorf("%w: search %q: %w", ErrInvalidArgument, prefix, err)
	}
	if err != nil {
		idx.logf("error", ctx, "Search pattern=%s failed: %v", prefix, err)
		return nil, fmt.Errorf("%w: search %q: %w", ErrStore, prefix, err)
	}

	keys := make([]TKey, 0, len(fullKeys))
	for _, fullKey := range fullKeys {
		if k, ok := strings.CutPrefix(fullKey, idx.namespace); ok && k != "" {
			keys = append(keys, TKey(k))
		}
	}
	return keys, nil
}

// Keys returns every key in the namespace.
func (idx *Index[TKey]) Keys(ctx context.Context) ([]TKey, error) {
	return idx.Search(ctx, "")
}

// Size returns the number of keys in the namespace.
func (idx *Index[TKey]) Size(ctx context.Context) (int, error) {
	keys, err := idx.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Clear deletes every key in the namespace, running the deletes concurrently.
// Keys written while Clear runs may survive it.
func (idx *Index[TKey]) Clear(ctx context.Context) error {
	keys, err := idx.Keys(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.clearConcurrency)
	for _, k := range keys {
		g.Go(func() error {
			return idx.Delete(gctx, k)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	idx.logf("debug", ctx, "Clear removed %d keys", len(keys))
	return nil
}

// escapeGlob quotes the characters the store's KEYS matcher treats specially.
func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\{}`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '{', '}':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
