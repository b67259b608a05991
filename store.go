package nsindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration   = errors.New("nsindex: configuration error")
	ErrInvalidArgument = errors.New("nsindex: invalid argument")
	ErrStore           = errors.New("nsindex: store error")
	ErrTypeMismatch    = errors.New("nsindex: type mismatch")
	ErrInvalidPattern  = errors.New("nsindex: invalid pattern")
)

// Separator terminates every non-empty namespace.
const Separator = ":"

const defaultClearConcurrency = 16

// Driver is the command set an Index needs from the key-value store.
// Keys are physical keys, already namespaced. Implementations must be thread-safe.
type Driver interface {
	Set(ctx context.Context, key, value string) error
	// Get reports found=false, with a nil error, for a missing key.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Delete(ctx context.Context, key string) error

	// List operations. LRange returns the whole list, head first.
	LPush(ctx context.Context, key, value string) error
	LRange(ctx context.Context, key string) ([]string, error)

	// Hash operations
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// Keys enumerates physical keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	Close() error
}

// UniquePusher is implemented by drivers that can prepend a value to a list
// only when the list does not already hold it, as one store-side step.
type UniquePusher interface {
	LPushUnique(ctx context.Context, key, value string) (pushed bool, err error)
}

// Option customizes Index behavior.
type Option[TKey ~string] func(*Index[TKey])

// WithKind fixes the storage shape of the index. KindList is the default.
func WithKind[TKey ~string](k Kind) Option[TKey] {
	return func(idx *Index[TKey]) {
		idx.kind = k
	}
}

// WithDriver specifies the storage driver.
// If not provided, NewMemory() will be used.
func WithDriver[TKey ~string](d Driver) Option[TKey] {
	return func(idx *Index[TKey]) {
		if d != nil {
			idx.driver = d
			idx.ownsDriver = false
		}
	}
}

// WithLogger specifies a logger for operation logging.
// If not provided, a no-op logger is used (no logging).
func WithLogger[TKey ~string](logger Logger) Option[TKey] {
	return func(idx *Index[TKey]) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// WithLogTag sets a tag prefix for all log messages.
func WithLogTag[TKey ~string](tag string) Option[TKey] {
	return func(idx *Index[TKey]) {
		idx.logTag = tag
	}
}

// WithAtomicUnique makes KindUniqueList puts use the driver's UniquePusher,
// when it has one, instead of a separate read and write. With it enabled,
// concurrent puts of the same value can no longer produce a duplicate.
func WithAtomicUnique[TKey ~string](enabled bool) Option[TKey] {
	return func(idx *Index[TKey]) {
		idx.atomicUnique = enabled
	}
}

// WithClearConcurrency bounds the number of deletes Clear keeps in flight.
// Values below 1 are ignored.
func WithClearConcurrency[TKey ~string](n int) Option[TKey] {
	return func(idx *Index[TKey]) {
		if n > 0 {
			idx.clearConcurrency = n
		}
	}
}

// Index is a namespaced view over a Driver with a fixed Kind.
// It keeps no data of its own; every read goes to the store.
type Index[TKey ~string] struct {
	namespace        string
	kind             Kind
	driver           Driver
	ownsDriver       bool
	logger           Logger
	logTag           string
	atomicUnique     bool
	clearConcurrency int
}

// New creates an Index over namespace.
// A non-empty namespace gets Separator appended unless it already ends with it.
// If no driver is provided via WithDriver, NewMemory() is used.
func New[TKey ~string](namespace string, opts ...Option[TKey]) (*Index[TKey], error) {
	idx, err := build(namespace, opts)
	if err != nil {
		return nil, err
	}
	if idx.driver == nil {
		idx.driver = NewMemory()
		idx.ownsDriver = true
	}
	return idx, nil
}

// build applies opts over the defaults and validates the result.
// The driver is left nil when no option set one.
func build[TKey ~string](namespace string, opts []Option[TKey]) (*Index[TKey], error) {
	idx := &Index[TKey]{
		namespace:        normalizeNamespace(namespace),
		kind:             KindList,
		logger:           defaultLogger,
		clearConcurrency: defaultClearConcurrency,
	}
	for _, opt := range opts {
		opt(idx)
	}
	if _, ok := kindNames[idx.kind]; !ok {
		return nil, fmt.Errorf("%w: unknown index kind %d", ErrConfiguration, int(idx.kind))
	}
	return idx, nil
}

func normalizeNamespace(ns string) string {
	if ns == "" || strings.HasSuffix(ns, Separator) {
		return ns
	}
	return ns + Separator
}

// Namespace returns the normalized key prefix.
func (idx *Index[TKey]) Namespace() string { return idx.namespace }

// Kind returns the storage shape of the index.
func (idx *Index[TKey]) Kind() Kind { return idx.kind }

// Close releases the driver if the index created it. Shared drivers stay open.
func (idx *Index[TKey]) Close() error {
	if !idx.ownsDriver {
		return nil
	}
	if err := idx.driver.Close(); err != nil {
		idx.logf("error", context.Background(), "Close failed: %v", err)
		return fmt.Errorf("%w: close: %w", ErrStore, err)
	}
	return nil
}

func (idx *Index[TKey]) key(k TKey) string {
	return idx.namespace + string(k)
}

func (idx *Index[TKey]) logf(level string, ctx context.Context, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if idx.logTag != "" {
		msg = idx.logTag + " " + msg
	}
	switch level {
	case "info":
		idx.logger.Info(ctx, "%s", msg)
	case "warn":
		idx.logger.Warn(ctx, "%s", msg)
	case "error":
		idx.logger.Error(ctx, "%s", msg)
	case "debug":
		idx.logger.Debug(ctx, "%s", msg)
	}
}

// storeErr logs a driver failure and wraps it with ErrStore.
func (idx *Index[TKey]) storeErr(ctx context.Context, op string, key TKey, err error) error {
	idx.logf("error", ctx, "%s %s failed: %v", op, key, err)
	return fmt.Errorf("%w: %s %q: %w", ErrStore, op, string(key), err)
}
