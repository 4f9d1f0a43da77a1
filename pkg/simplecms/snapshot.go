package simplecms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"sync"
)

// Locker hands out one mutex per snapshot name. Every read-modify-write of a
// name runs under its mutex, so writers sharing a Locker never lose updates.
type Locker struct {
	mu    sync.Mutex
	names map[string]*sync.Mutex
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{names: make(map[string]*sync.Mutex)}
}

// For returns the mutex guarding name.
func (l *Locker) For(name string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.names[name]
	if !ok {
		m = &sync.Mutex{}
		l.names[name] = m
	}
	return m
}

// SnapshotOption configures a Collection or Document.
type SnapshotOption func(*snapshotConfig)

type snapshotConfig struct {
	migrator *Migrator
	locker   *Locker
	events   EventSink
	logger   *slog.Logger
}

// WithMigrator sets the migration chain applied on load.
func WithMigrator(m *Migrator) SnapshotOption {
	return func(c *snapshotConfig) {
		c.migrator = m
	}
}

// WithLocker shares a Locker between snapshots of the same store.
func WithLocker(l *Locker) SnapshotOption {
	return func(c *snapshotConfig) {
		c.locker = l
	}
}

// WithSnapshotEvents sets the sink notified after saves.
func WithSnapshotEvents(sink EventSink) SnapshotOption {
	return func(c *snapshotConfig) {
		c.events = sink
	}
}

// WithSnapshotLogger sets the logger.
func WithSnapshotLogger(logger *slog.Logger) SnapshotOption {
	return func(c *snapshotConfig) {
		c.logger = logger
	}
}

func newSnapshotConfig(opts []SnapshotOption) snapshotConfig {
	cfg := snapshotConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.migrator == nil {
		cfg.migrator = DefaultMigrator()
	}
	if cfg.locker == nil {
		cfg.locker = NewLocker()
	}
	if cfg.events == nil {
		cfg.events = NewNoopEventSink()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

type collectionEnvelope struct {
	SchemaVersion int               `json:"schemaVersion"`
	Items         []json.RawMessage `json:"items"`
}

type documentEnvelope struct {
	SchemaVersion int             `json:"schemaVersion"`
	Value         json.RawMessage `json:"value"`
}

// decodeItems accepts both the versioned envelope and a legacy bare array.
func decodeItems(data []byte, migrator *Migrator) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var env collectionEnvelope
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &env.Items); err != nil {
			return nil, err
		}
	} else if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}

	items := make([]json.RawMessage, 0, len(env.Items))
	for _, raw := range env.Items {
		upgraded, err := migrator.Upgrade(env.SchemaVersion, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, upgraded)
	}
	return items, nil
}

// decodeValue accepts both the versioned envelope and a legacy bare object.
func decodeValue(data []byte, migrator *Migrator) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var probe map[string]json.RawMessage
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, err
		}
	}

	version := 0
	value := json.RawMessage(trimmed)
	if _, tagged := probe["schemaVersion"]; tagged {
		var env documentEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		version, value = env.SchemaVersion, env.Value
	}
	return migrator.Upgrade(version, value)
}

// Collection is a named, whole-collection snapshot of records. It is the
// repository over a SnapshotStore: every mutation loads the full collection,
// changes it in memory and writes it back in one Put.
type Collection[T Record] struct {
	name  string
	store SnapshotStore
	cfg   snapshotConfig
}

// NewCollection creates a collection stored under name.
func NewCollection[T Record](store SnapshotStore, name string, opts ...SnapshotOption) *Collection[T] {
	return &Collection[T]{
		name:  name,
		store: store,
		cfg:   newSnapshotConfig(opts),
	}
}

// Name returns the snapshot name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Load reads the whole collection. A missing name yields an empty slice.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	data, err := c.store.Get(ctx, c.name)
	if errors.Is(err, ErrSnapshotNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, &CollectionError{Name: c.name, Op: "load", Err: err}
	}

	raws, err := decodeItems(data, c.cfg.migrator)
	if err != nil {
		return nil, &CollectionError{Name: c.name, Op: "decode", Err: err}
	}

	items := make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &CollectionError{Name: c.name, Op: "decode", Err: err}
		}
		if isNil(item) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Save overwrites the stored collection with items.
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	mu := c.cfg.locker.For(c.name)
	mu.Lock()
	defer mu.Unlock()
	return c.write(ctx, items)
}

// Update loads the collection, applies fn and writes the result, all under
// the name's lock. If fn or the write fails nothing is stored and the error
// is returned; callers keep their previous state.
func (c *Collection[T]) Update(ctx context.Context, fn func(items []T) ([]T, error)) ([]T, error) {
	mu := c.cfg.locker.For(c.name)
	mu.Lock()
	defer mu.Unlock()

	items, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := fn(items)
	if err != nil {
		return nil, err
	}
	if err := c.write(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Get returns the first record with id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	items, err := c.Load(ctx)
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if item.GetID() == id {
			return item, nil
		}
	}
	return zero, ErrRecordNotFound
}

// Insert appends record, failing with ErrDuplicateID if its id is taken.
func (c *Collection[T]) Insert(ctx context.Context, record T) error {
	_, err := c.Update(ctx, func(items []T) ([]T, error) {
		for _, item := range items {
			if item.GetID() == record.GetID() {
				return nil, ErrDuplicateID
			}
		}
		return append(items, record), nil
	})
	return err
}

// Upsert replaces the record with the same id, or appends it.
func (c *Collection[T]) Upsert(ctx context.Context, record T) error {
	_, err := c.Update(ctx, func(items []T) ([]T, error) {
		for i, item := range items {
			if item.GetID() == record.GetID() {
				items[i] = record
				return items, nil
			}
		}
		return append(items, record), nil
	})
	return err
}

// Remove deletes every record with id.
func (c *Collection[T]) Remove(ctx context.Context, id string) error {
	_, err := c.Update(ctx, func(items []T) ([]T, error) {
		kept := items[:0]
		removed := false
		for _, item := range items {
			if item.GetID() == id {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		if !removed {
			return nil, ErrRecordNotFound
		}
		return kept, nil
	})
	return err
}

// List returns one page of records matching opts.Query.
func (c *Collection[T]) List(ctx context.Context, opts ListOptions) (Page[T], error) {
	items, err := c.Load(ctx)
	if err != nil {
		return Page[T]{}, err
	}
	return Paginate(Search(items, opts.Query), opts.Page, opts.PageSize), nil
}

func (c *Collection[T]) write(ctx context.Context, items []T) error {
	env := collectionEnvelope{
		SchemaVersion: c.cfg.migrator.Latest(),
		Items:         make([]json.RawMessage, 0, len(items)),
	}
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return &CollectionError{Name: c.name, Op: "encode", Err: err}
		}
		env.Items = append(env.Items, raw)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return &CollectionError{Name: c.name, Op: "encode", Err: err}
	}

	if err := c.store.Put(ctx, c.name, data); err != nil {
		c.cfg.logger.Error("Failed to save collection", "name", c.name, "error", err)
		return &CollectionError{Name: c.name, Op: "save", Err: err}
	}
	c.cfg.logger.Debug("Collection saved", "name", c.name, "count", len(items))

	if err := c.cfg.events.CollectionSaved(ctx, c.name, len(items)); err != nil {
		c.cfg.logger.Warn("Event sink failed", "event", "collection_saved", "name", c.name, "error", err)
	}
	return nil
}

// Document is a named single-value snapshot such as a page settings record.
type Document[T any] struct {
	name  string
	store SnapshotStore
	cfg   snapshotConfig
}

// NewDocument creates a document stored under name.
func NewDocument[T any](store SnapshotStore, name string, opts ...SnapshotOption) *Document[T] {
	return &Document[T]{
		name:  name,
		store: store,
		cfg:   newSnapshotConfig(opts),
	}
}

// Name returns the snapshot name.
func (d *Document[T]) Name() string {
	return d.name
}

// Load reads the value. A missing name yields the zero value.
func (d *Document[T]) Load(ctx context.Context) (T, error) {
	var value T
	data, err := d.store.Get(ctx, d.name)
	if errors.Is(err, ErrSnapshotNotFound) {
		return value, nil
	}
	if err != nil {
		return value, &CollectionError{Name: d.name, Op: "load", Err: err}
	}

	raw, err := decodeValue(data, d.cfg.migrator)
	if err != nil {
		return value, &CollectionError{Name: d.name, Op: "decode", Err: err}
	}
	if raw == nil {
		return value, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, &CollectionError{Name: d.name, Op: "decode", Err: err}
	}
	return value, nil
}

// Save overwrites the stored value.
func (d *Document[T]) Save(ctx context.Context, value T) error {
	mu := d.cfg.locker.For(d.name)
	mu.Lock()
	defer mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		return &CollectionError{Name: d.name, Op: "encode", Err: err}
	}
	data, err := json.Marshal(documentEnvelope{SchemaVersion: d.cfg.migrator.Latest(), Value: raw})
	if err != nil {
		return &CollectionError{Name: d.name, Op: "encode", Err: err}
	}
	if err := d.store.Put(ctx, d.name, data); err != nil {
		d.cfg.logger.Error("Failed to save document", "name", d.name, "error", err)
		return &CollectionError{Name: d.name, Op: "save", Err: err}
	}

	if err := d.cfg.events.CollectionSaved(ctx, d.name, 1); err != nil {
		d.cfg.logger.Warn("Event sink failed", "event", "collection_saved", "name", d.name, "error", err)
	}
	return nil
}

// Delete removes the stored value.
func (d *Document[T]) Delete(ctx context.Context) error {
	mu := d.cfg.locker.For(d.name)
	mu.Lock()
	defer mu.Unlock()

	if err := d.store.Delete(ctx, d.name); err != nil {
		return &CollectionError{Name: d.name, Op: "delete", Err: err}
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
