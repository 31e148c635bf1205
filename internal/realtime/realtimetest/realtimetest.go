// Package realtimetest provides an in-memory realtime.Database for tests.
//
// It records every call made through its references so tests can assert
// that arguments reach the database unchanged, resolves the ".sv" server
// value directives on write, and can be switched into a failing mode that
// makes every operation return a fixed error.
package realtimetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"click-war/internal/realtime"

	"firebase.google.com/go/v4/db"
)

const maxTransactionAttempts = 25

// ErrTooManyAttempts is returned when a transaction keeps conflicting.
var ErrTooManyAttempts = errors.New("transaction aborted after failed retries")

// Call is one recorded operation.
type Call struct {
	Op   string
	Path string
	Arg  any
}

// Database is an in-memory tree of JSON values.
type Database struct {
	mu    sync.Mutex
	root  any
	calls []Call
	err   error
	now   func() time.Time

	// beforeCommit runs between a transaction's read and its write.
	beforeCommit func(path string)
}

var _ realtime.Database = (*Database)(nil)

// New returns an empty Database.
func New() *Database {
	return &Database{now: time.Now}
}

// NewRef returns a reference to path.
func (d *Database) NewRef(path string) realtime.Reference {
	return &ref{db: d, segs: splitPath(path)}
}

// Calls returns a copy of the recorded calls.
func (d *Database) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// CallsFor returns the recorded calls with the given op.
func (d *Database) CallsFor(op string) []Call {
	var out []Call
	for _, c := range d.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets the recorded calls.
func (d *Database) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// FailWith makes every subsequent operation return err. A nil err restores
// normal behavior.
func (d *Database) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// SetClock replaces the clock used to resolve server timestamps.
func (d *Database) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// BeforeCommit registers a hook run after a transaction has read the
// current value and before it writes, to simulate a concurrent writer.
func (d *Database) BeforeCommit(fn func(path string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.beforeCommit = fn
}

// Seed writes v at path without recording a call.
func (d *Database) Seed(path string, v any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(splitPath(path), v)
}

// Value returns a copy of the decoded value at path without recording a
// call. Later writes do not change what it returned.
func (d *Database) Value(path string) any {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := normalize(lookup(d.root, splitPath(path)))
	if err != nil {
		// The tree only ever holds decoded JSON.
		panic(fmt.Sprintf("realtimetest: copy %s: %v", path, err))
	}
	return v
}

func (d *Database) record(op string, segs []string, arg any) error {
	d.calls = append(d.calls, Call{Op: op, Path: joinPath(segs), Arg: arg})
	return d.err
}

func (d *Database) read(segs []string) (json.RawMessage, string, error) {
	b, err := json.Marshal(lookup(d.root, segs))
	if err != nil {
		return nil, "", err
	}
	return b, etag(b), nil
}

func (d *Database) write(segs []string, v any) error {
	normalized, err := normalize(v)
	if err != nil {
		return err
	}
	resolved := resolve(normalized, lookup(d.root, segs), d.now())
	if isEmpty(resolved) {
		d.root = remove(d.root, segs)
		return nil
	}
	d.root = store(d.root, segs, resolved)
	return nil
}

type ref struct {
	db   *Database
	segs []string
}

func (r *ref) Path() string {
	return joinPath(r.segs)
}

func (r *ref) Child(path string) realtime.Reference {
	segs := append(append([]string{}, r.segs...), splitPath(path)...)
	return &ref{db: r.db, segs: segs}
}

func (r *ref) Get(ctx context.Context, v any) error {
	_, err := r.readInto(ctx, "get", v)
	return err
}

func (r *ref) GetWithETag(ctx context.Context, v any) (string, error) {
	return r.readInto(ctx, "get-with-etag", v)
}

func (r *ref) readInto(ctx context.Context, op string, v any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.record(op, r.segs, nil); err != nil {
		return "", err
	}
	raw, tag, err := r.db.read(r.segs)
	if err != nil {
		return "", err
	}
	return tag, json.Unmarshal(raw, v)
}

func (r *ref) GetIfChanged(ctx context.Context, tag string, v any) (bool, string, error) {
	if err := ctx.Err(); err != nil {
		return false, "", err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.record("get-if-changed", r.segs, tag); err != nil {
		return false, "", err
	}
	raw, current, err := r.db.read(r.segs)
	if err != nil {
		return false, "", err
	}
	if current == tag {
		return false, tag, nil
	}
	return true, current, json.Unmarshal(raw, v)
}

func (r *ref) Set(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.record("set", r.segs, v); err != nil {
		return err
	}
	return r.db.write(r.segs, v)
}

func (r *ref) Update(ctx context.Context, v map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.record("update", r.segs, v); err != nil {
		return err
	}
	if len(v) == 0 {
		return errors.New("value argument must be a non-empty map")
	}
	for child, value := range v {
		segs := append(append([]string{}, r.segs...), splitPath(child)...)
		if err := r.db.write(segs, value); err != nil {
			return fmt.Errorf("update %s: %w", child, err)
		}
	}
	return nil
}

func (r *ref) Transaction(ctx context.Context, fn db.UpdateFn) error {
	r.db.mu.Lock()
	err := r.db.record("transaction", r.segs, nil)
	r.db.mu.Unlock()
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxTransactionAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.db.mu.Lock()
		raw, tag, err := r.db.read(r.segs)
		hook := r.db.beforeCommit
		r.db.mu.Unlock()
		if err != nil {
			return err
		}

		next, err := fn(node(raw))
		if err != nil {
			return err
		}
		if hook != nil {
			hook(r.Path())
		}

		r.db.mu.Lock()
		_, current, err := r.db.read(r.segs)
		if err == nil && current == tag {
			err = r.db.write(r.segs, next)
			r.db.mu.Unlock()
			return err
		}
		r.db.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return ErrTooManyAttempts
}

type node json.RawMessage

func (n node) Unmarshal(v any) error {
	return json.Unmarshal(n, v)
}

func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func joinPath(segs []string) string {
	return "/" + strings.Join(segs, "/")
}

func etag(b []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return fmt.Sprintf("%016x", h.Sum64())
}
