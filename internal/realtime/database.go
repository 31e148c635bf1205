package realtime

import (
	"context"

	"firebase.google.com/go/v4/db"
)

// Reference is a path-addressed handle into the database tree. It mirrors
// the subset of *db.Ref the application uses so tests can substitute it.
type Reference interface {
	Path() string
	Child(path string) Reference
	Get(ctx context.Context, v any) error
	GetWithETag(ctx context.Context, v any) (string, error)
	GetIfChanged(ctx context.Context, etag string, v any) (bool, string, error)
	Set(ctx context.Context, v any) error
	Update(ctx context.Context, v map[string]any) error
	Transaction(ctx context.Context, fn db.UpdateFn) error
}

// Database hands out references rooted at the database's top-level node.
type Database interface {
	NewRef(path string) Reference
}

// FromFirebase adapts a Firebase Realtime Database client.
func FromFirebase(client *db.Client) Database {
	return firebaseDatabase{client: client}
}

type firebaseDatabase struct {
	client *db.Client
}

func (d firebaseDatabase) NewRef(path string) Reference {
	return firebaseRef{ref: d.client.NewRef(path)}
}

type firebaseRef struct {
	ref *db.Ref
}

func (r firebaseRef) Path() string {
	return r.ref.Path
}

func (r firebaseRef) Child(path string) Reference {
	return firebaseRef{ref: r.ref.Child(path)}
}

func (r firebaseRef) Get(ctx context.Context, v any) error {
	return r.ref.Get(ctx, v)
}

func (r firebaseRef) GetWithETag(ctx context.Context, v any) (string, error) {
	return r.ref.GetWithETag(ctx, v)
}

func (r firebaseRef) GetIfChanged(ctx context.Context, etag string, v any) (bool, string, error) {
	return r.ref.GetIfChanged(ctx, etag, v)
}

func (r firebaseRef) Set(ctx context.Context, v any) error {
	return r.ref.Set(ctx, v)
}

func (r firebaseRef) Update(ctx context.Context, v map[string]any) error {
	return r.ref.Update(ctx, v)
}

func (r firebaseRef) Transaction(ctx context.Context, fn db.UpdateFn) error {
	return r.ref.Transaction(ctx, fn)
}
