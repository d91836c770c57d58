package notes

import "context"

type StoreAPI interface {
	FindByName(ctx context.Context, name string) ([]Note, error)
	// InsertUnique stores note unless one with the same name and non-empty
	// marker exists; created reports whether a row was written.
	InsertUnique(ctx context.Context, note Note) (stored Note, created bool, err error)
	// ReplaceByName deletes every note named note.Name and stores note, atomically.
	ReplaceByName(ctx context.Context, note Note) (Note, error)
	DeleteByName(ctx context.Context, name string) (int64, error)
	Get(ctx context.Context, id string) (Note, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Note, error)
	Count(ctx context.Context, filter Filter) (int, error)
	MarkActioned(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
