package audit

import "context"

// Writer appends entries. Domain repositories implement it on their
// transaction handle so an entry commits together with its mutation.
type Writer interface {
	AppendEntry(ctx context.Context, entry *Entry) error
}

type Repository interface {
	ListEntries(ctx context.Context, filter ListFilter) ([]Entry, int64, error)
}
