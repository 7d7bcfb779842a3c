package domain

// Paging bounds for log listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SyncLogFilter selects sync logs for operational listings.
type SyncLogFilter struct {
	Type   *SyncLogType
	Status *SyncRunStatus
	Page   int
	Limit  int
}

// Normalize clamps paging to sane values.
func (f SyncLogFilter) Normalize() SyncLogFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f
}

// Offset returns the row offset of the current page.
func (f SyncLogFilter) Offset() int {
	n := f.Normalize()
	return (n.Page - 1) * n.Limit
}
