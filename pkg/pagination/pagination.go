package pagination

import "gorm.io/gorm"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Offset int
}

// Page is the list envelope returned by every collection endpoint.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps the limit and floors the offset at zero.
func (p Params) Normalize() Params {
	if p.Offset < 0 {
		p.Offset = 0
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Scope applies the normalized limit and offset to a query.
func (p Params) Scope() func(*gorm.DB) *gorm.DB {
	n := p.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(n.Limit).Offset(n.Offset)
	}
}

// NewPage builds a page, never returning a nil Items slice.
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	n := p.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Limit: n.Limit, Offset: n.Offset}
}
