package pagination

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

type Params struct {
	Page     int
	PageSize int
}

// New clamps page to >= 1 and page size to (0, MaxPageSize].
func New(page, pageSize int) Params {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Params{Page: page, PageSize: pageSize}
}

func (p Params) Offset() int { return (p.Page - 1) * p.PageSize }

func (p Params) Limit() int { return p.PageSize }

// Result is a page of items plus the total count when the query knows it.
type Result[T any] struct {
	Items      []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewResult[T any](items []T, p Params, total int64) *Result[T] {
	if items == nil {
		items = []T{}
	}
	return &Result[T]{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: totalPages(total, p.PageSize),
	}
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
