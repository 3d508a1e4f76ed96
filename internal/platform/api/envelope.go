package api

// DefaultMessage is the message carried by successful envelopes.
const DefaultMessage = "Success"

// Envelope is the uniform response body of every catalog endpoint.
type Envelope[T any] struct {
	Success    bool        `json:"success" yaml:"success"`
	Message    string      `json:"message" yaml:"message"`
	Data       T           `json:"data" yaml:"data"`
	Pagination *Pagination `json:"pagination,omitempty" yaml:"pagination,omitempty"`
	RequestID  string      `json:"requestId,omitempty" yaml:"requestId,omitempty"`
}

// Pagination describes the page window of a list envelope.
type Pagination struct {
	Page        int  `json:"page" yaml:"page"`
	PageSize    int  `json:"pageSize" yaml:"pageSize"`
	TotalCount  int  `json:"totalCount" yaml:"totalCount"`
	TotalPages  int  `json:"totalPages" yaml:"totalPages"`
	HasPrevious bool `json:"hasPrevious" yaml:"hasPrevious"`
	HasNext     bool `json:"hasNext" yaml:"hasNext"`
}

// NewPagination fills the derived HasPrevious/HasNext flags.
func NewPagination(page, pageSize, totalCount, totalPages int) Pagination {
	return Pagination{
		Page:        page,
		PageSize:    pageSize,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}

func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Message: DefaultMessage, Data: data}
}

func Paginated[T any](items []T, p Pagination) Envelope[[]T] {
	if items == nil {
		items = []T{}
	}
	return Envelope[[]T]{Success: true, Message: DefaultMessage, Data: items, Pagination: &p}
}

// Fail builds a failure envelope; data is always null.
func Fail(message string) Envelope[any] {
	return Envelope[any]{Success: false, Message: message}
}
