// internal/domain/page.go
package domain

import "strings"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is the query state of a paginated listing. Page is 0-based and
// an empty Query means no filter.
type PageRequest struct {
	Page  int
	Size  int
	Query string
}

// Normalize clamps the request into the range the backend serves.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	r.Query = strings.TrimSpace(r.Query)
	return r
}

// Offset is the index of the first item of the requested page.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is the paginated listing envelope.
type Page struct {
	Content       []JobPosting `json:"content"`
	TotalElements int64        `json:"totalElements"`
	TotalPages    int          `json:"totalPages"`
	Number        int          `json:"number"`
	Size          int          `json:"size"`
	First         bool         `json:"first"`
	Last          bool         `json:"last"`
}

// NewPage builds the envelope for one page of a result set of total items.
// The caller must have fetched content for ClampPage(req, total).
func NewPage(content []JobPosting, total int64, req PageRequest) *Page {
	req = ClampPage(req, total)
	if content == nil {
		content = []JobPosting{}
	}
	if len(content) > req.Size {
		content = content[:req.Size]
	}
	totalPages := TotalPages(total, req.Size)
	return &Page{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Number:        req.Page,
		Size:          req.Size,
		First:         req.Page == 0,
		Last:          req.Page+1 >= totalPages,
	}
}

// TotalPages is the number of pages of size needed to hold total items.
func TotalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// ClampPage normalizes req and moves a page index past the end of a result
// set of total items back onto its last page, so that
// 0 <= Page < max(1, TotalPages) always holds.
func ClampPage(req PageRequest, total int64) PageRequest {
	req = req.Normalize()
	if last := TotalPages(total, req.Size) - 1; req.Page > last {
		req.Page = max(last, 0)
	}
	return req
}

// Paginate slices an already filtered and ordered result set.
func Paginate(all []JobPosting, req PageRequest) *Page {
	req = ClampPage(req, int64(len(all)))
	start := req.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + req.Size
	if end > len(all) {
		end = len(all)
	}
	content := make([]JobPosting, end-start)
	copy(content, all[start:end])
	return NewPage(content, int64(len(all)), req)
}
