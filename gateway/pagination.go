package gateway

import (
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-attendance-admin/internal/utils"
)

const DefaultPageLimit = 20

// PageQuery is a 1-based page request. The API takes it as limit/offset.
type PageQuery struct {
	Page  int
	Limit int
}

func (p PageQuery) normalised() PageQuery {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	return p
}

func (p PageQuery) Offset() int {
	p = p.normalised()
	return utils.PageOffset(p.Page, p.Limit)
}

// LimitOffset encodes the page as limit and offset query parameters
func (p PageQuery) LimitOffset() url.Values {
	p = p.normalised()
	return url.Values{
		"limit":  {strconv.Itoa(p.Limit)},
		"offset": {strconv.Itoa(p.Offset())},
	}
}

// PageLimit encodes the page as page and limit query parameters
func (p PageQuery) PageLimit() url.Values {
	p = p.normalised()
	return url.Values{
		"page":  {strconv.Itoa(p.Page)},
		"limit": {strconv.Itoa(p.Limit)},
	}
}

type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	HasMore     bool `json:"hasMore"`
	TotalItems  int  `json:"totalItems"`
}

// NewPagination describes the window [offset, offset+limit) of total items
func NewPagination(total, limit, offset int) Pagination {
	if limit < 1 {
		limit = DefaultPageLimit
	}
	return Pagination{
		CurrentPage: offset/limit + 1,
		TotalPages:  (total + limit - 1) / limit,
		HasMore:     offset+limit < total,
		TotalItems:  total,
	}
}
