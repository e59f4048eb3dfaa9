package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 25

var pageSizes = map[int]bool{10: true, 25: true, 50: true, 100: true}

// PageQuery is the page/limit pair read from ?page=&limit=.
type PageQuery struct {
	Page  int
	Limit int
}

// Offset is the row offset of the first item on the page.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// PageMeta is returned next to every paginated list.
type PageMeta struct {
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	LastPage    int  `json:"last_page"`
	From        int  `json:"from"`
	To          int  `json:"to"`
	HasMore     bool `json:"has_more"`
}

type pagedResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Pagination PageMeta    `json:"pagination"`
}

// ParsePageQuery falls back to page 1 and the default size for anything
// outside the accepted page sizes.
func ParsePageQuery(c *fiber.Ctx) PageQuery {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if !pageSizes[limit] {
		limit = defaultPageSize
	}
	return PageQuery{Page: page, Limit: limit}
}

func NewPageMeta(q PageQuery, total int) PageMeta {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}

	meta := PageMeta{
		CurrentPage: q.Page,
		PerPage:     q.Limit,
		Total:       total,
		LastPage:    (total + q.Limit - 1) / q.Limit,
	}
	if total > 0 {
		meta.From = q.Offset() + 1
		meta.To = min(q.Page*q.Limit, total)
	}
	meta.HasMore = meta.CurrentPage < meta.LastPage
	return meta
}

func PagedResponse(c *fiber.Ctx, message string, data interface{}, meta PageMeta) error {
	return c.JSON(pagedResponse{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: meta,
	})
}
