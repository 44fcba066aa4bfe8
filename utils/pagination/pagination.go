package pagination

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"elasticsearch-demo-backend/search"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaginationParams are the query parameters of a list endpoint. Page is
// 1-based as seen by API clients.
type PaginationParams struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Sort     string            `json:"sort"`
	Filters  map[string]string `json:"filters"`
}

type PaginationMeta struct {
	CurrentPage int     `json:"current_page"`
	PageSize    int     `json:"page_size"`
	TotalPages  int     `json:"total_pages"`
	TotalItems  int64   `json:"total_items"`
	NextPage    *string `json:"next_page"`
	PrevPage    *string `json:"prev_page"`
}

type PaginatedResponse struct {
	Items      interface{}    `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

func ParsePaginationParams(c *fiber.Ctx) PaginationParams {
	filters := make(map[string]string)
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		if k != "page" && k != "page_size" && k != "sort" {
			filters[k] = string(value)
		}
	})

	return PaginationParams{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", DefaultPageSize),
		Sort:     c.Query("sort"),
		Filters:  filters,
	}
}

func ValidatePaginationParams(params PaginationParams) error {
	if params.Page < 1 {
		return fmt.Errorf("page must be greater than 0")
	}
	if params.PageSize < 1 || params.PageSize > MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d", MaxPageSize)
	}
	if params.Page > search.MaxResultWindow/params.PageSize {
		return fmt.Errorf("page %d is beyond the result window of %d documents", params.Page, search.MaxResultWindow)
	}
	return nil
}

// PageRequest converts the 1-based API page into the 0-based search page.
func (p PaginationParams) PageRequest() search.PageRequest {
	return search.PageOf(p.Page-1, p.PageSize)
}

func (p PaginationParams) Sorts() []search.Sort {
	return search.ParseSort(p.Sort)
}

func buildPaginationURL(c *fiber.Ctx, page int, params PaginationParams) string {
	q := url.Values{}
	if params.PageSize != DefaultPageSize {
		q.Set("page_size", strconv.Itoa(params.PageSize))
	}
	if params.Sort != "" {
		q.Set("sort", params.Sort)
	}
	keys := make([]string, 0, len(params.Filters))
	for k := range params.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := params.Filters[k]; v != "" {
			q.Set(k, v)
		}
	}
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s://%s%s?%s", c.Protocol(), c.Hostname(), c.Path(), q.Encode())
}

// NewPaginatedResponse renders a search page with links to its neighbours.
func NewPaginatedResponse[T any](c *fiber.Ctx, page *search.Page[T], params PaginationParams) PaginatedResponse {
	var nextPageURL, prevPageURL *string

	if page.HasNext() {
		next := buildPaginationURL(c, params.Page+1, params)
		nextPageURL = &next
	}
	if page.HasPrevious() {
		prev := buildPaginationURL(c, params.Page-1, params)
		prevPageURL = &prev
	}

	return PaginatedResponse{
		Items: page.Content,
		Pagination: PaginationMeta{
			CurrentPage: params.Page,
			PageSize:    params.PageSize,
			TotalPages:  page.TotalPages(),
			TotalItems:  page.TotalElements,
			NextPage:    nextPageURL,
			PrevPage:    prevPageURL,
		},
	}
}
