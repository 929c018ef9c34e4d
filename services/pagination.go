package services

// Pagination describes the page window of a list response
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// PaginatedResponse wraps a result page together with its pagination block
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// paginationParams clamps page/limit to sane bounds and returns the offset
func paginationParams(page, limit int) (offset, limitNum, pageNum int) {
	pageNum = page
	if pageNum < 1 {
		pageNum = 1
	}
	limitNum = limit
	if limitNum < 1 {
		limitNum = defaultPageLimit
	}
	if limitNum > maxPageLimit {
		limitNum = maxPageLimit
	}
	offset = (pageNum - 1) * limitNum
	return offset, limitNum, pageNum
}

// paginatedResponse assembles the standard list envelope
func paginatedResponse(data interface{}, totalCount int64, page, limit int) *PaginatedResponse {
	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))
	return &PaginatedResponse{
		Data: data,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   totalCount,
			ItemsPerPage: limit,
			HasNextPage:  page < totalPages,
			HasPrevPage:  page > 1,
		},
	}
}
