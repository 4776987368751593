package domain

// ID is used across domain entities.
type ID int64

// Pagination carries paging params and totals.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total,omitempty"`
}

// RequestContext carries authenticated user info when available.
type RequestContext struct {
	UserID ID     `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (rc RequestContext) IsAdmin() bool {
	return rc.Role == "admin"
}
