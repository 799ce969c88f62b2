package models

import (
	"strings"

	"github.com/dmitrijs2005/conduit/internal/common"
)

// Listing defaults and limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Sortable article columns.
const (
	OrderByCreatedAt = "createdAt"
	OrderByUpdatedAt = "updatedAt"
	OrderByTitle     = "title"
)

// ArticleQuery filters and paginates article listings.
type ArticleQuery struct {
	Limit     int
	Offset    int
	Author    string // author username
	Tag       string // tag name
	Favorited string // username of a user who favorited the article
	OrderBy   string
	Order     string // ASC or DESC
}

func normalizePage(limit, offset *int) error {
	switch {
	case *limit == 0:
		*limit = DefaultLimit
	case *limit < 0:
		return common.NewValidationError("limit", "must be positive")
	case *limit > MaxLimit:
		*limit = MaxLimit
	}

	if *offset < 0 {
		return common.NewValidationError("offset", "must not be negative")
	}
	return nil
}

// Normalize fills defaults and rejects values outside the accepted ranges.
func (q *ArticleQuery) Normalize() error {
	if err := normalizePage(&q.Limit, &q.Offset); err != nil {
		return err
	}

	switch q.OrderBy {
	case "":
		q.OrderBy = OrderByCreatedAt
	case OrderByCreatedAt, OrderByUpdatedAt, OrderByTitle:
	default:
		return common.NewValidationError("orderBy", "must be one of createdAt, updatedAt, title")
	}

	q.Order = strings.ToUpper(q.Order)
	switch q.Order {
	case "":
		q.Order = "DESC"
	case "ASC", "DESC":
	default:
		return common.NewValidationError("order", "must be ASC or DESC")
	}

	return nil
}

// ArticlePage is one page of a listing plus the total number of matches.
type ArticlePage struct {
	Articles []*Article
	Total    int
}

// UserQuery paginates the user listing, ordered by username.
type UserQuery struct {
	Limit  int
	Offset int
}

func (q *UserQuery) Normalize() error {
	return normalizePage(&q.Limit, &q.Offset)
}

type UserPage struct {
	Users []*User
	Total int
}
