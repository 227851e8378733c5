// Package v1 implements the HTTP handlers of the categorization API.
package v1

import (
	"errors"
	"net/http"

	"github.com/AvnerAdda/shekelsync-sub000/internal/assignment"
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
)

type URIID struct {
	ID uint64 `uri:"id" binding:"required"` // ID of the resource
}

// URIKey addresses a transaction by its composite "identifier|vendor" key.
type URIKey struct {
	Key string `uri:"key" binding:"required" example:"8837164|leumi"`
}

type Pagination struct {
	Count  int   `json:"count"`  // The amount of records returned in this response
	Offset uint  `json:"offset"` // The offset for the first record returned
	Limit  int   `json:"limit"`  // The maximum amount of resources to return for this request
	Total  int64 `json:"total"`  // The total number of resources matching the query
}

type httpError struct {
	Error string `json:"error" example:"there is no category matching your query"`
}

// status returns the appropriate HTTP status for an engine or database error
func status(err error) int {
	switch {
	case errors.Is(err, models.ErrGeneral):
		return http.StatusInternalServerError

	case errors.Is(err, models.ErrResourceNotFound),
		errors.Is(err, assignment.ErrNotUnderReview):
		return http.StatusNotFound

	case errors.Is(err, models.ErrRuleExists),
		errors.Is(err, models.ErrCategoryNameNotUnique),
		errors.Is(err, assignment.ErrCommitInFlight):
		return http.StatusConflict

	default:
		return http.StatusBadRequest
	}
}
