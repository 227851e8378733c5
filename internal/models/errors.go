package models

import "errors"

var (
	// ErrGeneral describes a general error with no useful information for the
	// end user. Check server logs for details.
	ErrGeneral = errors.New("an error occurred on the server during your request")

	// ErrResourceNotFound is wrapped with the resource name by the query callback.
	ErrResourceNotFound = errors.New("there is no")

	ErrRuleExists            = errors.New("a pattern rule for this pattern already exists")
	ErrCategoryNameNotUnique = errors.New("the category name is already in use for this parent")

	ErrKindInvalid     = errors.New("the category kind must be one of expense, investment or income")
	ErrKindMismatch    = errors.New("a category must have the same kind as its parent category")
	ErrPatternEmpty    = errors.New("the pattern of a rule must not be empty")
	ErrConfidenceRange = errors.New("the confidence must be between 0 and 1")
)
