package automation

import "errors"

// Sentinel errors for the automation service layer.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateKeyword = errors.New("theme keyword already exists")
	ErrNotPending       = errors.New("suggestion is not pending")
)
