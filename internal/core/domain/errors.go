package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrPurposeMismatch    = errors.New("token purpose mismatch")
	ErrAggregateNotFound  = errors.New("not found")
	ErrAuthorUnresolvable = errors.New("author unresolvable")
	ErrDuplicateRequest   = errors.New("duplicate request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTransportFailure   = errors.New("notification transport failure")
)

var (
	ErrAlreadyConfirmed   = errors.New("email already confirmed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidSnapshot    = errors.New("invalid archive snapshot")
	ErrInvalidPost        = errors.New("post needs a title and a body")
	ErrAPIKeyBlocked      = errors.New("api key blocked")
	ErrLocked             = errors.New("aggregate is locked by another writer")
)

// Lookup failures wrap ErrAggregateNotFound so callers may match either the
// specific error or the generic one.
var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrAggregateNotFound)
	ErrPostNotFound    = fmt.Errorf("post %w", ErrAggregateNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrAggregateNotFound)
	ErrReplyNotFound   = fmt.Errorf("reply %w", ErrAggregateNotFound)
	ErrArchiveNotFound = fmt.Errorf("archived post %w", ErrAggregateNotFound)
	ErrReportNotFound  = fmt.Errorf("deletion report %w", ErrAggregateNotFound)
	ErrAPIKeyNotFound  = fmt.Errorf("api key %w", ErrAggregateNotFound)
)
