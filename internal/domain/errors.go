package domain

import "errors"

var (
	ErrMalformedRecord   = errors.New("malformed record")
	ErrMalformedIndent   = errors.New("malformed indent")
	ErrOrphanNote        = errors.New("note without owning task")
	ErrInvalidAttachment = errors.New("invalid attachment marker")
)
