package object

import "errors"

var (
	// ErrMalformedObject reports a bad envelope: missing NUL, wrong header
	// token count, unknown type, or a length that disagrees with the payload.
	ErrMalformedObject = errors.New("malformed object")

	// ErrMalformedTree reports a tree payload that cannot be decoded.
	ErrMalformedTree = errors.New("malformed tree")

	// ErrWrongObjectType reports an object of a different kind than required.
	ErrWrongObjectType = errors.New("wrong object type")

	// ErrInvalidIdentity reports a user name or email holding a line break
	// or an angle bracket.
	ErrInvalidIdentity = errors.New("user name and email must not contain line breaks or angle brackets")
)
