package binder

import "errors"

var (
	// ErrNotApplicable is returned by a binder that does not handle the
	// request; handler.Wrap skips it.
	ErrNotApplicable = errors.New("binder not applicable")

	ErrInvalidPath          = errors.New("invalid path parameter")
	ErrInvalidQuery         = errors.New("invalid query parameter")
	ErrInvalidForm          = errors.New("invalid form data")
	ErrInvalidJSON          = errors.New("invalid json body")
	ErrInvalidSignals       = errors.New("invalid datastar signals")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)
