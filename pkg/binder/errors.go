package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("binder.unsupported_media_type")
	ErrInvalidJSON          = errors.New("binder.invalid_json")
	ErrInvalidForm          = errors.New("binder.invalid_form")
	ErrBodyTooLarge         = errors.New("binder.body_too_large")
	ErrInvalidTarget        = errors.New("binder.invalid_target")
)
