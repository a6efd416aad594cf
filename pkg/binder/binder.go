package binder

import (
	"mime"
	"net/http"
)

// Bind decodes the request body into v, a pointer to a struct, choosing
// JSON or Form by the Content-Type header.
func Bind(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ErrUnsupportedMediaType
	}

	switch mediaType {
	case "application/json":
		return JSON(r, v)
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return Form(r, v)
	default:
		return ErrUnsupportedMediaType
	}
}
