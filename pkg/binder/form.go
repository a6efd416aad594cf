package binder

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
)

// MaxFormMemory bounds multipart form parsing.
const MaxFormMemory = 1 << 20

// Form fills the fields of the struct v points to from form values. Fields
// are matched by their `form:"name"` tag; untagged fields and `form:"-"`
// are skipped. Supported kinds: string, bool, ints, uints and floats.
func Form(r *http.Request, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrInvalidTarget
	}

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return errors.Join(ErrInvalidForm, err)
	}

	rv = rv.Elem()
	rt := rv.Type()
	for i := range rt.NumField() {
		field := rt.Field(i)
		name := field.Tag.Get("form")
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		values, ok := r.Form[name]
		if !ok || len(values) == 0 {
			continue
		}
		if err := setValue(rv.Field(i), values[0]); err != nil {
			return errors.Join(ErrInvalidForm, fmt.Errorf("field %q: %w", name, err))
		}
	}
	return nil
}

func setValue(f reflect.Value, raw string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetFloat(n)
	default:
		return fmt.Errorf("unsupported kind %s", f.Kind())
	}
	return nil
}
