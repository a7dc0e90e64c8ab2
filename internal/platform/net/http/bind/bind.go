// Package bind decodes and validates request inputs for handlers
package bind

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	perr "prtimeline/internal/platform/errors"
	"prtimeline/internal/platform/validate"
)

// Query decodes r's query string into T by json tag, applies validate tags and
// maps any failure to an InvalidArgument error naming the field.
// Supported field kinds are string, signed ints and bool
func Query[T any](r *http.Request) (T, error) {
	var dst T
	rv := reflect.ValueOf(&dst).Elem()
	if rv.Kind() != reflect.Struct {
		return dst, perr.Internalf("bind: %T is not a struct", dst)
	}
	q := r.URL.Query()
	rt := rv.Type()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := tagName(sf)
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		if err := set(rv.Field(i), raw); err != nil {
			return dst, perr.WithField(perr.InvalidArgf("%s: %v", name, err), name)
		}
	}
	if err := validate.Get().Validator.Struct(dst); err != nil {
		field, msg := validate.FieldAndMessage(err)
		return dst, perr.WithField(perr.InvalidArgf("%s", msg), field)
	}
	return dst, nil
}

func tagName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" || tag == "-" {
		return sf.Name
	}
	return tag
}

func set(v reflect.Value, raw string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return perr.Newf(perr.ErrorCodeInvalidArgument, "not an integer")
		}
		v.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return perr.Newf(perr.ErrorCodeInvalidArgument, "not a boolean")
		}
		v.SetBool(b)
	default:
		return perr.Internalf("unsupported kind %s", v.Kind())
	}
	return nil
}
