package binder

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// parseTag returns the source key of a field for tag and whether the field is skipped.
// Untagged fields are skipped.
func parseTag(f reflect.StructField, tag string) (string, bool) {
	raw, ok := f.Tag.Lookup(tag)
	if !ok || raw == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(raw, ",")
	if name == "" {
		name = f.Name
	}
	return name, false
}

func structValue(v any, sentinel error) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: target must be a non-nil pointer", sentinel)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: target must be a pointer to struct", sentinel)
	}
	return rv, nil
}

// bindValues copies values into the fields of v carrying tag.
func bindValues(v any, tag string, values url.Values, sentinel error) error {
	rv, err := structValue(v, sentinel)
	if err != nil {
		return err
	}
	rt := rv.Type()
	for i := range rv.NumField() {
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}
		name, skip := parseTag(rt.Field(i), tag)
		if skip {
			continue
		}
		vals, ok := values[name]
		if !ok || len(vals) == 0 {
			continue
		}
		if err := setField(field, vals); err != nil {
			return fmt.Errorf("%w: %s: %v", sentinel, name, err)
		}
	}
	return nil
}

func setField(field reflect.Value, vals []string) error {
	switch field.Kind() {
	case reflect.Pointer:
		ptr := reflect.New(field.Type().Elem())
		if err := setField(ptr.Elem(), vals); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	case reflect.Slice:
		var items []string
		for _, v := range vals {
			for item := range strings.SplitSeq(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
		}
		slice := reflect.MakeSlice(field.Type(), len(items), len(items))
		for i, item := range items {
			if err := setScalar(slice.Index(i), item); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	default:
		return setScalar(field, vals[0])
	}
}

func setScalar(field reflect.Value, s string) error {
	if u, ok := field.Addr().Interface().(interface{ UnmarshalText([]byte) error }); ok {
		return u.UnmarshalText([]byte(s))
	}
	s = strings.TrimSpace(s)
	switch field.Kind() {
	case reflect.String:
		field.SetString(s)
	case reflect.Bool:
		if s == "" || s == "on" {
			field.SetBool(s == "on")
			return nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if s == "" {
			return nil
		}
		n, err := strconv.ParseUint(s, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}
