// Package access reads and writes named properties of records.
//
// Records are either map[string]any values or structs (usually behind a
// pointer). Struct properties resolve by json tag first, then by field name
// with a case-insensitive match, so "createdAt" finds CreatedAt.
package access

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrNoSuchProperty is returned when the record has no such property.
	ErrNoSuchProperty = errors.New("access: no such property")

	// ErrNotWritable is returned when the property cannot be assigned.
	ErrNotWritable = errors.New("access: property not writable")
)

// Get returns the value of property on subject.
func Get(subject any, property string) (any, error) {
	if m, ok := subject.(map[string]any); ok {
		v, ok := m[property]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchProperty, property)
		}
		return v, nil
	}

	f, err := field(reflect.ValueOf(subject), property)
	if err != nil {
		return nil, err
	}
	return f.Interface(), nil
}

// Set assigns value to property on subject. Structs must be passed by
// pointer. Non-string values convert to the field's type when Go allows
// the conversion.
func Set(subject any, property string, value any) error {
	if m, ok := subject.(map[string]any); ok {
		if m == nil {
			return fmt.Errorf("%w: %s", ErrNotWritable, property)
		}
		m[property] = value
		return nil
	}

	rv := reflect.ValueOf(subject)
	if rv.Kind() != reflect.Pointer {
		return fmt.Errorf("%w: %s (record not addressable)", ErrNotWritable, property)
	}
	f, err := field(rv, property)
	if err != nil {
		return err
	}
	if !f.CanSet() {
		return fmt.Errorf("%w: %s", ErrNotWritable, property)
	}

	v := reflect.ValueOf(value)
	if !v.IsValid() {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	switch {
	case v.Type().AssignableTo(f.Type()):
		f.Set(v)
	case v.Type().ConvertibleTo(f.Type()) && v.Kind() != reflect.String && f.Kind() != reflect.String:
		f.Set(v.Convert(f.Type()))
	default:
		return fmt.Errorf("%w: %s expects %s, got %T", ErrNotWritable, property, f.Type(), value)
	}
	return nil
}

// IsWritable reports whether Set can assign property on subject.
func IsWritable(subject any, property string) bool {
	if m, ok := subject.(map[string]any); ok {
		return m != nil
	}
	rv := reflect.ValueOf(subject)
	if rv.Kind() != reflect.Pointer {
		return false
	}
	f, err := field(rv, property)
	return err == nil && f.CanSet()
}

// String formats a property value for use as a request parameter.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func field(rv reflect.Value, property string) (reflect.Value, error) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: %s (nil record)", ErrNoSuchProperty, property)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		v := rv.MapIndex(reflect.ValueOf(property).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrNoSuchProperty, property)
		}
		return v, nil
	case reflect.Struct:
		if i, ok := fieldIndex(rv.Type(), property); ok {
			return rv.FieldByIndex(i), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%w: %s on %s", ErrNoSuchProperty, property, rv.Type())
}

func fieldIndex(t reflect.Type, property string) ([]int, bool) {
	var byName []int
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		if tag, _, _ := strings.Cut(sf.Tag.Get("json"), ","); tag == property {
			return sf.Index, true
		}
		if byName == nil && strings.EqualFold(sf.Name, property) {
			byName = sf.Index
		}
	}
	return byName, byName != nil
}
