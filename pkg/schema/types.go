package schema

import (
	"fmt"
	"math"
	"reflect"
)

// Type validates a single value.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type stringType struct{ nonEmpty bool }

func (t stringType) Name() string {
	if t.nonEmpty {
		return "non-empty string"
	}
	return "string"
}

func (t stringType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if t.nonEmpty && s == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int32, int64:
		return nil
	case float64:
		// JSON numbers decode as float64.
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return nil
		}
		return fmt.Errorf("expected int, got fractional number")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

type numberType struct{}

func (numberType) Name() string { return "number" }

func (numberType) Validate(value any) error {
	switch v := value.(type) {
	case int, int32, int64:
		return nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("expected finite number")
		}
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

type sliceType struct{ elem Type }

func (t sliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t sliceType) Validate(value any) error {
	if value == nil {
		return fmt.Errorf("expected slice, got null")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type customType struct {
	name     string
	validate func(any) error
}

func (t customType) Name() string             { return t.name }
func (t customType) Validate(value any) error { return t.validate(value) }

// String accepts any string.
func String() Type { return stringType{} }

// NonEmptyString accepts strings of at least one byte.
func NonEmptyString() Type { return stringType{nonEmpty: true} }

// Int accepts integers and whole JSON numbers.
func Int() Type { return intType{} }

// Number accepts any finite number.
func Number() Type { return numberType{} }

// Slice accepts slices whose elements all satisfy elem.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// Custom wraps a validation function.
func Custom(name string, validate func(any) error) Type {
	return customType{name: name, validate: validate}
}
