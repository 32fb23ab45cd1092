package schema

import "sort"

// Schema maps required field names to their expected types.
type Schema map[string]Type

// Validate checks that every schema field is present in data and well typed.
// Fields not named by the schema are ignored.
func Validate(s Schema, data map[string]any) error {
	if len(s) == 0 {
		return nil
	}

	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []*FieldError
	for _, key := range keys {
		value, ok := data[key]
		if !ok {
			errs = append(errs, &FieldError{Key: key, Reason: "required"})
			continue
		}
		if err := s[key].Validate(value); err != nil {
			errs = append(errs, &FieldError{Key: key, Reason: err.Error()})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
