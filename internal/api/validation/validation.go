package validation

import (
	"fmt"
	"strconv"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ParseIDs parses the named route params as positive integers. Values are
// returned in the order of names; any failure yields field errors instead.
func ParseIDs(params map[string]string, names ...string) ([]int64, []FieldError) {
	var errs []FieldError
	ids := make([]int64, 0, len(names))

	for _, name := range names {
		raw := params[name]
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			errs = append(errs, FieldError{
				Field:   name,
				Message: fmt.Sprintf("Invalid number provided for %q, received: %q", name, raw),
			})
			continue
		}
		ids = append(ids, id)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return ids, nil
}
