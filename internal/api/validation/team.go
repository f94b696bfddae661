package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxTeamNameLength = 255

// TeamName trims name and checks it can be shown as a team heading. It
// returns the trimmed name to store.
func TeamName(name string) (string, []FieldError) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", []FieldError{{Field: "name", Message: "name is required"}}
	case utf8.RuneCountInString(name) > maxTeamNameLength:
		return "", []FieldError{{Field: "name", Message: "name must be at most 255 characters"}}
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return "", []FieldError{{Field: "name", Message: "name must not contain control characters"}}
	}
	return name, nil
}
