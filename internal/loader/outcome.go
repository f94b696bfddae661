// Package loader runs route loaders behind a composable middleware chain and
// reports their results as outcomes rather than thrown control flow.
package loader

import (
	"errors"
	"net/url"

	"github.com/daap14/retrospecs/internal/api/validation"
)

// ErrForbidden is returned when the current user's permission level is too
// low for a mutation.
var ErrForbidden = errors.New("insufficient permission")

// Kind discriminates an Outcome.
type Kind int

const (
	KindContinue Kind = iota
	KindRedirect
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindContinue:
		return "continue"
	case KindRedirect:
		return "redirect"
	case KindInvalid:
		return "invalid"
	}
	return "unknown"
}

// Outcome is the non-error result of a middleware unit or loader.
type Outcome struct {
	Kind    Kind
	Data    any
	Target  string
	Details []validation.FieldError
}

// Continue carries loader data to the caller.
func Continue(data any) Outcome {
	return Outcome{Kind: KindContinue, Data: data}
}

// Redirect sends the navigation to target.
func Redirect(target string) Outcome {
	return Outcome{Kind: KindRedirect, Target: target}
}

// RedirectWith sends the navigation to path with the given query string.
func RedirectWith(path string, params url.Values) Outcome {
	if len(params) == 0 {
		return Redirect(path)
	}
	return Redirect(path + "?" + params.Encode())
}

// Invalid rejects the route params.
func Invalid(details ...validation.FieldError) Outcome {
	return Outcome{Kind: KindInvalid, Details: details}
}

// IsContinue reports whether processing should proceed.
func (o Outcome) IsContinue() bool {
	return o.Kind == KindContinue
}
