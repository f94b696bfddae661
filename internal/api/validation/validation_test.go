package validation_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/retrospecs/internal/api/validation"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]string
		keys     []string
		wantIDs  []int64
		wantErrs []validation.FieldError
	}{
		{
			name:    "single valid id",
			params:  map[string]string{"orgId": "5"},
			keys:    []string{"orgId"},
			wantIDs: []int64{5},
		},
		{
			name:    "ids in requested order",
			params:  map[string]string{"orgId": "5", "teamId": "9"},
			keys:    []string{"teamId", "orgId"},
			wantIDs: []int64{9, 5},
		},
		{
			name:   "non numeric",
			params: map[string]string{"orgId": "abc"},
			keys:   []string{"orgId"},
			wantErrs: []validation.FieldError{
				{Field: "orgId", Message: `Invalid number provided for "orgId", received: "abc"`},
			},
		},
		{
			name:   "zero is rejected",
			params: map[string]string{"orgId": "0"},
			keys:   []string{"orgId"},
			wantErrs: []validation.FieldError{
				{Field: "orgId", Message: `Invalid number provided for "orgId", received: "0"`},
			},
		},
		{
			name:   "every bad param is reported",
			params: map[string]string{"orgId": "-1", "teamId": "1.5"},
			keys:   []string{"orgId", "teamId"},
			wantErrs: []validation.FieldError{
				{Field: "orgId", Message: `Invalid number provided for "orgId", received: "-1"`},
				{Field: "teamId", Message: `Invalid number provided for "teamId", received: "1.5"`},
			},
		},
		{
			name:   "missing param",
			params: map[string]string{},
			keys:   []string{"sprintId"},
			wantErrs: []validation.FieldError{
				{Field: "sprintId", Message: `Invalid number provided for "sprintId", received: ""`},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, errs := validation.ParseIDs(tt.params, tt.keys...)
			assert.Equal(t, tt.wantErrs, errs)
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestTeamName(t *testing.T) {
	name, errs := validation.TeamName("  Platform  ")
	assert.Empty(t, errs)
	assert.Equal(t, "Platform", name)

	_, errs = validation.TeamName("   ")
	assert.Equal(t, []validation.FieldError{{Field: "name", Message: "name is required"}}, errs)

	name, errs = validation.TeamName(strings.Repeat("é", 255))
	assert.Empty(t, errs)
	assert.Equal(t, 255, utf8.RuneCountInString(name))

	_, errs = validation.TeamName(strings.Repeat("a", 256))
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)

	_, errs = validation.TeamName("bad\x00name")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "control characters")
}

func TestValidateCreateInviteRequest(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"ada@example.com", true},
		{"", false},
		{"not-an-email", false},
		{"Ada <ada@example.com>", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			errs := validation.ValidateCreateInviteRequest(validation.CreateInviteRequest{Email: tt.email})
			if tt.valid {
				assert.Empty(t, errs)
			} else {
				assert.Len(t, errs, 1)
			}
		})
	}
}
