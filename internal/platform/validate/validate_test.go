// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/internal/platform/validate"
	"github.com/taibuivan/eventhub/pkg/pointer"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{"valid_string", "Warsaw", false},
		{"empty_string", "", true},
		{"whitespace_only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required("name", tt.value)

			if !tt.hasError {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
				return
			}

			ae := apperr.As(v.Err())
			require.NotNil(t, ae)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
			assert.Equal(t, "name", ae.Details[0].Field)
		})
	}
}

/*
TestValidator_Coordinates rejects half pairs and out-of-range values.
*/
func TestValidator_Coordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon *float64
		hasError bool
	}{
		{"both_absent", nil, nil, false},
		{"valid", pointer.To(52.2297), pointer.To(21.0122), false},
		{"latitude_only", pointer.To(52.2297), nil, true},
		{"latitude_out_of_range", pointer.To(91.0), pointer.To(0.0), true},
		{"longitude_out_of_range", pointer.To(0.0), pointer.To(-181.0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := (&validate.Validator{}).Coordinates("coordinates", tt.lat, tt.lon)
			assert.Equal(t, tt.hasError, v.HasErrors())
		})
	}
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	err := (&validate.Validator{}).
		Required("name", "").
		Slug("slug", "Not A Slug").
		OneOf("kind", "weekly", "single", "recurring").
		Err()

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 3)
}

type renameRequest struct {
	Name    string `json:"name" validate:"required,max=10"`
	Country string `json:"country_code" validate:"required,len=2"`
}

/*
TestStruct reports tag failures under their JSON names.
*/
func TestStruct(t *testing.T) {
	require.NoError(t, validate.Struct(renameRequest{Name: "Kraków", Country: "PL"}))

	ae := apperr.As(validate.Struct(renameRequest{Name: "", Country: "POL"}))
	require.NotNil(t, ae)
	require.Len(t, ae.Details, 2)

	fields := []string{ae.Details[0].Field, ae.Details[1].Field}
	assert.ElementsMatch(t, []string{"name", "country_code"}, fields)
}
