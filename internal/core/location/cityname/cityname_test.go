package cityname_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/core/location/cityname"
)

/*
TestValidate_Rejects covers the strings scrapers most often put in the city field.
*/
func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		country string
		reason  cityname.Reason
	}{
		{"10-16 Botchergate", "GB", cityname.ReasonStreetAddress},
		{"SW18 2SS", "GB", cityname.ReasonPostcode},
		{"SW18", "GB", cityname.ReasonPostcode},
		{"90210", "US", cityname.ReasonPostcode},
		{"90210-1234", "US", cityname.ReasonPostcode},
		{"425 Burwood Hwy", "AU", cityname.ReasonStreetAddress},
		{"NSW 2000", "AU", cityname.ReasonPostcode},
		{"M5V 3L9", "CA", cityname.ReasonPostcode},
		{"10115 Berlin", "DE", cityname.ReasonPostcode},
		{"Hauptstraße 5", "DE", cityname.ReasonStreetAddress},
		{"12 rue de Rivoli", "FR", cityname.ReasonStreetAddress},
		{"1012 AB", "NL", cityname.ReasonPostcode},
		{"00-950 Warszawa", "PL", cityname.ReasonPostcode},
		{"ul. Marszałkowska 10", "PL", cityname.ReasonStreetAddress},
		{"D02 X285", "IE", cityname.ReasonPostcode},
		{"Via Roma 1", "IT", cityname.ReasonStreetAddress},
		{"12345", "", cityname.ReasonNumeric},
		{"", "GB", cityname.ReasonEmpty},
		{"   ", "GB", cityname.ReasonEmpty},
		// Generic rules still apply when the country is wrong
		{"SW18 2SS", "US", cityname.ReasonPostcode},
		{"10-16 Botchergate", "US", cityname.ReasonStreetAddress},
	}

	for _, tt := range tests {
		t.Run(tt.country+"/"+tt.name, func(t *testing.T) {
			result := cityname.Validate(tt.name, tt.country)
			assert.False(t, result.OK)
			assert.Equal(t, tt.reason, result.Reason)
			assert.NotEmpty(t, result.Rule)
		})
	}
}

/*
TestValidate_Accepts keeps real city names, including ones with digits or
street-like words.
*/
func TestValidate_Accepts(t *testing.T) {
	tests := []struct {
		name    string
		country string
	}{
		{"London", "GB"},
		{"Sydney", "AU"},
		{"New York City", "US"},
		{"Warszawa", "PL"},
		{"Warszawa", "DE"},
		{"Kraków", "PL"},
		{"St Albans", "GB"},
		{"Stoke-on-Trent", "GB"},
		{"Frankfurt am Main", "DE"},
		{"Saint-Denis", "FR"},
		{"Washington, D.C.", "US"},
		{"100 Mile House", "CA"},
		{"Dublin 2", "IE"},
		{"  New   York  ", "us"},
	}

	for _, tt := range tests {
		t.Run(tt.country+"/"+tt.name, func(t *testing.T) {
			result := cityname.Validate(tt.name, tt.country)
			assert.True(t, result.OK, "rejected by %s", result.Rule)
			assert.Equal(t, cityname.ReasonNone, result.Reason)
		})
	}
}

/*
TestValidate_TooLong rejects names beyond the configured length.
*/
func TestValidate_TooLong(t *testing.T) {
	result := cityname.Validate(strings.Repeat("a", 121), "GB")
	assert.Equal(t, cityname.ReasonTooLong, result.Reason)
}

/*
TestLoad_Override replaces the embedded rules with an operator file.
*/
func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	document := `
max_length: 10
generic:
  - name: no_x
    reason: street_address
    pattern: '(?i)x'
`
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	table, err := cityname.Load(path)
	require.NoError(t, err)

	assert.Equal(t, cityname.ReasonStreetAddress, table.Validate("Xanten", "DE").Reason)
	assert.Equal(t, cityname.ReasonTooLong, table.Validate("Llanfairpwll", "GB").Reason)
	assert.True(t, table.Validate("90210", "US").OK)
}

/*
TestParse_Invalid refuses broken documents instead of running without rules.
*/
func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{"bad_yaml", "generic: [unterminated"},
		{"bad_pattern", "generic:\n  - name: broken\n    reason: numeric\n    pattern: '('\n"},
		{"unknown_reason", "generic:\n  - name: odd\n    reason: weird\n    pattern: 'x'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cityname.Parse([]byte(tt.document))
			assert.Error(t, err)
		})
	}
}

/*
TestLoad_Embedded parses the shipped rules.
*/
func TestLoad_Embedded(t *testing.T) {
	table, err := cityname.Load("")
	require.NoError(t, err)
	assert.True(t, table.Validate("London", "GB").OK)
}
