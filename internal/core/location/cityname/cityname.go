// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cityname decides whether a scraped string can be a city name.

Scrapers regularly put postcodes, street addresses or bare numbers in the city
field. Names are checked against a per-country rule table before any city is
looked up or created, so such strings never become cities.

Rules live in an embedded YAML document. An operator can replace the whole
table at startup with [Load] and [Install]; every caller in the process then
sees the same rules.
*/
package cityname

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embeddedRules []byte

// Reason names why a string was rejected.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonEmpty         Reason = "empty"
	ReasonNumeric       Reason = "numeric"
	ReasonPostcode      Reason = "postcode"
	ReasonStreetAddress Reason = "street_address"
	ReasonTooLong       Reason = "too_long"
)

func (r Reason) valid() bool {
	switch r {
	case ReasonEmpty, ReasonNumeric, ReasonPostcode, ReasonStreetAddress, ReasonTooLong:
		return true
	}
	return false
}

// Result is the outcome of a validation.
type Result struct {
	OK     bool
	Reason Reason
	// Rule is the name of the matching rule, empty when OK.
	Rule string
}

// # Rule Table

type ruleSpec struct {
	Name    string `yaml:"name"`
	Reason  Reason `yaml:"reason"`
	Pattern string `yaml:"pattern"`
}

type tableSpec struct {
	MaxLength int                   `yaml:"max_length"`
	Generic   []ruleSpec            `yaml:"generic"`
	Countries map[string][]ruleSpec `yaml:"countries"`
}

type rule struct {
	name    string
	reason  Reason
	pattern *regexp.Regexp
}

// RuleTable is a compiled rule set. It is immutable and safe for concurrent use.
type RuleTable struct {
	maxLength int
	generic   []rule
	countries map[string][]rule
}

// Parse compiles a YAML rule document.
func Parse(data []byte) (*RuleTable, error) {
	var spec tableSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("cityname: decode rules: %w", err)
	}

	generic, err := compile(spec.Generic)
	if err != nil {
		return nil, err
	}

	table := &RuleTable{
		maxLength: spec.MaxLength,
		generic:   generic,
		countries: make(map[string][]rule, len(spec.Countries)),
	}

	for code, specs := range spec.Countries {
		compiled, err := compile(specs)
		if err != nil {
			return nil, fmt.Errorf("cityname: country %s: %w", code, err)
		}
		table.countries[strings.ToUpper(code)] = compiled
	}

	return table, nil
}

func compile(specs []ruleSpec) ([]rule, error) {
	rules := make([]rule, 0, len(specs))
	for _, spec := range specs {
		if !spec.Reason.valid() {
			return nil, fmt.Errorf("cityname: rule %q: unknown reason %q", spec.Name, spec.Reason)
		}
		pattern, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("cityname: rule %q: %w", spec.Name, err)
		}
		rules = append(rules, rule{name: spec.Name, reason: spec.Reason, pattern: pattern})
	}
	return rules, nil
}

// Load reads a rule document from path, or the embedded one when path is empty.
func Load(path string) (*RuleTable, error) {
	if path == "" {
		return Parse(embeddedRules)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cityname: read %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks name for the country with ISO alpha-2 code countryCode.
// An unknown or empty code applies the generic rules only.
func (table *RuleTable) Validate(name, countryCode string) Result {
	normalized := Normalize(name)
	if normalized == "" {
		return Result{Reason: ReasonEmpty, Rule: "empty"}
	}

	if table.maxLength > 0 && utf8.RuneCountInString(normalized) > table.maxLength {
		return Result{Reason: ReasonTooLong, Rule: "max_length"}
	}

	for _, candidate := range table.countries[strings.ToUpper(countryCode)] {
		if candidate.pattern.MatchString(normalized) {
			return Result{Reason: candidate.reason, Rule: candidate.name}
		}
	}

	for _, candidate := range table.generic {
		if candidate.pattern.MatchString(normalized) {
			return Result{Reason: candidate.reason, Rule: candidate.name}
		}
	}

	return Result{OK: true}
}

// Normalize trims the name and collapses inner whitespace.
func Normalize(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// # Process-Wide Table

var current atomic.Pointer[RuleTable]

func init() {
	table, err := Parse(embeddedRules)
	if err != nil {
		panic(err)
	}
	current.Store(table)
}

// Install replaces the table used by [Validate].
func Install(table *RuleTable) {
	if table != nil {
		current.Store(table)
	}
}

// Validate checks name against the installed table.
func Validate(name, countryCode string) Result {
	return current.Load().Validate(name, countryCode)
}
