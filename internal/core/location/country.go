// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/taibuivan/eventhub/internal/platform/apperr"
	"github.com/taibuivan/eventhub/internal/platform/dberr"
	"github.com/taibuivan/eventhub/pkg/slug"
	"github.com/taibuivan/eventhub/pkg/uuidv7"
)

// # Country Index

// CountryRef is the canonical identity of a country before it is persisted.
type CountryRef struct {
	Code string
	Name string
}

// countryAliases covers spellings scrapers use that are not the English
// display name or an ISO code. Keys are slugs.
var countryAliases = map[string]string{
	"uk":                       "GB",
	"great-britain":            "GB",
	"britain":                  "GB",
	"england":                  "GB",
	"scotland":                 "GB",
	"wales":                    "GB",
	"northern-ireland":         "GB",
	"usa":                      "US",
	"united-states-of-america": "US",
	"america":                  "US",
	"deutschland":              "DE",
	"polska":                   "PL",
	"espana":                   "ES",
	"italia":                   "IT",
	"nederland":                "NL",
	"the-netherlands":          "NL",
	"holland":                  "NL",
	"osterreich":               "AT",
	"schweiz":                  "CH",
	"suisse":                   "CH",
	"eire":                     "IE",
	"republic-of-ireland":      "IE",
	"czech-republic":           "CZ",
	"cesko":                    "CZ",
	"turkey":                   "TR",
	"south-korea":              "KR",
	"korea":                    "KR",
	"russia":                   "RU",
	"uae":                      "AE",
	"viet-nam":                 "VN",
	"ivory-coast":              "CI",
	"sverige":                  "SE",
	"norge":                    "NO",
	"danmark":                  "DK",
	"suomi":                    "FI",
	"magyarorszag":             "HU",
	"belgique":                 "BE",
	"belgie":                   "BE",
}

// CountryIndex maps names, ISO codes and aliases to countries.
type CountryIndex struct {
	byKey map[string]CountryRef
}

var (
	defaultIndexOnce sync.Once
	defaultIndex     *CountryIndex
)

// DefaultCountryIndex returns the index built from CLDR English region names.
func DefaultCountryIndex() *CountryIndex {
	defaultIndexOnce.Do(func() {
		defaultIndex = buildCountryIndex()
	})
	return defaultIndex
}

func buildCountryIndex() *CountryIndex {
	index := &CountryIndex{byKey: make(map[string]CountryRef, 1024)}
	namer := display.English.Regions()

	for first := 'A'; first <= 'Z'; first++ {
		for second := 'A'; second <= 'Z'; second++ {
			region, err := language.ParseRegion(string([]rune{first, second}))
			if err != nil || !region.IsCountry() {
				continue
			}

			name := namer.Name(region)
			if name == "" {
				continue
			}

			ref := CountryRef{Code: region.String(), Name: name}
			index.add(ref.Code, ref)
			index.add(name, ref)
			if iso3 := region.ISO3(); iso3 != "" {
				index.add(iso3, ref)
			}
		}
	}

	// Aliases win over anything derived from CLDR, including retired codes
	for alias, code := range countryAliases {
		if ref, ok := index.byKey[strings.ToLower(code)]; ok {
			index.byKey[slug.From(alias)] = ref
		}
	}

	return index
}

// add keeps the first registration of a key.
func (index *CountryIndex) add(key string, ref CountryRef) {
	normalized := slug.From(key)
	if _, exists := index.byKey[normalized]; !exists && normalized != "" {
		index.byKey[normalized] = ref
	}
}

// Lookup resolves a country by English name, ISO alpha-2/alpha-3 code or alias.
// Matching ignores case, accents and punctuation.
func (index *CountryIndex) Lookup(input string) (CountryRef, bool) {
	ref, ok := index.byKey[slug.From(input)]
	return ref, ok
}

// # Country Directory

// CountryDirectory resolves country strings to persisted countries, creating
// them on first sighting. Lookups go through the injected cache.
type CountryDirectory struct {
	repository CountryRepository
	cache      CountryCache
	index      *CountryIndex
	logger     *slog.Logger
}

// NewCountryDirectory wires a directory over the default index.
func NewCountryDirectory(repository CountryRepository, cache CountryCache, logger *slog.Logger) *CountryDirectory {
	return &CountryDirectory{
		repository: repository,
		cache:      cache,
		index:      DefaultCountryIndex(),
		logger:     logger,
	}
}

/*
Resolve returns the persisted country for a name, code or alias.

Returns:
  - *Country: Hydrated entity, possibly created by this call
  - error: missing_required_field when input is empty or unknown
*/
func (directory *CountryDirectory) Resolve(ctx context.Context, input string) (*Country, error) {
	if strings.TrimSpace(input) == "" {
		return nil, apperr.MissingField("country_name")
	}

	ref, ok := directory.index.Lookup(input)
	if !ok {
		return nil, apperr.UnknownCountry(input)
	}

	if country, hit := directory.cache.Get(ctx, ref.Code); hit {
		return country, nil
	}

	country, err := directory.repository.FindCountryByCode(ctx, ref.Code)
	if dberr.IsNotFound(err) {
		country, err = directory.repository.CreateCountry(ctx, &Country{
			ID:   uuidv7.New(),
			Name: ref.Name,
			Code: ref.Code,
			Slug: slug.From(ref.Name),
		})
		if err == nil {
			directory.logger.InfoContext(ctx, "country_created",
				slog.String("code", country.Code),
				slog.String("name", country.Name),
				slog.String("input", input),
			)
		}
	}
	if err != nil {
		return nil, err
	}

	directory.cache.Set(ctx, country)
	return country, nil
}

// Invalidate drops a country from every cache tier.
func (directory *CountryDirectory) Invalidate(ctx context.Context, code string) {
	directory.cache.Invalidate(ctx, strings.ToUpper(code))
}

// List returns every persisted country.
func (directory *CountryDirectory) List(ctx context.Context) ([]*Country, error) {
	return directory.repository.ListCountries(ctx)
}
