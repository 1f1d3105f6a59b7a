package schema

// CatalogCityTable represents the 'catalog.city' table
type CatalogCityTable struct {
	Table          string
	ID             string
	Name           string
	Slug           string
	CountryID      string
	Latitude       string
	Longitude      string
	AlternateNames string
	CreatedAt      string
	UpdatedAt      string
}

// CatalogCity is the schema definition for catalog.city
var CatalogCity = CatalogCityTable{
	Table:          "catalog.city",
	ID:             "id",
	Name:           "name",
	Slug:           "slug",
	CountryID:      "countryid",
	Latitude:       "latitude",
	Longitude:      "longitude",
	AlternateNames: "alternatenames",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
}

func (t CatalogCityTable) Columns() []string {
	return []string{t.ID, t.Name, t.Slug, t.CountryID, t.Latitude, t.Longitude, t.AlternateNames}
}
