package schema

// CatalogCountryTable represents the 'catalog.country' table
type CatalogCountryTable struct {
	Table     string
	ID        string
	Name      string
	Code      string
	Slug      string
	CreatedAt string
}

// CatalogCountry is the schema definition for catalog.country
var CatalogCountry = CatalogCountryTable{
	Table:     "catalog.country",
	ID:        "id",
	Name:      "name",
	Code:      "code",
	Slug:      "slug",
	CreatedAt: "createdat",
}

func (t CatalogCountryTable) Columns() []string {
	return []string{t.ID, t.Name, t.Code, t.Slug}
}
