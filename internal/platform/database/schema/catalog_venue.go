package schema

// CatalogVenueTable represents the 'catalog.venue' table
type CatalogVenueTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	Address   string
	CityID    string
	Latitude  string
	Longitude string
	CreatedAt string
	UpdatedAt string
}

// CatalogVenue is the schema definition for catalog.venue
var CatalogVenue = CatalogVenueTable{
	Table:     "catalog.venue",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	Address:   "address",
	CityID:    "cityid",
	Latitude:  "latitude",
	Longitude: "longitude",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

func (t CatalogVenueTable) Columns() []string {
	return []string{t.ID, t.Name, t.Slug, t.Address, t.CityID, t.Latitude, t.Longitude}
}
