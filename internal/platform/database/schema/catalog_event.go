package schema

// CatalogEventTable represents the 'catalog.event' table
type CatalogEventTable struct {
	Table                 string
	ID                    string
	Fingerprint           string
	Title                 string
	VenueID               string
	Kind                  string
	ImageURL              string
	PrimarySourceID       string
	PrimarySourcePriority string
	CreatedAt             string
	UpdatedAt             string
}

// CatalogEvent is the schema definition for catalog.event
var CatalogEvent = CatalogEventTable{
	Table:                 "catalog.event",
	ID:                    "id",
	Fingerprint:           "fingerprint",
	Title:                 "title",
	VenueID:               "venueid",
	Kind:                  "kind",
	ImageURL:              "imageurl",
	PrimarySourceID:       "primarysourceid",
	PrimarySourcePriority: "primarysourcepriority",
	CreatedAt:             "createdat",
	UpdatedAt:             "updatedat",
}

func (t CatalogEventTable) Columns() []string {
	return []string{
		t.ID, t.Fingerprint, t.Title, t.VenueID, t.Kind, t.ImageURL,
		t.PrimarySourceID, t.PrimarySourcePriority, t.CreatedAt, t.UpdatedAt,
	}
}
