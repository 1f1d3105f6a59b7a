package schema

// CatalogOccurrenceTable represents the 'catalog.occurrence' table
type CatalogOccurrenceTable struct {
	Table         string
	ID            string
	EventID       string
	OccurrenceKey string
	StartsAt      string
	EndsAt        string
	ExternalID    string
	UpdatedAt     string
}

// CatalogOccurrence is the schema definition for catalog.occurrence
var CatalogOccurrence = CatalogOccurrenceTable{
	Table:         "catalog.occurrence",
	ID:            "id",
	EventID:       "eventid",
	OccurrenceKey: "occurrencekey",
	StartsAt:      "startsat",
	EndsAt:        "endsat",
	ExternalID:    "externalid",
	UpdatedAt:     "updatedat",
}

func (t CatalogOccurrenceTable) Columns() []string {
	return []string{t.ID, t.EventID, t.OccurrenceKey, t.StartsAt, t.EndsAt, t.ExternalID}
}
