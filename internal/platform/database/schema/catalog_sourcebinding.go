package schema

// CatalogSourceBindingTable represents the 'catalog.sourcebinding' table
type CatalogSourceBindingTable struct {
	Table      string
	ID         string
	EventID    string
	SourceID   string
	ExternalID string
	SourceURL  string
	LastSeenAt string
}

// CatalogSourceBinding is the schema definition for catalog.sourcebinding
var CatalogSourceBinding = CatalogSourceBindingTable{
	Table:      "catalog.sourcebinding",
	ID:         "id",
	EventID:    "eventid",
	SourceID:   "sourceid",
	ExternalID: "externalid",
	SourceURL:  "sourceurl",
	LastSeenAt: "lastseenat",
}

func (t CatalogSourceBindingTable) Columns() []string {
	return []string{t.ID, t.EventID, t.SourceID, t.ExternalID, t.SourceURL, t.LastSeenAt}
}
