package schema

// CatalogJobExecutionTable represents the 'catalog.jobexecution' table
type CatalogJobExecutionTable struct {
	Table      string
	ID         string
	JobID      string
	SourceID   string
	ExternalID string
	State      string
	Category   string
	Message    string
	EventID    string
	CreatedAt  string
}

// CatalogJobExecution is the schema definition for catalog.jobexecution
var CatalogJobExecution = CatalogJobExecutionTable{
	Table:      "catalog.jobexecution",
	ID:         "id",
	JobID:      "jobid",
	SourceID:   "sourceid",
	ExternalID: "externalid",
	State:      "state",
	Category:   "category",
	Message:    "message",
	EventID:    "eventid",
	CreatedAt:  "createdat",
}

func (t CatalogJobExecutionTable) Columns() []string {
	return []string{t.ID, t.JobID, t.SourceID, t.ExternalID, t.State, t.Category, t.Message, t.EventID, t.CreatedAt}
}
