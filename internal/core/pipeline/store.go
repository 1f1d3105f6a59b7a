// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline

import (
	"context"
	"time"
)

// Filter narrows an execution listing. Zero fields match everything.
type Filter struct {
	State    State
	Category Category
	Since    time.Time
}

// Repository persists job execution records.
type Repository interface {

	// Insert appends one record.
	Insert(ctx context.Context, record *Record) error

	/*
		List returns a page of records, newest first.

		Returns:
		  - []*Record: Page of records
		  - int: Total matching records
		  - error: Database errors
	*/
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Record, int, error)

	// ListSince returns every record created at or after since.
	ListSince(ctx context.Context, since time.Time) ([]Record, error)
}
