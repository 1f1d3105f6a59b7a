// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pipelinetest provides an in-memory [pipeline.Repository] for tests.
package pipelinetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/eventhub/internal/core/pipeline"
)

// Store keeps execution records in memory.
type Store struct {
	mu      sync.Mutex
	records []pipeline.Record

	// FailInsert, when set, is returned by every Insert.
	FailInsert error
}

// New returns an empty store.
func New() *Store { return &Store{} }

// Records returns a copy of every stored record in insertion order.
func (s *Store) Records() []pipeline.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pipeline.Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Insert(_ context.Context, record *pipeline.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsert != nil {
		return s.FailInsert
	}
	if record.ID == "" {
		return errors.New("pipelinetest: record without id")
	}
	s.records = append(s.records, *record)
	return nil
}

func matches(record pipeline.Record, filter pipeline.Filter) bool {
	if filter.State != "" && record.State != filter.State {
		return false
	}
	if filter.Category != pipeline.CategoryNone && record.Category != filter.Category {
		return false
	}
	if !filter.Since.IsZero() && record.CreatedAt.Before(filter.Since) {
		return false
	}
	return true
}

func (s *Store) List(_ context.Context, filter pipeline.Filter, limit, offset int) ([]*pipeline.Record, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var selected []pipeline.Record
	for _, record := range s.records {
		if matches(record, filter) {
			selected = append(selected, record)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].CreatedAt.After(selected[j].CreatedAt)
	})

	page := []*pipeline.Record{}
	for i := offset; i < len(selected) && len(page) < limit; i++ {
		record := selected[i]
		page = append(page, &record)
	}
	return page, len(selected), nil
}

func (s *Store) ListSince(_ context.Context, since time.Time) ([]pipeline.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []pipeline.Record{}
	for _, record := range s.records {
		if !record.CreatedAt.Before(since) {
			out = append(out, record)
		}
	}
	return out, nil
}
