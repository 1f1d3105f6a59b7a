// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package supervisor runs the long-lived parts of the process under a suture tree.

The tree has two layers so that a crash loop in background processing never
takes the HTTP surface down with it:

  - pipeline: the ingest queue and the signal recorder
  - api: the HTTP server

Restarts and backoff are logged through sutureslog.
*/
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Config tunes restart behaviour. Zero fields take suture's defaults.
type Config struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

func (config Config) withDefaults() Config {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	return config
}

// Tree is the process supervisor.
type Tree struct {
	root     *suture.Supervisor
	pipeline *suture.Supervisor
	api      *suture.Supervisor
	config   Config
}

// New builds an empty tree named after the application.
func New(name string, config Config, logger *slog.Logger) *Tree {
	config = config.withDefaults()

	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	layer := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	rootSpec := layer
	rootSpec.EventHook = hook

	tree := &Tree{
		root:     suture.New(name, rootSpec),
		pipeline: suture.New("pipeline", layer),
		api:      suture.New("api", layer),
		config:   config,
	}
	tree.root.Add(tree.pipeline)
	tree.root.Add(tree.api)
	return tree
}

// AddPipeline supervises a background processing service.
func (tree *Tree) AddPipeline(service suture.Service) suture.ServiceToken {
	return tree.pipeline.Add(service)
}

// AddAPI supervises a request-serving service.
func (tree *Tree) AddAPI(service suture.Service) suture.ServiceToken {
	return tree.api.Add(service)
}

// Serve runs the tree until ctx is cancelled.
func (tree *Tree) Serve(ctx context.Context) error {
	return tree.root.Serve(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (tree *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return tree.root.UnstoppedServiceReport()
}
