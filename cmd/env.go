package main

import (
	"context"

	"github.com/sells-group/lead-warehouse/internal/canonical"
	"github.com/sells-group/lead-warehouse/internal/crosswalk"
	"github.com/sells-group/lead-warehouse/internal/extract"
	"github.com/sells-group/lead-warehouse/internal/pipeline"
	"github.com/sells-group/lead-warehouse/internal/store"
	"github.com/sells-group/lead-warehouse/pkg/anthropic"
)

// env bundles the wired warehouse components commands share.
type env struct {
	store    *store.Store
	upserter *canonical.Upserter
	matcher  *crosswalk.Matcher
	pipeline *pipeline.Pipeline
}

// initWarehouse connects the store and wires the ingest pipeline. The LLM
// match stage is enabled only when an Anthropic key is configured.
func initWarehouse(ctx context.Context) (*env, error) {
	st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns, cfg.Store.MinConns)
	if err != nil {
		return nil, err
	}

	var classifier *crosswalk.IndustryClassifier
	if cfg.Anthropic.Key != "" {
		client := anthropic.NewClient(cfg.Anthropic.Key)
		classifier = crosswalk.NewIndustryClassifier(client, cfg.Anthropic.HaikuModel, cfg.Anthropic.MaxTokens)
	}

	matcher := crosswalk.NewMatcher(st.Pool(), classifier)
	upserter := canonical.NewUpserter(st.Pool())

	return &env{
		store:    st,
		upserter: upserter,
		matcher:  matcher,
		pipeline: pipeline.New(st, extract.NewRegistry(), matcher, upserter),
	}, nil
}

func (e *env) Close() {
	e.store.Close()
}
