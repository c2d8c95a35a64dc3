// cmd/paperflow/app_test.go
package main

import (
	"bytes"
	"io"
	"testing"
	"time"

	"paperflow/internal/platform/config"
	"paperflow/internal/platform/ui"
	"paperflow/internal/testutil"
	"paperflow/internal/workers"
)

func memoryConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.UIMode = string(ui.UIModeQuiet)
	cfg.Storage.EventsDB = ""
	cfg.Storage.KnowledgeDB = ""
	return cfg
}

func TestNewApp_ConfidenceThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{"default", 0.3, 0.3},
		{"custom", 0.5, 0.5},
		{"zero disables the gate", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memoryConfig()
			cfg.ConfidenceThreshold = tt.threshold
			testutil.AssertNoError(t, cfg.Validate(), "config is valid")

			a, err := newApp(cfg, io.Discard)
			testutil.AssertNoError(t, err, "app")
			defer a.Close()

			testutil.AssertEqual(t, a.orchestrator(workers.Paper2SaaSPlan()).Threshold(), tt.want, "effective threshold")
		})
	}
}

func TestNewApp_WebsiteClientIsSeparate(t *testing.T) {
	a, err := newApp(memoryConfig(), io.Discard)
	testutil.AssertNoError(t, err, "app")
	defer a.Close()

	testutil.AssertEqual(t, len(a.clients), 4, "scholar, hacker news, website and chat clients")
	web := a.clients[2].Config()
	testutil.AssertEqual(t, len(web.APIKeys), 0, "website client sends no keys")
	testutil.AssertEqual(t, web.CacheTTL, time.Duration(0), "website responses are not cached")
}

func TestNewPresenter(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		mode  ui.UIMode
		check func(ui.Presenter) bool
	}{
		{ui.UIModeRaw, func(p ui.Presenter) bool { _, ok := p.(*ui.RawPresenter); return ok }},
		{ui.UIModeJSON, func(p ui.Presenter) bool { _, ok := p.(*ui.RawPresenter); return ok }},
		{ui.UIModeQuiet, func(p ui.Presenter) bool { _, ok := p.(*ui.NoopPresenter); return ok }},
		{ui.UIModePretty, func(p ui.Presenter) bool { _, ok := p.(*ui.PTermPresenter); return ok }},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := memoryConfig()
			cfg.UIMode = string(tt.mode)
			testutil.AssertTrue(t, tt.check(newPresenter(cfg, &buf)), "presenter type")
		})
	}

	testutil.AssertFalse(t, isTerminal(&buf), "a buffer is not a terminal")
}

func TestJSONPresenterOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := memoryConfig()
	cfg.UIMode = string(ui.UIModeJSON)

	p := newPresenter(cfg, &buf)
	p.Info("starting")

	testutil.AssertContains(t, buf.String(), `"message":"starting"`, "one json object per event")
}
