package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/wplinks/internal/config"
	"github.com/nao1215/wplinks/internal/log"
	"github.com/nao1215/wplinks/internal/model"
)

// TestNewAnalyzeCmd tests the analyze command creation.
func TestNewAnalyzeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAnalyzeCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "analyze [site-url...]" {
			t.Errorf("expected use 'analyze [site-url...]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has per-page flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("per-page")
		if flag == nil {
			t.Fatal("expected per-page flag")
		}
		if flag.Shorthand != "p" {
			t.Errorf("expected shorthand 'p', got %q", flag.Shorthand)
		}
	})

	t.Run("has related-field flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("related-field")
		if flag == nil {
			t.Fatal("expected related-field flag")
		}
		if flag.DefValue != config.DefaultRelatedField {
			t.Errorf("expected default %q, got %q", config.DefaultRelatedField, flag.DefValue)
		}
	})

	t.Run("has ignore-non-posts flag defaulting to true", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("ignore-non-posts")
		if flag == nil {
			t.Fatal("expected ignore-non-posts flag")
		}
		if flag.DefValue != "true" {
			t.Errorf("expected default 'true', got %q", flag.DefValue)
		}
	})

	t.Run("has batch flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("batch")
		if flag == nil {
			t.Fatal("expected batch flag")
		}
		if flag.Shorthand != "b" {
			t.Errorf("expected shorthand 'b', got %q", flag.Shorthand)
		}
	})

	t.Run("has report format flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"csv", "csv-pattern", "json", "markdown", "output"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Sites) != 1 || cfg.Sites[0].URL != "https://example.com" {
			t.Errorf("expected one site for the positional argument, got %v", cfg.Sites)
		}
		if cfg.PerPage != config.DefaultPerPage {
			t.Errorf("expected PerPage %d, got %d", config.DefaultPerPage, cfg.PerPage)
		}
		if cfg.RelatedField != config.DefaultRelatedField {
			t.Errorf("expected RelatedField %q, got %q", config.DefaultRelatedField, cfg.RelatedField)
		}
		if !cfg.IgnoreNonPosts {
			t.Error("expected IgnoreNonPosts to be true")
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir == "" {
			t.Error("expected a database directory")
		}
	})

	t.Run("builds config with custom per-page", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("per-page", "25")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.PerPage != 25 {
			t.Errorf("expected PerPage 25, got %d", cfg.PerPage)
		}
	})

	t.Run("builds config with custom batch size", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("batch", "5")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.BatchSize != 5 {
			t.Errorf("expected BatchSize 5, got %d", cfg.BatchSize)
		}
	})

	t.Run("builds config with report flags", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("csv", "true")
		_ = cmd.Flags().Set("csv-pattern", "out_{site}.csv")
		_ = cmd.Flags().Set("json", "true")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.CSVExport {
			t.Error("expected CSVExport to be true")
		}
		if cfg.CSVPattern != "out_{site}.csv" {
			t.Errorf("expected CSVPattern 'out_{site}.csv', got %q", cfg.CSVPattern)
		}
		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("config file sites come before positional arguments", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "sites.yaml")
		content := `defaults:
  perPage: 50
sites:
  - name: first
    url: https://first.example.com
  - name: second
    url: https://second.example.com
    perPage: 10
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, []string{"https://third.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Sites) != 3 {
			t.Fatalf("expected 3 sites, got %d", len(cfg.Sites))
		}
		if cfg.Sites[0].Name != "first" || cfg.Sites[1].Name != "second" {
			t.Errorf("expected config file sites first, got %v", cfg.Sites)
		}
		if cfg.Sites[1].PerPage != 10 {
			t.Errorf("expected per-site override 10, got %d", cfg.Sites[1].PerPage)
		}
		if cfg.Sites[2].URL != "https://third.example.com" {
			t.Errorf("expected positional argument last, got %q", cfg.Sites[2].URL)
		}
	})

	t.Run("explicit missing config file is an error", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml"))
		if _, err := buildConfig(cmd, nil); err == nil {
			t.Fatal("expected an error for a missing config file")
		}
	})
}

// TestBuildPipeline tests per-site pipeline assembly.
func TestBuildPipeline(t *testing.T) {
	t.Parallel()

	t.Run("assembles the three analysis steps", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		logger := log.NewLogger(os.Stderr, false)

		p, err := buildPipeline(cfg, config.Site{URL: "https://example.com"}, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		names := p.StepNames()
		want := []string{"discover_articles", "extract_links", "aggregate"}
		if len(names) != len(want) {
			t.Fatalf("got steps %v, expected %v", names, want)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("step %d: got %q, expected %q", i, names[i], want[i])
			}
		}
	})

	t.Run("rejects an unparseable site URL", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		logger := log.NewLogger(os.Stderr, false)

		if _, err := buildPipeline(cfg, config.Site{URL: "://not-a-url"}, logger); err == nil {
			t.Fatal("expected an error for an unparseable URL")
		}
	})
}

// TestFailingStep tests the construction-failure carrier step.
func TestFailingStep(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("construction failed")
	step := &failingStep{err: sentinel}

	if step.Name() != "build_pipeline" {
		t.Errorf("got name %q, expected 'build_pipeline'", step.Name())
	}
	report := model.NewSiteReport("example", "https://example.com")
	if err := step.Do(context.Background(), report); !errors.Is(err, sentinel) {
		t.Errorf("got error %v, expected the sentinel", err)
	}
}

// TestGetVerboseFlag tests verbose flag resolution.
func TestGetVerboseFlag(t *testing.T) {
	t.Parallel()

	t.Run("false without a verbose flag", func(t *testing.T) {
		t.Parallel()
		if getVerboseFlag(NewAnalyzeCmd()) {
			t.Error("expected false when the flag is absent")
		}
	})

	t.Run("reads the root persistent flag", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		analyze := NewAnalyzeCmd()
		root.AddCommand(analyze)

		if !getVerboseFlag(analyze) {
			t.Error("expected true from the root verbose flag")
		}
	})
}
