// modelgrid TUI - compare AI models side by side in your terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/modelgrid-tui/internal/cli"
	"github.com/jeranaias/modelgrid-tui/internal/client"
	"github.com/jeranaias/modelgrid-tui/internal/config"
	"github.com/jeranaias/modelgrid-tui/internal/metrics"
	"github.com/jeranaias/modelgrid-tui/internal/storage"
	"github.com/jeranaias/modelgrid-tui/internal/store"
	"github.com/jeranaias/modelgrid-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI()
	case cli.CmdModels:
		cli.HandleModels()
	case cli.CmdExport:
		if err := runExport(args); err != nil {
			fatal(err)
		}
	case cli.CmdConfig:
		if err := cli.HandleConfig(); err != nil {
			fatal(err)
		}
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "modelgrid: %v\n", err)
	os.Exit(1)
}

// openStore opens the session database and rehydrates the persisted
// session.
func openStore(cfg *config.Config) (*store.Store, storage.KV, error) {
	var kv storage.KV
	if cfg.Storage.Path == "memory" {
		kv = storage.NewMemoryKV(cfg.Storage.BudgetBytes)
	} else {
		path, err := cfg.StatePath()
		if err != nil {
			return nil, nil, err
		}
		kv, err = storage.OpenSQLite(path, cfg.Storage.BudgetBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("open session database: %w", err)
		}
	}

	st := store.New(kv, cfg.DefaultModel)
	if err := st.Load(); err != nil {
		_ = kv.Close()
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	return st, kv, nil
}

func runTUI() {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	st, kv, err := openStore(cfg)
	if err != nil {
		fatal(err)
	}
	defer kv.Close()

	cl := client.New(&client.Config{
		BaseURL:           cfg.Server.BaseURL,
		Timeout:           time.Duration(cfg.Server.TimeoutSecs) * time.Second,
		RequestsPerMinute: cfg.Server.RequestsPerMinute,
	})

	app := ui.New(cfg, st, cl)
	program := tea.NewProgram(app, tea.WithAltScreen())

	// Reload config edits live; only display settings apply without a
	// restart.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		_ = config.Watch(watchCtx, func(fresh *config.Config) {
			cfg.UI = fresh.UI
		})
	}()

	if _, err := program.Run(); err != nil {
		fatal(err)
	}
}

// runExport writes session metrics without starting the TUI.
func runExport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: modelgrid export FILE (.json or .csv)")
	}
	path := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	st, kv, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	agg := metrics.NewAggregator(st)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = agg.ExportJSON(path)
	case ".csv":
		err = agg.ExportCSV(path)
	default:
		return fmt.Errorf("unsupported export format: %s", path)
	}
	if err != nil {
		return err
	}
	fmt.Printf("metrics written to %s\n", path)
	return nil
}
