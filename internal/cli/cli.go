// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for modelgrid.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/jeranaias/modelgrid-tui/internal/catalog"
	"github.com/jeranaias/modelgrid-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdModels
	CmdExport
	CmdConfig
	CmdVersion
	CmdHelp
)

// Parse determines the command from os.Args.
func Parse() (Command, []string) {
	args := os.Args[1:]
	if len(args) == 0 {
		return CmdTUI, nil
	}

	switch args[0] {
	case "models":
		return CmdModels, args[1:]
	case "export":
		return CmdExport, args[1:]
	case "config":
		return CmdConfig, args[1:]
	case "version", "--version", "-v":
		return CmdVersion, args[1:]
	case "help", "--help", "-h":
		return CmdHelp, args[1:]
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		PrintUsage()
		os.Exit(2)
		return CmdHelp, nil
	}
}

// PrintUsage prints the top-level help text.
func PrintUsage() {
	fmt.Print(`modelgrid - compare AI models side by side in your terminal

Usage:
  modelgrid              launch the TUI
  modelgrid models       list available models
  modelgrid export FILE  export session metrics (.json or .csv)
  modelgrid config       show the active configuration
  modelgrid version      print version information

Environment:
  MODELGRID_MODEL        default model id
  MODELGRID_SERVER_URL   chat gateway base URL
  MODELGRID_SYNC_SCOPE   input sync scope: conversation | global
  MODELGRID_STATE_PATH   session database path
  MODELGRID_THEME        ui theme: dark | light
`)
}

// HandleModels lists the model catalog.
func HandleModels() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tNAME\tINPUT\tPRICED")
	for _, m := range catalog.Models() {
		input := "text"
		if m.AcceptsImages() {
			input = "text+image"
		}
		priced := "yes"
		if !m.Priced() {
			priced = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Provider, m.Name, input, priced)
	}
	_ = w.Flush()
}

// HandleConfig prints the active configuration location and values.
func HandleConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}

	fmt.Printf("config file:   %s\n", path)
	fmt.Printf("default model: %s\n", cfg.DefaultModel)
	fmt.Printf("server:        %s (timeout %ds, %d req/min)\n",
		cfg.Server.BaseURL, cfg.Server.TimeoutSecs, cfg.Server.RequestsPerMinute)
	statePath, err := cfg.StatePath()
	if err != nil {
		return err
	}
	fmt.Printf("state:         %s (budget %d bytes)\n", statePath, cfg.Storage.BudgetBytes)
	fmt.Printf("sync scope:    %s\n", cfg.Sync.Scope)
	fmt.Printf("theme:         %s\n", cfg.UI.Theme)
	return nil
}

// HandleVersion prints version information.
func HandleVersion() {
	fmt.Printf("modelgrid %s\n", Version)
	fmt.Printf("  commit:  %s\n", GitCommit)
	fmt.Printf("  built:   %s\n", BuildDate)
	fmt.Printf("  runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
