// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for
// modelgrid.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//
// # Usage
//
// Parse and dispatch commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdModels:
//	    cli.HandleModels()
//	case cli.CmdVersion:
//	    cli.HandleVersion()
//	}
//
// The default command (no arguments) launches the interactive TUI.
package cli
