// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog describes the text-generation models available to the
// playground: identifiers, providers, input/output modalities, tunable
// generation parameters with their valid ranges, and static per-token
// pricing used for request cost annotations.
package catalog
