// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

// version is overridden at build time via -ldflags.
var version = "dev"
