// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helper functions shared across the router.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateRunesNoEllipsis: UTF-8 safe truncation without suffix
//
// # Usage
//
//	// Truncate matched text safely for a provenance token
//	snippet := util.TruncateRunes(matched, 40)
package util
