// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package models

import "errors"

// Sentinel errors shared across the domain. Wrap with fmt.Errorf("...: %w")
// and match with errors.Is.
var (
	// ErrNotFound indicates an unknown crisis/content/threat/user id.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input; the operation never mutated state.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates an invariant violation, e.g. addressing an
	// already-addressed threat.
	ErrConflict = errors.New("conflict")
)
