// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

// Package models defines the domain types shared across the simulation and
// detection subsystems: content items, synthetic users, crises, and threat
// records, plus the enums and sentinel errors they depend on.
//
// The two subsystems interact only through these persisted types, never via
// in-memory shared objects.
package models
