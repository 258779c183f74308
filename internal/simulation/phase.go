// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package simulation

import (
	"time"

	"github.com/crisislab/infodemic/internal/models"
)

// PhaseSpec is the nominal schedule of one crisis phase. Real-time values
// are obtained by dividing by the current acceleration factor.
type PhaseSpec struct {
	// Duration is the nominal phase length before auto-advancing.
	Duration time.Duration

	// ContentTarget is the number of content items the phase aims to
	// generate during execution.
	ContentTarget int
}

var phaseSpecs = map[models.CrisisPhase]PhaseSpec{
	models.PhaseInitialSpark:     {Duration: 2 * time.Minute, ContentTarget: 3},
	models.PhaseBotAmplification: {Duration: 3 * time.Minute, ContentTarget: 6},
	models.PhaseOrganicSpread:    {Duration: 5 * time.Minute, ContentTarget: 12},
	models.PhasePeakPanic:        {Duration: 4 * time.Minute, ContentTarget: 10},
	models.PhaseIntervention:     {Duration: 3 * time.Minute, ContentTarget: 5},
	models.PhaseSentimentShift:   {Duration: 4 * time.Minute, ContentTarget: 8},
	models.PhaseResolution:       {Duration: 2 * time.Minute, ContentTarget: 1},
}

// SpecFor returns the schedule for a phase. Dormant has a zero spec.
func SpecFor(phase models.CrisisPhase) PhaseSpec {
	return phaseSpecs[phase]
}
