// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

// Package scoring evaluates content items for threat signals. Scoring is a
// deterministic function of the item, its author, and the evaluation time;
// rescoring an unchanged item always yields the same result.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/crisislab/infodemic/internal/models"
)

// Component caps.
const (
	maxEngagementScore = 40.0
	maxVelocityScore   = 30.0
	maxKeywordScore    = 25.0
	maxEmotionalScore  = 20.0
	maxScore           = 100.0

	engagementFloor   = 50.0  // interactions below this score 0
	engagementCeiling = 500.0 // interactions at or above this score the cap
	velocityFloor     = 5.0   // interactions/min below this score 0
	velocityCeiling   = 50.0  // interactions/min at or above this score the cap

	pointsPerKeyword = 5.0
	maxKeywords      = 5
)

// crisisKeywords are matched case-insensitively as substrings of the body.
var crisisKeywords = []string{
	"frozen",
	"blocked",
	"hacked",
	"breach",
	"scam",
	"stolen",
	"down",
	"crash",
	"panic",
	"urgent",
	"emergency",
}

// Result is the outcome of scoring one content item.
type Result struct {
	// Score is the total in [0,100].
	Score float64

	// Severity is set only when Threat is true.
	Severity models.Severity

	// Threat reports whether the score crosses the detection floor.
	Threat bool

	// Reasons are human-readable explanations for the scored components.
	Reasons []string

	// Component breakdown.
	EngagementScore float64
	VelocityScore   float64
	KeywordScore    float64
	EmotionalScore  float64
}

// Score evaluates item at the given time. Content authored by the official
// responder is always exempt: score 0, never a threat.
func Score(item *models.ContentItem, author *models.SyntheticUser, now time.Time) Result {
	if author != nil && author.Type == models.UserTypeOfficial {
		return Result{}
	}

	var result Result
	var reasons []string

	interactions := item.TotalInteractions()
	result.EngagementScore = engagementScore(interactions)
	if result.EngagementScore > 0 {
		reasons = append(reasons, fmt.Sprintf("high engagement (%d interactions)", interactions))
	}

	velocity := float64(interactions) / item.AgeMinutes(now)
	result.VelocityScore = velocityScore(velocity)
	if result.VelocityScore > 0 {
		reasons = append(reasons, fmt.Sprintf("rapid spread (%.1f interactions/min)", velocity))
	}

	matched := matchKeywords(item.Body)
	result.KeywordScore = math.Min(float64(len(matched))*pointsPerKeyword, maxKeywordScore)
	if len(matched) > 0 {
		reasons = append(reasons, "crisis keywords: "+strings.Join(matched, ", "))
	}

	result.EmotionalScore = emotionalScore(item.Tone)
	if result.EmotionalScore > 0 {
		reasons = append(reasons, fmt.Sprintf("%s emotional tone", item.Tone))
	}

	result.Score = math.Min(
		result.EngagementScore+result.VelocityScore+result.KeywordScore+result.EmotionalScore,
		maxScore,
	)
	result.Severity, result.Threat = models.SeverityForScore(result.Score)
	if result.Threat {
		result.Reasons = reasons
	}
	return result
}

// ThreatLevel maps a score to the content item's 0-1 threat level.
func ThreatLevel(score float64) float64 {
	return math.Min(math.Max(score/maxScore, 0), 1)
}

// engagementScore maps total interactions logarithmically onto 0-40.
func engagementScore(interactions int64) float64 {
	t := float64(interactions)
	switch {
	case t < engagementFloor:
		return 0
	case t >= engagementCeiling:
		return maxEngagementScore
	default:
		return maxEngagementScore * math.Log10(t/engagementFloor)
	}
}

// velocityScore maps interactions per minute linearly onto 0-30.
func velocityScore(perMinute float64) float64 {
	switch {
	case perMinute < velocityFloor:
		return 0
	case perMinute >= velocityCeiling:
		return maxVelocityScore
	default:
		return maxVelocityScore * (perMinute - velocityFloor) / (velocityCeiling - velocityFloor)
	}
}

// matchKeywords returns the distinct crisis keywords present in body, at
// most maxKeywords of them, in stable order.
func matchKeywords(body string) []string {
	lower := strings.ToLower(body)
	var matched []string
	for _, kw := range crisisKeywords {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
			if len(matched) == maxKeywords {
				break
			}
		}
	}
	sort.Strings(matched)
	return matched
}

func emotionalScore(tone models.EmotionalTone) float64 {
	switch tone {
	case models.TonePanic:
		return maxEmotionalScore
	case models.ToneAnger:
		return 15
	case models.ToneConcern:
		return 10
	default:
		return 0
	}
}
