package intelligence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fitsync/gateway/pkg/providers"
)

// InsightType categorizes a generated Insight.
type InsightType string

const (
	InsightAchievement    InsightType = "achievement"
	InsightZoneAnalysis   InsightType = "zone_analysis"
	InsightEffortAnalysis InsightType = "effort_analysis"
	InsightWeatherImpact  InsightType = "weather_impact"
	InsightTrendAnalysis  InsightType = "trend_analysis"
)

// Insight is one human-readable observation extracted from an activity, with
// a confidence score used to rank and filter the final list.
type Insight struct {
	Type       InsightType
	Message    string
	Confidence float64
	Data       map[string]any
}

// insightConfig bounds how many insights surface and how confident they must
// be before they're worth showing.
type insightConfig struct {
	minConfidence float64
	maxInsights   int
}

var defaultInsightConfig = insightConfig{minConfidence: 70.0, maxInsights: 5}

// generateInsights produces every candidate insight for activity, then
// filters by confidence, sorts descending, and caps the list length.
func generateInsights(activity providers.Activity, ctx *Context) []Insight {
	var out []Insight
	out = append(out, achievementInsights(activity)...)
	out = append(out, zoneInsights(activity)...)
	out = append(out, effortInsights(activity)...)
	if ctx != nil {
		out = append(out, weatherInsights(ctx)...)
		out = append(out, trendInsights(ctx)...)
	}

	cfg := defaultInsightConfig
	filtered := out[:0]
	for _, in := range out {
		if in.Confidence >= cfg.minConfidence {
			filtered = append(filtered, in)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Confidence > filtered[j].Confidence
	})
	if len(filtered) > cfg.maxInsights {
		filtered = filtered[:cfg.maxInsights]
	}
	return filtered
}

func achievementInsights(activity providers.Activity) []Insight {
	if activity.DistanceMeters == nil {
		return nil
	}
	distanceKM := *activity.DistanceMeters / 1000.0
	if distanceKM <= distancePRThresholdKM {
		return nil
	}
	return []Insight{{
		Type:       InsightAchievement,
		Message:    fmt.Sprintf("Impressive distance! You completed %.2f km, showing great endurance.", distanceKM),
		Confidence: 85.0,
		Data: map[string]any{
			"distance_km":      distanceKM,
			"achievement_type": "distance_milestone",
		},
	}}
}

func zoneInsights(activity providers.Activity) []Insight {
	if activity.AverageHeartRate == nil || activity.MaxHeartRate == nil {
		return nil
	}
	avg, max := float64(*activity.AverageHeartRate), float64(*activity.MaxHeartRate)
	intensity := avg / max

	var zoneDesc string
	var confidence float64
	switch {
	case intensity < 0.6:
		zoneDesc, confidence = "recovery zone", 90.0
	case intensity < 0.7:
		zoneDesc, confidence = "endurance zone", 95.0
	case intensity < 0.8:
		zoneDesc, confidence = "tempo zone", 92.0
	case intensity < 0.9:
		zoneDesc, confidence = "threshold zone", 88.0
	default:
		zoneDesc, confidence = "VO2 max zone", 85.0
	}

	return []Insight{{
		Type: InsightZoneAnalysis,
		Message: fmt.Sprintf(
			"Your average heart rate of %d bpm indicates most time was spent in the %s. This is excellent for building aerobic capacity.",
			*activity.AverageHeartRate, zoneDesc,
		),
		Confidence: confidence,
		Data: map[string]any{
			"avg_heartrate":   *activity.AverageHeartRate,
			"max_heartrate":   *activity.MaxHeartRate,
			"zone":            zoneDesc,
			"intensity_ratio": intensity,
		},
	}}
}

func effortInsights(activity providers.Activity) []Insight {
	effort := relativeEffort(activity)

	var category, verdict string
	switch {
	case effort < 3.0:
		category, verdict = "light", "perfect for recovery"
	case effort < 5.0:
		category, verdict = "moderate", "good training stimulus"
	case effort < 7.0:
		category, verdict = "hard", "excellent workout intensity"
	case effort < 9.0:
		category, verdict = "very hard", "high training load"
	default:
		category, verdict = "maximum", "peak effort achieved"
	}

	return []Insight{{
		Type: InsightEffortAnalysis,
		Message: fmt.Sprintf(
			"With a %s effort level, this %s session was %s for your training goals.",
			category, formatDuration(activity.DurationSeconds), verdict,
		),
		Confidence: 80.0,
		Data: map[string]any{
			"effort_score":    effort,
			"duration_seconds": activity.DurationSeconds,
			"effort_category": category,
		},
	}}
}

func weatherInsights(ctx *Context) []Insight {
	if ctx == nil || ctx.Weather == nil {
		return nil
	}
	w := ctx.Weather
	switch {
	case w.TemperatureCelsius < 5.0:
		return []Insight{{
			Type:       InsightWeatherImpact,
			Message:    fmt.Sprintf("Cold weather conditions (%.1f°C) likely made this workout more challenging. Great job adapting to the conditions!", w.TemperatureCelsius),
			Confidence: 75.0,
			Data: map[string]any{
				"temperature": w.TemperatureCelsius,
				"impact":      "challenging_conditions",
			},
		}}
	case strings.Contains(strings.ToLower(w.Conditions), "rain"):
		return []Insight{{
			Type:       InsightWeatherImpact,
			Message:    "Training in rainy conditions shows excellent dedication and mental toughness!",
			Confidence: 85.0,
			Data: map[string]any{
				"conditions": w.Conditions,
				"impact":     "mental_toughness",
			},
		}}
	}
	return nil
}

func trendInsights(ctx *Context) []Insight {
	if ctx == nil || ctx.Baseline == nil || len(ctx.Baseline.RecentActivities) < 3 {
		return nil
	}
	return []Insight{{
		Type:       InsightTrendAnalysis,
		Message:    "Your consistency has been excellent this week with multiple quality sessions!",
		Confidence: 80.0,
		Data: map[string]any{
			"recent_activity_count": len(ctx.Baseline.RecentActivities),
			"trend":                 "consistent_training",
		},
	}}
}

func formatDuration(seconds uint64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%d hour%s %d minute%s", hours, plural(hours), minutes, plural(minutes))
	}
	return fmt.Sprintf("%d minute%s", minutes, plural(minutes))
}

func plural(n uint64) string {
	if n == 1 {
		return ""
	}
	return "s"
}

