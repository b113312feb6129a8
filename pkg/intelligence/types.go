// Package intelligence implements the Activity Intelligence Analyzer: a pure
// function turning one providers.Activity (plus optional contextual factors)
// into a deterministic natural-language summary, performance indicators, and
// a ranked list of insights. Nothing here touches the network or the store;
// callers that want history-aware trends or weather supply it via Context.
package intelligence

import "time"

// ActivityIntelligence is the full result of analyzing one activity.
type ActivityIntelligence struct {
	Summary              string
	KeyInsights          []Insight
	PerformanceIndicators PerformanceMetrics
	ContextualFactors    ContextualFactors
	GeneratedAt          time.Time
}

// PerformanceMetrics bundles the quantitative outputs of analysis.
type PerformanceMetrics struct {
	RelativeEffort   *float64
	ZoneDistribution *ZoneDistribution
	PersonalRecords  []PersonalRecord
	EfficiencyScore  *float64
	TrendIndicators  TrendIndicators
}

// ZoneDistribution is the estimated percentage of the activity spent in each
// heart-rate training zone. The five percentages sum to 100.
type ZoneDistribution struct {
	Zone1Recovery  float64
	Zone2Endurance float64
	Zone3Tempo     float64
	Zone4Threshold float64
	Zone5VO2Max    float64
}

// PersonalRecord describes one detected best-effort, with the prior best it
// improved on when known.
type PersonalRecord struct {
	RecordType            string
	Value                 float64
	Unit                  string
	PreviousBest          *float64
	ImprovementPercentage *float64
}

// TrendDirection describes how a metric is moving relative to recent history.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// TrendIndicators compares this activity against recent history. Without a
// Baseline in Context, every field reports the conservative Stable/neutral
// default rather than a guess.
type TrendIndicators struct {
	PaceTrend        TrendDirection
	EffortTrend      TrendDirection
	DistanceTrend    TrendDirection
	ConsistencyScore float64
}

// TimeOfDay buckets an activity's local start hour.
type TimeOfDay string

const (
	TimeEarlyMorning TimeOfDay = "early_morning" // 5-7 AM
	TimeMorning      TimeOfDay = "morning"       // 7-11 AM
	TimeMidday       TimeOfDay = "midday"        // 11 AM-2 PM
	TimeAfternoon    TimeOfDay = "afternoon"     // 2-6 PM
	TimeEvening      TimeOfDay = "evening"       // 6-9 PM
	TimeNight        TimeOfDay = "night"         // 9 PM-5 AM
)

// WeatherConditions describes conditions during an activity, supplied by the
// caller (the gateway has no weather provider of its own).
type WeatherConditions struct {
	TemperatureCelsius float64
	HumidityPercentage *float64
	WindSpeedKMH       *float64
	Conditions         string
}

// LocationContext supplements an activity's raw lat/lon with place names.
type LocationContext struct {
	City      *string
	Region    *string
	TrailName *string
}

// WeeklyLoad summarizes recent training volume for trend commentary.
type WeeklyLoad struct {
	TotalDistanceKM    float64
	TotalDurationHours float64
	ActivityCount      int
	LoadTrend          TrendDirection
}

// ContextualFactors records the conditions under which an activity happened.
type ContextualFactors struct {
	Weather                *WeatherConditions
	Location               *LocationContext
	TimeOfDay              TimeOfDay
	DaysSinceLastActivity  *int
	WeeklyLoad             *WeeklyLoad
}

// Baseline overrides the demo-grade constant thresholds used for personal
// record detection and trend computation with a caller's real history. A nil
// Baseline falls back to the fixed thresholds.
type Baseline struct {
	LongestDistanceKM   *float64
	FastestPaceSecPerKM *float64
	RecentActivities    []RecentActivity
}

// RecentActivity is the minimal shape needed to compute trend indicators
// from history: a narrower input than providers.Activity, so callers supply
// only these fields.
type RecentActivity struct {
	DistanceMeters  *float64
	DurationSeconds uint64
	AverageSpeedMS  *float64
	StartTime       time.Time
}

// Context is the optional input that enriches analysis beyond the bare
// activity: weather, location, and a history baseline for trends and PRs.
type Context struct {
	Weather  *WeatherConditions
	Location *LocationContext
	Baseline *Baseline
}
