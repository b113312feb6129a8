package intelligence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fitsync/gateway/pkg/providers"
)

// Demo-grade thresholds for personal-record detection and other heuristics.
// A caller with real history overrides these via Context.Baseline.
const (
	distancePRThresholdKM   = 20.0
	distancePRDemoBestKM    = 18.5
	pacePRThresholdSecPerKM = 300.0
	pacePRDemoBestSecPerKM  = 320.0

	restingHeartRateBPM = 60.0
)

// Analyze produces the full intelligence report for one activity. It is a
// pure function of (activity, ctx): apart from the GeneratedAt timestamp, the
// same inputs always produce the same output, with no network or store access.
func Analyze(activity providers.Activity, ctx *Context) ActivityIntelligence {
	insights := generateInsights(activity, ctx)
	performance := performanceMetrics(activity, ctx)
	contextual := contextualFactors(activity, ctx)
	summary := generateSummary(activity, insights, performance, contextual)

	return ActivityIntelligence{
		Summary:               summary,
		KeyInsights:            insights,
		PerformanceIndicators: performance,
		ContextualFactors:     contextual,
		GeneratedAt:           time.Now().UTC(),
	}
}

func performanceMetrics(activity providers.Activity, ctx *Context) PerformanceMetrics {
	effort := relativeEffort(activity)
	efficiency := efficiencyScore(activity)

	return PerformanceMetrics{
		RelativeEffort:   &effort,
		ZoneDistribution: zoneDistribution(activity),
		PersonalRecords:  personalRecords(activity, ctx),
		EfficiencyScore:  &efficiency,
		TrendIndicators:  trendIndicators(activity, ctx),
	}
}

// relativeEffort scores an activity 1-10 from duration, heart-rate
// intensity, sport-scaled distance, and elevation gain.
func relativeEffort(activity providers.Activity) float64 {
	effort := 1.0

	effort += (float64(activity.DurationSeconds) / 3600.0) * 1.5

	if activity.AverageHeartRate != nil && activity.MaxHeartRate != nil {
		hrIntensity := float64(*activity.AverageHeartRate) / float64(*activity.MaxHeartRate)
		effort += hrIntensity * 4.0
	}

	if activity.DistanceMeters != nil {
		distanceKM := *activity.DistanceMeters / 1000.0
		switch activity.SportType.Kind {
		case providers.SportRun:
			effort += (distanceKM / 10.0) * 0.8
		case providers.SportRide:
			effort += (distanceKM / 50.0) * 0.6
		default:
			effort += (distanceKM / 20.0) * 0.5
		}
	}

	if activity.ElevationGainM != nil {
		effort += (*activity.ElevationGainM / 100.0) * 0.3
	}

	if effort > 10.0 {
		effort = 10.0
	}
	if effort < 1.0 {
		effort = 1.0
	}
	return effort
}

// zoneDistribution estimates time-in-zone from average heart-rate intensity
// alone; it returns nil when heart-rate data is absent, since the five
// buckets cannot be meaningfully approximated without it.
func zoneDistribution(activity providers.Activity) *ZoneDistribution {
	if activity.AverageHeartRate == nil || activity.MaxHeartRate == nil {
		return nil
	}
	avg, max := float64(*activity.AverageHeartRate), float64(*activity.MaxHeartRate)
	hrReserve := max - restingHeartRateBPM
	intensity := (avg - restingHeartRateBPM) / hrReserve

	var z ZoneDistribution
	switch {
	case intensity < 0.5:
		z = ZoneDistribution{Zone1Recovery: 80.0, Zone2Endurance: 20.0}
	case intensity < 0.6:
		z = ZoneDistribution{Zone1Recovery: 20.0, Zone2Endurance: 70.0, Zone3Tempo: 10.0}
	case intensity < 0.7:
		z = ZoneDistribution{Zone1Recovery: 10.0, Zone2Endurance: 40.0, Zone3Tempo: 45.0, Zone4Threshold: 5.0}
	case intensity < 0.85:
		z = ZoneDistribution{Zone1Recovery: 5.0, Zone2Endurance: 20.0, Zone3Tempo: 30.0, Zone4Threshold: 40.0, Zone5VO2Max: 5.0}
	default:
		z = ZoneDistribution{Zone2Endurance: 10.0, Zone3Tempo: 20.0, Zone4Threshold: 40.0, Zone5VO2Max: 30.0}
	}
	return &z
}

// personalRecords compares distance and pace against a caller-supplied
// Baseline when present, falling back to fixed demo thresholds otherwise.
func personalRecords(activity providers.Activity, ctx *Context) []PersonalRecord {
	var records []PersonalRecord

	distanceThresholdKM, distanceBestKM := distancePRThresholdKM, distancePRDemoBestKM
	paceThresholdSec, paceBestSec := pacePRThresholdSecPerKM, pacePRDemoBestSecPerKM
	if ctx != nil && ctx.Baseline != nil {
		if ctx.Baseline.LongestDistanceKM != nil {
			distanceThresholdKM = *ctx.Baseline.LongestDistanceKM
			distanceBestKM = *ctx.Baseline.LongestDistanceKM
		}
		if ctx.Baseline.FastestPaceSecPerKM != nil {
			paceThresholdSec = *ctx.Baseline.FastestPaceSecPerKM
			paceBestSec = *ctx.Baseline.FastestPaceSecPerKM
		}
	}

	if activity.DistanceMeters != nil {
		distanceKM := *activity.DistanceMeters / 1000.0
		if distanceKM > distanceThresholdKM {
			improvement := (distanceKM - distanceBestKM) / distanceBestKM * 100.0
			best := distanceBestKM
			records = append(records, PersonalRecord{
				RecordType:            "Longest Distance",
				Value:                 distanceKM,
				Unit:                  "km",
				PreviousBest:          &best,
				ImprovementPercentage: &improvement,
			})
		}
	}

	if activity.AverageSpeedMS != nil && *activity.AverageSpeedMS > 0 {
		pacePerKM := 1000.0 / *activity.AverageSpeedMS
		if pacePerKM < paceThresholdSec {
			improvement := (paceBestSec - pacePerKM) / paceBestSec * 100.0
			best := paceBestSec
			records = append(records, PersonalRecord{
				RecordType:            "Fastest Average Pace",
				Value:                 pacePerKM,
				Unit:                  "seconds/km",
				PreviousBest:          &best,
				ImprovementPercentage: &improvement,
			})
		}
	}

	return records
}

// efficiencyScore combines heart-rate-per-pace efficiency and speed
// consistency into a 0-100 score, starting from a neutral base of 50.
func efficiencyScore(activity providers.Activity) float64 {
	efficiency := 50.0

	if activity.AverageHeartRate != nil && activity.AverageSpeedMS != nil && *activity.AverageSpeedMS > 0 {
		pacePerKM := 1000.0 / *activity.AverageSpeedMS
		hrEfficiency := 1000.0 / (float64(*activity.AverageHeartRate) * pacePerKM)
		efficiency += hrEfficiency * 10.0
	}

	if activity.AverageSpeedMS != nil && activity.MaxSpeedMS != nil && *activity.MaxSpeedMS > 0 {
		speedVariance := *activity.MaxSpeedMS - *activity.AverageSpeedMS
		ratio := speedVariance / *activity.MaxSpeedMS
		if ratio > 1.0 {
			ratio = 1.0
		}
		consistency := 1.0 - ratio
		efficiency += consistency * 20.0
	}

	if efficiency > 100.0 {
		efficiency = 100.0
	}
	if efficiency < 0.0 {
		efficiency = 0.0
	}
	return efficiency
}

// trendIndicators compares this activity's pace and distance against a
// Baseline of recent activities when supplied. Without a Baseline it reports
// the conservative Stable/neutral defaults rather than fabricating a trend.
func trendIndicators(activity providers.Activity, ctx *Context) TrendIndicators {
	if ctx == nil || ctx.Baseline == nil || len(ctx.Baseline.RecentActivities) == 0 {
		return TrendIndicators{
			PaceTrend:        TrendStable,
			EffortTrend:      TrendStable,
			DistanceTrend:    TrendStable,
			ConsistencyScore: 85.0,
		}
	}

	recent := ctx.Baseline.RecentActivities
	var avgDistanceM, avgDurationSec float64
	var distanceCount, durationCount int
	for _, a := range recent {
		if a.DistanceMeters != nil {
			avgDistanceM += *a.DistanceMeters
			distanceCount++
		}
		avgDurationSec += float64(a.DurationSeconds)
		durationCount++
	}
	if distanceCount > 0 {
		avgDistanceM /= float64(distanceCount)
	}
	if durationCount > 0 {
		avgDurationSec /= float64(durationCount)
	}

	distanceTrend := TrendStable
	if activity.DistanceMeters != nil && distanceCount > 0 {
		switch {
		case *activity.DistanceMeters > avgDistanceM*1.05:
			distanceTrend = TrendImproving
		case *activity.DistanceMeters < avgDistanceM*0.95:
			distanceTrend = TrendDeclining
		}
	}

	paceTrend := TrendStable
	if activity.AverageSpeedMS != nil {
		var avgSpeed float64
		var speedCount int
		for _, a := range recent {
			if a.AverageSpeedMS != nil {
				avgSpeed += *a.AverageSpeedMS
				speedCount++
			}
		}
		if speedCount > 0 {
			avgSpeed /= float64(speedCount)
			switch {
			case *activity.AverageSpeedMS > avgSpeed*1.05:
				paceTrend = TrendImproving
			case *activity.AverageSpeedMS < avgSpeed*0.95:
				paceTrend = TrendDeclining
			}
		}
	}

	effortTrend := TrendStable
	if durationCount > 0 {
		switch {
		case float64(activity.DurationSeconds) > avgDurationSec*1.1:
			effortTrend = TrendImproving
		case float64(activity.DurationSeconds) < avgDurationSec*0.9:
			effortTrend = TrendDeclining
		}
	}

	consistency := 85.0
	if len(recent) >= 3 {
		consistency = 90.0
	}

	return TrendIndicators{
		PaceTrend:        paceTrend,
		EffortTrend:      effortTrend,
		DistanceTrend:    distanceTrend,
		ConsistencyScore: consistency,
	}
}

func contextualFactors(activity providers.Activity, ctx *Context) ContextualFactors {
	factors := ContextualFactors{
		TimeOfDay: timeOfDay(activity.StartTime),
	}
	if ctx == nil {
		return factors
	}

	factors.Weather = ctx.Weather
	factors.Location = ctx.Location

	if ctx.Baseline == nil || len(ctx.Baseline.RecentActivities) == 0 {
		return factors
	}

	factors.DaysSinceLastActivity = daysSinceLastActivity(activity.StartTime, ctx.Baseline.RecentActivities)
	factors.WeeklyLoad = weeklyLoad(activity.StartTime, ctx.Baseline.RecentActivities)
	return factors
}

// daysSinceLastActivity finds the most recent RecentActivity strictly before
// activityStart and returns the whole-day gap to it.
func daysSinceLastActivity(activityStart time.Time, recent []RecentActivity) *int {
	var lastBefore time.Time
	found := false
	for _, a := range recent {
		if a.StartTime.IsZero() || !a.StartTime.Before(activityStart) {
			continue
		}
		if !found || a.StartTime.After(lastBefore) {
			lastBefore = a.StartTime
			found = true
		}
	}
	if !found {
		return nil
	}
	days := int(activityStart.Sub(lastBefore).Hours() / 24.0)
	return &days
}

// weeklyLoad sums distance and duration across recent activities that fall
// within the 7 days up to and including activityStart, trending the total
// against the remainder of the supplied history.
func weeklyLoad(activityStart time.Time, recent []RecentActivity) *WeeklyLoad {
	windowStart := activityStart.AddDate(0, 0, -7)

	var thisWeekDistanceM, thisWeekDurationSec, priorDistanceM float64
	var thisWeekCount, priorCount int
	for _, a := range recent {
		if a.StartTime.IsZero() {
			continue
		}
		distanceM := 0.0
		if a.DistanceMeters != nil {
			distanceM = *a.DistanceMeters
		}
		if !a.StartTime.Before(windowStart) && !a.StartTime.After(activityStart) {
			thisWeekDistanceM += distanceM
			thisWeekDurationSec += float64(a.DurationSeconds)
			thisWeekCount++
		} else if a.StartTime.Before(windowStart) {
			priorDistanceM += distanceM
			priorCount++
		}
	}
	if thisWeekCount == 0 {
		return nil
	}

	trend := TrendStable
	if priorCount > 0 {
		priorAvgDistanceM := priorDistanceM / float64(priorCount)
		switch {
		case thisWeekDistanceM > priorAvgDistanceM*float64(thisWeekCount)*1.1:
			trend = TrendImproving
		case thisWeekDistanceM < priorAvgDistanceM*float64(thisWeekCount)*0.9:
			trend = TrendDeclining
		}
	}

	return &WeeklyLoad{
		TotalDistanceKM:    thisWeekDistanceM / 1000.0,
		TotalDurationHours: thisWeekDurationSec / 3600.0,
		ActivityCount:      thisWeekCount,
		LoadTrend:          trend,
	}
}

// timeOfDay buckets the activity's start time converted to local time, since
// the hour categories are meaningful relative to the athlete's own clock.
func timeOfDay(start time.Time) TimeOfDay {
	hour := start.Local().Hour()
	switch {
	case hour >= 5 && hour <= 6:
		return TimeEarlyMorning
	case hour >= 7 && hour <= 10:
		return TimeMorning
	case hour >= 11 && hour <= 13:
		return TimeMidday
	case hour >= 14 && hour <= 17:
		return TimeAfternoon
	case hour >= 18 && hour <= 20:
		return TimeEvening
	default:
		return TimeNight
	}
}

// generateSummary composes the deterministic natural-language description:
// activity type plus weather/location color, effort and zone descriptors,
// personal-record count, distance, and the top insight's message.
func generateSummary(activity providers.Activity, insights []Insight, performance PerformanceMetrics, contextual ContextualFactors) string {
	activityType := activity.SportType.DisplayName()

	weatherPhrase := ""
	if contextual.Weather != nil {
		weatherPhrase = weatherSummaryPhrase(*contextual.Weather)
	}

	locationPhrase := ""
	if contextual.Location != nil {
		locationPhrase = locationSummaryPhrase(*contextual.Location)
	}

	effortDesc := "moderate effort"
	if performance.RelativeEffort != nil {
		effortDesc = effortDescriptor(*performance.RelativeEffort)
	}

	zoneDesc := "training zones"
	if performance.ZoneDistribution != nil {
		zoneDesc = zoneDescriptor(*performance.ZoneDistribution)
	}

	prContext := ""
	switch len(performance.PersonalRecords) {
	case 0:
	case 1:
		prContext = " with 1 new personal record"
	default:
		prContext = " with " + strconv.Itoa(len(performance.PersonalRecords)) + " new personal records"
	}

	var b strings.Builder
	b.WriteString(titleCase(activityType))
	b.WriteString(weatherPhrase)
	b.WriteString(locationPhrase)
	b.WriteString(prContext)
	b.WriteString(" and ")
	b.WriteString(effortDesc)
	b.WriteString(" in ")
	b.WriteString(zoneDesc)

	if activity.DistanceMeters != nil {
		distanceKM := *activity.DistanceMeters / 1000.0
		b.WriteString(". During this ")
		b.WriteString(fmt.Sprintf("%.1f", distanceKM))
		b.WriteString(" km session")
	}

	if len(insights) > 0 {
		b.WriteString(", ")
		b.WriteString(strings.ToLower(insights[0].Message))
	}

	return b.String()
}

func weatherSummaryPhrase(w WeatherConditions) string {
	conditions := strings.ToLower(w.Conditions)
	switch {
	case containsAnySubstring(conditions, "rain", "shower", "storm", "thunderstorm"):
		return " in the rain"
	case strings.Contains(conditions, "snow"):
		return " in the snow"
	case strings.Contains(conditions, "wind") && w.WindSpeedKMH != nil && *w.WindSpeedKMH > 15.0:
		return " in windy conditions"
	case strings.Contains(conditions, "hot") || w.TemperatureCelsius > 28.0:
		return " in hot weather"
	case strings.Contains(conditions, "cold") || w.TemperatureCelsius < 5.0:
		return " in cold weather"
	default:
		return ""
	}
}

func locationSummaryPhrase(loc LocationContext) string {
	switch {
	case loc.TrailName != nil:
		return " on " + *loc.TrailName
	case loc.City != nil && loc.Region != nil:
		return " in " + *loc.City + ", " + *loc.Region
	case loc.City != nil:
		return " in " + *loc.City
	default:
		return ""
	}
}

func effortDescriptor(relativeEffort float64) string {
	switch {
	case relativeEffort < 3.0:
		return "light intensity"
	case relativeEffort < 5.0:
		return "moderate intensity"
	case relativeEffort < 7.0:
		return "hard intensity"
	default:
		return "very high intensity"
	}
}

func zoneDescriptor(z ZoneDistribution) string {
	switch {
	case z.Zone2Endurance > 50.0:
		return "endurance zones"
	case z.Zone4Threshold > 30.0:
		return "threshold zones"
	case z.Zone3Tempo > 30.0:
		return "tempo zones"
	default:
		return "mixed training zones"
	}
}

func containsAnySubstring(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
