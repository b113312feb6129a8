package intelligence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitsync/gateway/pkg/providers"
)

func testActivity() providers.Activity {
	distance := 10000.0
	elevation := 100.0
	avgSpeed := 3.33
	maxSpeed := 5.0
	avgHR := uint32(155)
	maxHR := uint32(180)

	return providers.Activity{
		ID:               "test123",
		Name:             "Morning Run",
		SportType:        providers.SportType{Kind: providers.SportRun},
		StartTime:        time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		DurationSeconds:  3000,
		DistanceMeters:   &distance,
		ElevationGainM:   &elevation,
		AverageSpeedMS:   &avgSpeed,
		MaxSpeedMS:       &maxSpeed,
		AverageHeartRate: &avgHR,
		MaxHeartRate:     &maxHR,
		Provider:         "test",
	}
}

func TestRelativeEffortWithinBounds(t *testing.T) {
	effort := relativeEffort(testActivity())
	require.InDelta(t, 6.79, effort, 0.01)
}

func TestZoneDistributionSumsTo100(t *testing.T) {
	zones := zoneDistribution(testActivity())
	require.NotNil(t, zones)
	total := zones.Zone1Recovery + zones.Zone2Endurance + zones.Zone3Tempo + zones.Zone4Threshold + zones.Zone5VO2Max
	require.InDelta(t, 100.0, total, 0.01)
}

func TestZoneDistributionNilWithoutHeartRate(t *testing.T) {
	activity := testActivity()
	activity.AverageHeartRate = nil
	require.Nil(t, zoneDistribution(activity))
}

func TestDetectPersonalRecordDistance(t *testing.T) {
	activity := testActivity()
	distance := 25000.0
	activity.DistanceMeters = &distance

	records := personalRecords(activity, nil)
	require.NotEmpty(t, records)
	require.Equal(t, "Longest Distance", records[0].RecordType)
	require.InDelta(t, 25.0, records[0].Value, 0.001)
}

func TestDetectPersonalRecordNoneBelowThreshold(t *testing.T) {
	records := personalRecords(testActivity(), nil)
	require.Empty(t, records)
}

func TestEfficiencyScoreWithinBounds(t *testing.T) {
	score := efficiencyScore(testActivity())
	require.GreaterOrEqual(t, score, 0.0)
	require.LessOrEqual(t, score, 100.0)
}

func TestTimeOfDayBucketing(t *testing.T) {
	cases := []struct {
		hour int
		want TimeOfDay
	}{
		{6, TimeEarlyMorning},
		{9, TimeMorning},
		{12, TimeMidday},
		{15, TimeAfternoon},
		{19, TimeEvening},
		{23, TimeNight},
	}
	for _, c := range cases {
		start := time.Date(2026, 6, 1, c.hour, 0, 0, 0, time.Local)
		require.Equal(t, c.want, timeOfDay(start))
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	activity := testActivity()
	r1 := Analyze(activity, nil)
	r2 := Analyze(activity, nil)

	require.Equal(t, r1.Summary, r2.Summary)
	require.Equal(t, r1.PerformanceIndicators.RelativeEffort, r2.PerformanceIndicators.RelativeEffort)
	require.Equal(t, r1.PerformanceIndicators.ZoneDistribution, r2.PerformanceIndicators.ZoneDistribution)
}

func TestAnalyzeProducesNonEmptySummary(t *testing.T) {
	result := Analyze(testActivity(), nil)
	require.NotEmpty(t, result.Summary)
	require.NotNil(t, result.PerformanceIndicators.RelativeEffort)
}

func TestAnalyzeWithWeatherAndLocation(t *testing.T) {
	trail := "Mount Royal Trail"
	ctx := &Context{
		Weather:  &WeatherConditions{TemperatureCelsius: 2.0, Conditions: "light rain"},
		Location: &LocationContext{TrailName: &trail},
	}
	result := Analyze(testActivity(), ctx)
	require.Contains(t, result.Summary, "rain")
	require.Contains(t, result.Summary, trail)
}

func TestTrendIndicatorsDefaultStableWithoutBaseline(t *testing.T) {
	trends := trendIndicators(testActivity(), nil)
	require.Equal(t, TrendStable, trends.PaceTrend)
	require.Equal(t, TrendStable, trends.EffortTrend)
	require.Equal(t, TrendStable, trends.DistanceTrend)
}

func TestTrendIndicatorsImprovingWithBaseline(t *testing.T) {
	smallDistance := 3000.0
	baseline := &Baseline{
		RecentActivities: []RecentActivity{
			{DistanceMeters: &smallDistance, DurationSeconds: 1200},
			{DistanceMeters: &smallDistance, DurationSeconds: 1200},
			{DistanceMeters: &smallDistance, DurationSeconds: 1200},
		},
	}
	trends := trendIndicators(testActivity(), &Context{Baseline: baseline})
	require.Equal(t, TrendImproving, trends.DistanceTrend)
}

func TestContextualFactorsComputesDaysSinceAndWeeklyLoad(t *testing.T) {
	activity := testActivity()

	twoDaysBefore := 5000.0
	tenDaysBefore := 4000.0
	baseline := &Baseline{
		RecentActivities: []RecentActivity{
			{DistanceMeters: &twoDaysBefore, DurationSeconds: 1800, StartTime: activity.StartTime.AddDate(0, 0, -2)},
			{DistanceMeters: &tenDaysBefore, DurationSeconds: 1500, StartTime: activity.StartTime.AddDate(0, 0, -10)},
		},
	}

	result := Analyze(activity, &Context{Baseline: baseline})

	require.NotNil(t, result.ContextualFactors.DaysSinceLastActivity)
	require.Equal(t, 2, *result.ContextualFactors.DaysSinceLastActivity)

	require.NotNil(t, result.ContextualFactors.WeeklyLoad)
	require.Equal(t, 1, result.ContextualFactors.WeeklyLoad.ActivityCount)
	require.InDelta(t, 5.0, result.ContextualFactors.WeeklyLoad.TotalDistanceKM, 0.001)
}

func TestContextualFactorsOmitsLoadWithoutBaseline(t *testing.T) {
	result := Analyze(testActivity(), nil)
	require.Nil(t, result.ContextualFactors.DaysSinceLastActivity)
	require.Nil(t, result.ContextualFactors.WeeklyLoad)
}

func TestGenerateInsightsRespectsMaxCount(t *testing.T) {
	activity := testActivity()
	distance := 25000.0
	activity.DistanceMeters = &distance
	speed := 4.0
	activity.AverageSpeedMS = &speed

	ctx := &Context{
		Weather:  &WeatherConditions{TemperatureCelsius: 2.0, Conditions: "rain"},
		Baseline: &Baseline{RecentActivities: []RecentActivity{{}, {}, {}}},
	}
	insights := generateInsights(activity, ctx)
	require.LessOrEqual(t, len(insights), defaultInsightConfig.maxInsights)
	for i := 1; i < len(insights); i++ {
		require.GreaterOrEqual(t, insights[i-1].Confidence, insights[i].Confidence)
	}
}
