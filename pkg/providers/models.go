// Package providers defines the Provider Adapter Contract and the Strava and
// Fitbit adapters that implement it.
package providers

import "time"

// SportType is a tagged sport/activity-type variant. Unknown provider values
// fall into Other rather than being dropped, per the gateway's open-enum
// policy for third-party vocabularies.
type SportType struct {
	Kind  string // one of the known constants below, or "other"
	Other string // populated only when Kind == "other"
}

// Known SportType kinds.
const (
	SportRun                = "run"
	SportRide                = "ride"
	SportSwim                = "swim"
	SportWalk                = "walk"
	SportHike                = "hike"
	SportVirtualRide         = "virtual_ride"
	SportVirtualRun          = "virtual_run"
	SportWorkout             = "workout"
	SportYoga                = "yoga"
	SportEbikeRide           = "ebike_ride"
	SportMountainBike        = "mountain_bike"
	SportGravelRide          = "gravel_ride"
	SportCrossCountrySkiing  = "cross_country_skiing"
	SportAlpineSkiing        = "alpine_skiing"
	SportSnowboarding        = "snowboarding"
	SportSnowshoe            = "snowshoe"
	SportIceSkating          = "ice_skating"
	SportBackcountrySkiing   = "backcountry_skiing"
	SportKayaking            = "kayaking"
	SportCanoeing            = "canoeing"
	SportRowing              = "rowing"
	SportPaddleboarding      = "paddleboarding"
	SportSurfing             = "surfing"
	SportKitesurfing         = "kitesurfing"
	SportStrengthTraining    = "strength_training"
	SportCrossfit            = "crossfit"
	SportPilates             = "pilates"
	SportRockClimbing        = "rock_climbing"
	SportTrailRunning        = "trail_running"
	SportSoccer              = "soccer"
	SportBasketball          = "basketball"
	SportTennis              = "tennis"
	SportGolf                = "golf"
	SportSkateboarding       = "skateboarding"
	SportInlineSkating       = "inline_skating"
	SportOther               = "other"
)

// stravaSportMapping maps Strava's activity-type strings to a SportType kind.
var stravaSportMapping = map[string]string{
	"Run":                SportRun,
	"Ride":                SportRide,
	"Swim":                SportSwim,
	"Walk":                SportWalk,
	"Hike":                SportHike,
	"VirtualRide":         SportVirtualRide,
	"VirtualRun":          SportVirtualRun,
	"Workout":             SportWorkout,
	"Yoga":                SportYoga,
	"EBikeRide":           SportEbikeRide,
	"MountainBikeRide":    SportMountainBike,
	"GravelRide":          SportGravelRide,
	"CrossCountrySkiing":  SportCrossCountrySkiing,
	"AlpineSkiing":        SportAlpineSkiing,
	"Snowboarding":        SportSnowboarding,
	"Snowshoe":            SportSnowshoe,
	"IceSkate":            SportIceSkating,
	"BackcountrySki":      SportBackcountrySkiing,
	"Kayaking":            SportKayaking,
	"Canoeing":            SportCanoeing,
	"Rowing":              SportRowing,
	"StandUpPaddling":     SportPaddleboarding,
	"Surfing":             SportSurfing,
	"Kitesurf":            SportKitesurfing,
	"WeightTraining":      SportStrengthTraining,
	"Crossfit":            SportCrossfit,
	"Pilates":             SportPilates,
	"RockClimbing":        SportRockClimbing,
	"TrailRunning":        SportTrailRunning,
	"Soccer":              SportSoccer,
	"Basketball":          SportBasketball,
	"Tennis":              SportTennis,
	"Golf":                SportGolf,
	"Skateboard":          SportSkateboarding,
	"InlineSkate":         SportInlineSkating,
}

// fitbitSportMapping maps Fitbit's activityTypeId-derived name strings (lowercased)
// to a SportType kind. Fitbit's activity taxonomy is coarser than Strava's.
var fitbitSportMapping = map[string]string{
	"run":          SportRun,
	"running":      SportRun,
	"bike":         SportRide,
	"biking":       SportRide,
	"swim":         SportSwim,
	"swimming":     SportSwim,
	"walk":         SportWalk,
	"walking":      SportWalk,
	"hike":         SportHike,
	"hiking":       SportHike,
	"treadmill":    SportVirtualRun,
	"workout":      SportWorkout,
	"yoga":         SportYoga,
	"weights":      SportStrengthTraining,
	"crossfit":     SportCrossfit,
	"pilates":      SportPilates,
	"golf":         SportGolf,
	"tennis":       SportTennis,
	"soccer":       SportSoccer,
	"basketball":   SportBasketball,
}

// SportTypeFromStrava maps a raw Strava activity-type string to a SportType.
func SportTypeFromStrava(raw string) SportType {
	return fromTable(stravaSportMapping, raw)
}

// SportTypeFromFitbit maps a raw Fitbit activity-name string to a SportType.
func SportTypeFromFitbit(raw string) SportType {
	return fromTable(fitbitSportMapping, raw)
}

func fromTable(table map[string]string, raw string) SportType {
	if kind, ok := table[raw]; ok {
		return SportType{Kind: kind}
	}
	return SportType{Kind: SportOther, Other: raw}
}

// DisplayName returns a human-readable label for the sport.
func (s SportType) DisplayName() string {
	switch s.Kind {
	case SportRun:
		return "run"
	case SportRide:
		return "bike ride"
	case SportSwim:
		return "swim"
	case SportWalk:
		return "walk"
	case SportHike:
		return "hike"
	case SportVirtualRide:
		return "indoor bike ride"
	case SportVirtualRun:
		return "treadmill run"
	case SportTrailRunning:
		return "trail run"
	case SportWorkout:
		return "workout"
	default:
		return "activity"
	}
}

// Activity is the provider-agnostic representation of a single fitness
// activity. Numeric fields are nil-able pointers when the provider may omit
// them; all distances/speeds are normalized to SI units.
type Activity struct {
	ID                string
	Name              string
	SportType         SportType
	StartTime         time.Time
	DurationSeconds   uint64
	DistanceMeters    *float64
	ElevationGainM    *float64
	AverageHeartRate  *uint32
	MaxHeartRate      *uint32
	AverageSpeedMS    *float64
	MaxSpeedMS        *float64
	Calories          *uint32
	StartLatitude     *float64
	StartLongitude    *float64
	City              *string
	Region            *string
	Country           *string
	TrailName         *string
	Provider          string
}

// Athlete is the provider-agnostic athlete profile.
type Athlete struct {
	ID             string
	Username       string
	FirstName      *string
	LastName       *string
	ProfilePicture *string
	Provider       string
}

// Stats is the provider-agnostic aggregate summary.
type Stats struct {
	TotalActivities     uint64
	TotalDistanceM      float64
	TotalDurationSec    uint64
	TotalElevationGainM float64
	PersonalRecords     []PersonalRecord
}

// PRMetric names the kind of personal-record metric.
type PRMetric string

const (
	PRMetricFastestPace      PRMetric = "fastest_pace"
	PRMetricLongestDistance  PRMetric = "longest_distance"
	PRMetricHighestElevation PRMetric = "highest_elevation"
	PRMetricFastestTime      PRMetric = "fastest_time"
)

// PersonalRecord is a single best-ever value for a named metric.
type PersonalRecord struct {
	ActivityID string
	Metric     PRMetric
	Value      float64
	Date       time.Time
}

// personalRecordsFromActivities scans a page of activities and returns the
// best-ever value seen for each tracked metric. Adapters call this from
// GetStats over whatever activity page they already fetched; it does not
// paginate further itself.
func personalRecordsFromActivities(activities []Activity) []PersonalRecord {
	var fastestPace, longestDistance, highestElevation, fastestTime *PersonalRecord

	for _, act := range activities {
		if act.DistanceMeters != nil {
			if longestDistance == nil || *act.DistanceMeters > longestDistance.Value {
				longestDistance = &PersonalRecord{
					ActivityID: act.ID, Metric: PRMetricLongestDistance,
					Value: *act.DistanceMeters, Date: act.StartTime,
				}
			}
		}

		if act.ElevationGainM != nil {
			if highestElevation == nil || *act.ElevationGainM > highestElevation.Value {
				highestElevation = &PersonalRecord{
					ActivityID: act.ID, Metric: PRMetricHighestElevation,
					Value: *act.ElevationGainM, Date: act.StartTime,
				}
			}
		}

		if act.AverageSpeedMS != nil && *act.AverageSpeedMS > 0 {
			paceSecPerKM := 1000.0 / *act.AverageSpeedMS
			if fastestPace == nil || paceSecPerKM < fastestPace.Value {
				fastestPace = &PersonalRecord{
					ActivityID: act.ID, Metric: PRMetricFastestPace,
					Value: paceSecPerKM, Date: act.StartTime,
				}
			}
		}

		if act.DurationSeconds > 0 {
			duration := float64(act.DurationSeconds)
			if fastestTime == nil || duration < fastestTime.Value {
				fastestTime = &PersonalRecord{
					ActivityID: act.ID, Metric: PRMetricFastestTime,
					Value: duration, Date: act.StartTime,
				}
			}
		}
	}

	var records []PersonalRecord
	for _, pr := range []*PersonalRecord{longestDistance, fastestPace, highestElevation, fastestTime} {
		if pr != nil {
			records = append(records, *pr)
		}
	}
	return records
}
