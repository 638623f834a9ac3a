package models

import (
	"time"

	"github.com/kyawhla/hydromate/internal/daykey"
)

// Direction represents the direction of a correlation
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
)

// Metric names a self-reported wellbeing metric
type Metric string

const (
	MetricMood   Metric = "mood"
	MetricEnergy Metric = "energy"
	MetricSkin   Metric = "skin"
)

// Metrics lists every wellbeing metric in reporting order
var Metrics = []Metric{MetricMood, MetricEnergy, MetricSkin}

// Trend represents a period-over-period movement
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// HealthTrend represents the movement of a wellbeing metric
type HealthTrend string

const (
	HealthTrendImproving HealthTrend = "improving"
	HealthTrendDeclining HealthTrend = "declining"
	HealthTrendStable    HealthTrend = "stable"
)

// Stats is the summary returned by GET /api/v1/stats
type Stats struct {
	CurrentStreak    int `json:"current_streak"`
	LongestStreak    int `json:"longest_streak"`
	CompletionRate   int `json:"completion_rate"`
	Average          int `json:"average"`
	PeriodDays       int `json:"period_days"`
	TotalDaysTracked int `json:"total_days_tracked"`
}

// DayIntake pairs a day with its intake
type DayIntake struct {
	Date   daykey.Key `json:"date"`
	Intake int        `json:"intake"`
}

// PeriodStats summarizes a week or a month of history
type PeriodStats struct {
	StartDate          daykey.Key           `json:"start_date"`
	EndDate            daykey.Key           `json:"end_date"`
	TotalIntake        int                  `json:"total_intake"`
	DailyAverage       int                  `json:"daily_average"`
	DaysTracked        int                  `json:"days_tracked"`
	DaysGoalMet        int                  `json:"days_goal_met"`
	GoalCompletionRate int                  `json:"goal_completion_rate"`
	BestDay            *DayIntake           `json:"best_day,omitempty"`
	WorstDay           *DayIntake           `json:"worst_day,omitempty"`
	Trend              Trend                `json:"trend"`
	TrendPercentage    int                  `json:"trend_percentage"`
	Days               []DailyHistoryRecord `json:"days"`
}

// HourlyDistribution aggregates intake by hour of day
type HourlyDistribution struct {
	Hour            int `json:"hour"`
	TotalIntake     int `json:"total_intake"`
	EntryCount      int `json:"entry_count"`
	AveragePerEntry int `json:"average_per_entry"`
}

// DayOfWeekStats aggregates history by weekday
type DayOfWeekStats struct {
	Weekday       time.Weekday `json:"weekday"`
	DayName       string       `json:"day_name"`
	TotalIntake   int          `json:"total_intake"`
	AverageIntake int          `json:"average_intake"`
	DaysCount     int          `json:"days_count"`
	GoalMetCount  int          `json:"goal_met_count"`
}

// Distribution bundles the hourly and weekday breakdowns
type Distribution struct {
	Hourly    []HourlyDistribution `json:"hourly"`
	DayOfWeek []DayOfWeekStats     `json:"day_of_week"`
}

// CorrelationInsight reports an association between hydration and a metric
type CorrelationInsight struct {
	Metric      Metric    `json:"metric"`
	Direction   Direction `json:"direction"`
	Strength    float64   `json:"strength"`
	Coefficient float64   `json:"coefficient"`
	PValue      float64   `json:"p_value"`
	SampleSize  int       `json:"sample_size"`
}

// HealthLog is the user's self-reported wellbeing for one day
type HealthLog struct {
	Date                   daykey.Key `json:"date"`
	WaterIntakeMilliliters int        `json:"water_intake_ml"`
	WaterIntakePercent     float64    `json:"water_intake_percent"`
	Mood                   int        `json:"mood"`
	Energy                 int        `json:"energy"`
	Skin                   int        `json:"skin"`
	Notes                  *string    `json:"notes,omitempty"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Value returns the log's level for metric
func (l HealthLog) Value(metric Metric) int {
	switch metric {
	case MetricMood:
		return l.Mood
	case MetricEnergy:
		return l.Energy
	case MetricSkin:
		return l.Skin
	default:
		return 0
	}
}

// LogHealthRequest is the body of POST /api/v1/health-logs
type LogHealthRequest struct {
	Date   string         `json:"date"`
	Mood   int            `json:"mood" binding:"required"`
	Energy int            `json:"energy" binding:"required"`
	Skin   int            `json:"skin" binding:"required"`
	Notes  NullableString `json:"notes"`
}

// HealthAverages are mean levels over recent logs
type HealthAverages struct {
	Days      int     `json:"days"`
	LogCount  int     `json:"log_count"`
	AvgMood   float64 `json:"avg_mood"`
	AvgEnergy float64 `json:"avg_energy"`
	AvgSkin   float64 `json:"avg_skin"`
	AvgWater  float64 `json:"avg_water_ml"`
}
