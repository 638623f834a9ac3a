package service

import (
	"context"
	"iter"
	"math"
	"time"

	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultStatsPeriodDays is the trailing window of GetStats
	DefaultStatsPeriodDays = 7
	// DefaultDistributionDays is the window of GetDistribution
	DefaultDistributionDays = 30
	// TrendStableThreshold is the percent change below which a trend is stable
	TrendStableThreshold = 5.0
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

type statsService struct {
	ledger LedgerService
}

// NewStatsService creates a new statistics service
func NewStatsService(ledger LedgerService) StatsService {
	return &statsService{ledger: ledger}
}

func (s *statsService) today(ctx context.Context) (daykey.Key, error) {
	if _, err := s.ledger.RolloverCheck(ctx); err != nil {
		logger.Ctx(ctx).Warn("rollover check failed", logger.Err(err))
	}
	return s.ledger.CurrentDayKey(ctx)
}

// GetStats recomputes every figure from the ledger on each call
func (s *statsService) GetStats(ctx context.Context, periodDays int) (*models.Stats, error) {
	if periodDays <= 0 {
		periodDays = DefaultStatsPeriodDays
	}
	if periodDays > MaxHistoryDays {
		periodDays = MaxHistoryDays
	}

	today, err := s.today(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.ledger.History(ctx, "", today)
	if err != nil {
		return nil, err
	}

	return &models.Stats{
		CurrentStreak:    CurrentStreak(records, today),
		LongestStreak:    LongestStreak(records),
		CompletionRate:   CompletionRate(records),
		Average:          TrailingAverage(records, today, periodDays),
		PeriodDays:       periodDays,
		TotalDaysTracked: len(records),
	}, nil
}

// CurrentStreak counts consecutive goal-met days ending yesterday, or today
// when today's goal is already met. An in-progress today never breaks it.
func CurrentStreak(records []models.DailyHistoryRecord, today daykey.Key) int {
	byDay := make(map[daykey.Key]models.DailyHistoryRecord, len(records))
	for _, r := range records {
		byDay[r.Date] = r
	}

	day := today
	if r, ok := byDay[today]; !ok || !r.GoalMet() {
		day = today.Prev()
	}

	streak := 0
	for {
		r, ok := byDay[day]
		if !ok || !r.GoalMet() {
			return streak
		}
		streak++
		day = day.Prev()
	}
}

// LongestStreak is the longest run of consecutive goal-met days. records
// must be ordered by date.
func LongestStreak(records []models.DailyHistoryRecord) int {
	longest, run := 0, 0
	var prev daykey.Key
	for _, r := range records {
		switch {
		case !r.GoalMet():
			run = 0
		case run > 0 && prev.Next() == r.Date:
			run++
		default:
			run = 1
		}
		prev = r.Date
		longest = max(longest, run)
	}
	return longest
}

// CompletionRate is the rounded share of recorded days that met their goal
func CompletionRate(records []models.DailyHistoryRecord) int {
	if len(records) == 0 {
		return 0
	}
	met := 0
	for _, r := range records {
		if r.GoalMet() {
			met++
		}
	}
	return int(math.Round(float64(met) / float64(len(records)) * 100))
}

// TrailingAverage is the mean intake of recorded days among the n days
// ending today. Days without a record are left out rather than counted
// as zero.
func TrailingAverage(records []models.DailyHistoryRecord, today daykey.Key, n int) int {
	if n <= 0 {
		return 0
	}
	from := today.AddDays(-(n - 1))
	total, count := 0, 0
	for _, r := range records {
		if r.Date.Before(from) || r.Date.After(today) {
			continue
		}
		total += r.Intake
		count++
	}
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(count)))
}

// GetWeeklyStats summarizes the Monday-started week weekOffset weeks back
func (s *statsService) GetWeeklyStats(ctx context.Context, weekOffset int) (*models.PeriodStats, error) {
	today, err := s.today(ctx)
	if err != nil {
		return nil, err
	}
	start, end := WeekBounds(today.AddDays(-7 * weekOffset))
	prevStart, prevEnd := WeekBounds(start.Prev())
	return s.periodStats(ctx, start, end, prevStart, prevEnd)
}

// GetMonthlyStats summarizes the calendar month monthOffset months back
func (s *statsService) GetMonthlyStats(ctx context.Context, monthOffset int) (*models.PeriodStats, error) {
	today, err := s.today(ctx)
	if err != nil {
		return nil, err
	}
	start, end := MonthBounds(today, monthOffset)
	prevStart, prevEnd := MonthBounds(today, monthOffset+1)
	return s.periodStats(ctx, start, end, prevStart, prevEnd)
}

func (s *statsService) periodStats(ctx context.Context, start, end, prevStart, prevEnd daykey.Key) (*models.PeriodStats, error) {
	records, err := s.ledger.History(ctx, prevStart, end)
	if err != nil {
		return nil, err
	}

	var current, previous []models.DailyHistoryRecord
	for _, r := range records {
		switch {
		case !r.Date.Before(start) && !r.Date.After(end):
			current = append(current, r)
		case !r.Date.Before(prevStart) && !r.Date.After(prevEnd):
			previous = append(previous, r)
		}
	}

	stats := SummarizePeriod(start, end, current)
	prev := SummarizePeriod(prevStart, prevEnd, previous)
	stats.Trend, stats.TrendPercentage = CalculateTrend(float64(stats.DailyAverage), float64(prev.DailyAverage))
	return stats, nil
}

// WeekBounds returns the Monday and Sunday of day's week
func WeekBounds(day daykey.Key) (daykey.Key, daykey.Key) {
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDays(-offset)
	return start, start.AddDays(6)
}

// MonthBounds returns the first and last day of the month offset months
// before day's month
func MonthBounds(day daykey.Key, offset int) (daykey.Key, daykey.Key) {
	d := day.Date()
	first := time.Date(d.Year(), d.Month()-time.Month(offset), 1, 12, 0, 0, 0, time.UTC)
	start := daykey.FromDate(first.Year(), first.Month(), 1)
	end := daykey.FromDate(first.Year(), first.Month()+1, 0)
	return start, end
}

// SummarizePeriod folds the records of [start, end]. A day is tracked when
// it has positive intake. Days lists every day of the period.
func SummarizePeriod(start, end daykey.Key, records []models.DailyHistoryRecord) *models.PeriodStats {
	byDay := make(map[daykey.Key]models.DailyHistoryRecord, len(records))
	for _, r := range records {
		byDay[r.Date] = r
	}

	stats := &models.PeriodStats{StartDate: start, EndDate: end, Trend: models.TrendStable}
	for _, day := range daykey.Range(start, end) {
		r, ok := byDay[day]
		if !ok {
			r = models.DailyHistoryRecord{Date: day}
		}
		stats.Days = append(stats.Days, r)

		if r.Intake <= 0 {
			continue
		}
		stats.TotalIntake += r.Intake
		stats.DaysTracked++
		if r.GoalMet() {
			stats.DaysGoalMet++
		}
		if stats.BestDay == nil || r.Intake > stats.BestDay.Intake {
			stats.BestDay = &models.DayIntake{Date: day, Intake: r.Intake}
		}
		if stats.WorstDay == nil || r.Intake < stats.WorstDay.Intake {
			stats.WorstDay = &models.DayIntake{Date: day, Intake: r.Intake}
		}
	}

	if stats.DaysTracked > 0 {
		stats.DailyAverage = int(math.Round(float64(stats.TotalIntake) / float64(stats.DaysTracked)))
		stats.GoalCompletionRate = int(math.Round(float64(stats.DaysGoalMet) / float64(stats.DaysTracked) * 100))
	}
	return stats
}

// CalculateTrend compares current with previous. The percentage is signed
// while stable and absolute otherwise.
func CalculateTrend(current, previous float64) (models.Trend, int) {
	if previous == 0 {
		return models.TrendStable, 0
	}
	diff := (current - previous) / previous * 100
	if math.Abs(diff) < TrendStableThreshold {
		return models.TrendStable, int(math.Round(diff))
	}
	if diff > 0 {
		return models.TrendUp, int(math.Round(diff))
	}
	return models.TrendDown, int(math.Round(-diff))
}

// GetDistribution breaks down the last days by hour of intake and weekday
func (s *statsService) GetDistribution(ctx context.Context, days int) (*models.Distribution, error) {
	if days <= 0 {
		days = DefaultDistributionDays
	}
	if days > MaxHistoryDays {
		days = MaxHistoryDays
	}

	today, err := s.today(ctx)
	if err != nil {
		return nil, err
	}
	from := today.AddDays(-(days - 1))

	dist := &models.Distribution{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hourly, err := HourlyBreakdown(s.ledger.Events(gctx, from, today))
		dist.Hourly = hourly
		return err
	})
	g.Go(func() error {
		records, err := s.ledger.History(gctx, from, today)
		dist.DayOfWeek = DayOfWeekBreakdown(records)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dist, nil
}

// HourlyBreakdown totals intake additions per hour of the recorded wall
// clock. All 24 hours are returned.
func HourlyBreakdown(events iter.Seq2[models.IntakeEvent, error]) ([]models.HourlyDistribution, error) {
	hours := make([]models.HourlyDistribution, 24)
	for h := range hours {
		hours[h].Hour = h
	}

	for event, err := range events {
		if err != nil {
			return nil, err
		}
		if event.Kind != models.EventKindAdd || event.AmountMilliliters <= 0 {
			continue
		}
		h := &hours[event.OccurredAt.Hour()]
		h.TotalIntake += event.AmountMilliliters
		h.EntryCount++
	}

	for h := range hours {
		if hours[h].EntryCount > 0 {
			hours[h].AveragePerEntry = int(math.Round(float64(hours[h].TotalIntake) / float64(hours[h].EntryCount)))
		}
	}
	return hours, nil
}

// DayOfWeekBreakdown aggregates days with positive intake by weekday,
// Sunday first
func DayOfWeekBreakdown(records []models.DailyHistoryRecord) []models.DayOfWeekStats {
	stats := make([]models.DayOfWeekStats, 7)
	for i := range stats {
		stats[i].Weekday = time.Weekday(i)
		stats[i].DayName = dayNames[i]
	}

	for _, r := range records {
		if r.Intake <= 0 {
			continue
		}
		d := &stats[r.Date.Weekday()]
		d.TotalIntake += r.Intake
		d.DaysCount++
		if r.GoalMet() {
			d.GoalMetCount++
		}
	}

	for i := range stats {
		if stats[i].DaysCount > 0 {
			stats[i].AverageIntake = int(math.Round(float64(stats[i].TotalIntake) / float64(stats[i].DaysCount)))
		}
	}
	return stats
}
