package service

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/models"
)

// history builds consecutive records ending on last from intakes against a
// 2000 ml goal
func history(last daykey.Key, intakes ...int) []models.DailyHistoryRecord {
	start := last.AddDays(-(len(intakes) - 1))
	records := make([]models.DailyHistoryRecord, len(intakes))
	for i, intake := range intakes {
		records[i] = models.DailyHistoryRecord{Date: start.AddDays(i), Intake: intake, Goal: 2000}
	}
	return records
}

func TestCurrentStreak(t *testing.T) {
	today := daykey.Key("2024-03-10")
	tests := []struct {
		name    string
		records []models.DailyHistoryRecord
		want    int
	}{
		{"empty", nil, 0},
		{"three met days ending today", history(today, 2000, 2100, 2500), 3},
		{"missed day breaks the run", history(today, 2000, 500, 2000, 2000), 2},
		{"today in progress keeps the streak", history(today, 2000, 2000, 800), 2},
		{"nothing yet today", history(today.Prev(), 2000, 2000), 2},
		{"gap breaks the run", append(history("2024-03-06", 2000), history(today.Prev(), 2000)...), 1},
		{"yesterday missed", history(today, 2000, 100, 300), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentStreak(tt.records, today); got != tt.want {
				t.Errorf("CurrentStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLongestStreak(t *testing.T) {
	tests := []struct {
		name    string
		records []models.DailyHistoryRecord
		want    int
	}{
		{"empty", nil, 0},
		{"all met", history("2024-03-10", 2000, 2000, 2000), 3},
		{"longest in the middle", history("2024-03-10", 2000, 0, 2000, 2000, 2000, 10, 2000), 3},
		{"gap splits runs", append(history("2024-03-02", 2000, 2000), history("2024-03-10", 2000)...), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LongestStreak(tt.records); got != tt.want {
				t.Errorf("LongestStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompletionRateAndAverage(t *testing.T) {
	today := daykey.Key("2024-03-10")
	records := history(today, 2000, 1000, 2000)

	if got := CompletionRate(records); got != 67 {
		t.Errorf("CompletionRate() = %d, want 67", got)
	}
	if got := CompletionRate(nil); got != 0 {
		t.Errorf("CompletionRate(nil) = %d, want 0", got)
	}
	if got := TrailingAverage(records, today, 2); got != 1500 {
		t.Errorf("TrailingAverage(2) = %d, want 1500", got)
	}
	if got := TrailingAverage(records, today, 30); got != 1667 {
		t.Errorf("TrailingAverage(30) = %d, want 1667", got)
	}
}

func TestCalculateTrend(t *testing.T) {
	tests := []struct {
		current, previous float64
		wantTrend         models.Trend
		wantPct           int
	}{
		{1000, 0, models.TrendStable, 0},
		{1030, 1000, models.TrendStable, 3},
		{970, 1000, models.TrendStable, -3},
		{1100, 1000, models.TrendUp, 10},
		{750, 1000, models.TrendDown, 25},
	}
	for _, tt := range tests {
		trend, pct := CalculateTrend(tt.current, tt.previous)
		if trend != tt.wantTrend || pct != tt.wantPct {
			t.Errorf("CalculateTrend(%v, %v) = %s %d, want %s %d",
				tt.current, tt.previous, trend, pct, tt.wantTrend, tt.wantPct)
		}
	}
}

func TestPeriodBounds(t *testing.T) {
	// 2024-03-06 is a Wednesday
	start, end := WeekBounds("2024-03-06")
	if start != "2024-03-04" || end != "2024-03-10" {
		t.Errorf("WeekBounds() = %s..%s, want 2024-03-04..2024-03-10", start, end)
	}
	start, end = WeekBounds("2024-03-10")
	if start != "2024-03-04" {
		t.Errorf("WeekBounds(Sunday) start = %s, want 2024-03-04", start)
	}

	start, end = MonthBounds("2024-03-15", 1)
	if start != "2024-02-01" || end != "2024-02-29" {
		t.Errorf("MonthBounds(-1) = %s..%s, want 2024-02-01..2024-02-29", start, end)
	}
	start, end = MonthBounds("2024-01-31", 1)
	if start != "2023-12-01" || end != "2023-12-31" {
		t.Errorf("MonthBounds across year = %s..%s", start, end)
	}
}

func TestSummarizePeriod(t *testing.T) {
	records := []models.DailyHistoryRecord{
		{Date: "2024-03-04", Intake: 2500, Goal: 2000},
		{Date: "2024-03-05", Intake: 1000, Goal: 2000},
		{Date: "2024-03-07", Intake: 0, Goal: 2000},
	}
	stats := SummarizePeriod("2024-03-04", "2024-03-10", records)

	if len(stats.Days) != 7 {
		t.Errorf("days = %d, want 7", len(stats.Days))
	}
	if stats.TotalIntake != 3500 || stats.DaysTracked != 2 || stats.DailyAverage != 1750 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.DaysGoalMet != 1 || stats.GoalCompletionRate != 50 {
		t.Errorf("goal met = %d rate %d, want 1 and 50", stats.DaysGoalMet, stats.GoalCompletionRate)
	}
	if stats.BestDay == nil || stats.BestDay.Date != "2024-03-04" {
		t.Errorf("best day = %+v", stats.BestDay)
	}
	if stats.WorstDay == nil || stats.WorstDay.Date != "2024-03-05" {
		t.Errorf("worst day = %+v", stats.WorstDay)
	}

	empty := SummarizePeriod("2024-03-04", "2024-03-10", nil)
	if empty.BestDay != nil || empty.DailyAverage != 0 || empty.Trend != models.TrendStable {
		t.Errorf("empty period = %+v", empty)
	}
}

func TestHourlyBreakdown(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2024, 3, 1, h, m, 0, 0, time.UTC) }
	events := []models.IntakeEvent{
		{Kind: models.EventKindAdd, AmountMilliliters: 300, OccurredAt: at(8, 0)},
		{Kind: models.EventKindAdd, AmountMilliliters: 200, OccurredAt: at(8, 45)},
		{Kind: models.EventKindRemove, AmountMilliliters: -200, OccurredAt: at(8, 50)},
		{Kind: models.EventKindAdd, AmountMilliliters: 500, OccurredAt: at(21, 10)},
	}
	seq := func(yield func(models.IntakeEvent, error) bool) {
		for _, e := range events {
			if !yield(e, nil) {
				return
			}
		}
	}

	hours, err := HourlyBreakdown(seq)
	if err != nil {
		t.Fatalf("HourlyBreakdown() error = %v", err)
	}
	if len(hours) != 24 {
		t.Fatalf("hours = %d, want 24", len(hours))
	}
	if h := hours[8]; h.TotalIntake != 500 || h.EntryCount != 2 || h.AveragePerEntry != 250 {
		t.Errorf("hour 8 = %+v", h)
	}
	if h := hours[21]; h.TotalIntake != 500 || h.EntryCount != 1 {
		t.Errorf("hour 21 = %+v", h)
	}
	if hours[0].EntryCount != 0 || hours[0].Hour != 0 {
		t.Errorf("hour 0 = %+v", hours[0])
	}
}

func TestDayOfWeekBreakdown(t *testing.T) {
	// 2024-03-04 and 2024-03-11 are Mondays
	records := []models.DailyHistoryRecord{
		{Date: "2024-03-04", Intake: 2000, Goal: 2000},
		{Date: "2024-03-11", Intake: 1000, Goal: 2000},
		{Date: "2024-03-05", Intake: 0, Goal: 2000},
	}
	stats := DayOfWeekBreakdown(records)

	monday := stats[time.Monday]
	if monday.DayName != "Monday" || monday.DaysCount != 2 || monday.AverageIntake != 1500 || monday.GoalMetCount != 1 {
		t.Errorf("monday = %+v", monday)
	}
	if stats[time.Tuesday].DaysCount != 0 {
		t.Errorf("tuesday = %+v, want no tracked days", stats[time.Tuesday])
	}
	if stats[time.Sunday].DayName != "Sunday" {
		t.Errorf("stats[0] = %+v, want Sunday", stats[0])
	}
}

func TestStatsService(t *testing.T) {
	env := newTestEnv(t, scenarioNow)
	ctx := context.Background()
	stats := NewStatsService(env.ledger)

	for _, day := range []daykey.Key{"2024-02-27", "2024-02-28", "2024-02-29"} {
		if err := env.ledgerDB.SetTotal(ctx, day, 2200, 2000); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := env.ledger.AddIntake(ctx, &models.AddIntakeRequest{AmountMilliliters: 800}); err != nil {
		t.Fatal(err)
	}

	got, err := stats.GetStats(ctx, 0)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	want := models.Stats{
		CurrentStreak:    3,
		LongestStreak:    3,
		CompletionRate:   75,
		Average:          1850,
		PeriodDays:       DefaultStatsPeriodDays,
		TotalDaysTracked: 4,
	}
	if *got != want {
		t.Errorf("GetStats() = %+v, want %+v", *got, want)
	}

	// 2024-03-01 is a Friday; its week started 2024-02-26
	week, err := stats.GetWeeklyStats(ctx, 0)
	if err != nil {
		t.Fatalf("GetWeeklyStats() error = %v", err)
	}
	if week.StartDate != "2024-02-26" || week.DaysTracked != 4 || week.TotalIntake != 7400 {
		t.Errorf("week = %+v", week)
	}
	if week.Trend != models.TrendStable || week.TrendPercentage != 0 {
		t.Errorf("trend = %s %d, want stable 0 without a previous week", week.Trend, week.TrendPercentage)
	}

	month, err := stats.GetMonthlyStats(ctx, 0)
	if err != nil {
		t.Fatalf("GetMonthlyStats() error = %v", err)
	}
	if month.StartDate != "2024-03-01" || month.TotalIntake != 800 {
		t.Errorf("month = %+v", month)
	}
	// 800 a day against 2200 a day in February
	if month.Trend != models.TrendDown || month.TrendPercentage != 64 {
		t.Errorf("month trend = %s %d, want down 64", month.Trend, month.TrendPercentage)
	}

	dist, err := stats.GetDistribution(ctx, 7)
	if err != nil {
		t.Fatalf("GetDistribution() error = %v", err)
	}
	if dist.Hourly[2].TotalIntake != 800 {
		t.Errorf("hour 2 = %+v, want 800", dist.Hourly[2])
	}
	tracked := slices.IndexFunc(dist.DayOfWeek, func(d models.DayOfWeekStats) bool { return d.DaysCount > 0 })
	if tracked < 0 {
		t.Error("no weekday has tracked days")
	}
}
