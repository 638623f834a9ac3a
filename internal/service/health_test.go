package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/models"
)

func TestLogDailyHealth(t *testing.T) {
	env := newTestEnv(t, scenarioNow)
	ctx := context.Background()
	health := NewHealthService(env.health, env.ledger)

	if _, err := env.ledger.AddIntake(ctx, &models.AddIntakeRequest{AmountMilliliters: 1500}); err != nil {
		t.Fatal(err)
	}

	log, err := health.LogDailyHealth(ctx, &models.LogHealthRequest{
		Mood: 4, Energy: 3, Skin: 5,
		Notes: models.NullableString{Set: true, Valid: true, Value: "long run"},
	})
	if err != nil {
		t.Fatalf("LogDailyHealth() error = %v", err)
	}
	if log.Date != "2024-03-01" || log.WaterIntakeMilliliters != 1500 || log.WaterIntakePercent != 75 {
		t.Errorf("log = %+v, want today at 1500 ml / 75%%", log)
	}

	// Omitting notes keeps the stored ones
	updated, err := health.LogDailyHealth(ctx, &models.LogHealthRequest{Date: "2024-03-01", Mood: 5, Energy: 3, Skin: 5})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Notes == nil || *updated.Notes != "long run" || updated.Mood != 5 {
		t.Errorf("updated = %+v, want mood 5 with notes kept", updated)
	}

	stored, err := env.health.Get(ctx, "2024-03-01")
	if err != nil || stored.Mood != 5 {
		t.Errorf("stored = %+v, %v", stored, err)
	}
}

func TestLogDailyHealth_Validation(t *testing.T) {
	env := newTestEnv(t, scenarioNow)
	health := NewHealthService(env.health, env.ledger)

	tests := []struct {
		name    string
		req     models.LogHealthRequest
		wantErr error
	}{
		{"mood too low", models.LogHealthRequest{Mood: 0, Energy: 3, Skin: 3}, ErrInvalidLevel},
		{"skin too high", models.LogHealthRequest{Mood: 3, Energy: 3, Skin: 6}, ErrInvalidLevel},
		{"bad date", models.LogHealthRequest{Date: "03/01/2024", Mood: 3, Energy: 3, Skin: 3}, ErrInvalidDayKey},
		{"future date", models.LogHealthRequest{Date: "2024-03-02", Mood: 3, Energy: 3, Skin: 3}, ErrFutureDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := health.LogDailyHealth(context.Background(), &tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LogDailyHealth() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogDailyHealth_PrunesOldLogs(t *testing.T) {
	env := newTestEnv(t, scenarioNow)
	ctx := context.Background()
	health := NewHealthService(env.health, env.ledger)

	old := daykey.Key("2024-03-01").AddDays(-(HealthRetentionDays + 5))
	if err := env.health.Upsert(ctx, &models.HealthLog{Date: old, Mood: 3, Energy: 3, Skin: 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := health.LogDailyHealth(ctx, &models.LogHealthRequest{Mood: 3, Energy: 3, Skin: 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.health.Get(ctx, old); err == nil {
		t.Errorf("log for %s survived pruning", old)
	}
}

func TestHealthAveragesAndRecent(t *testing.T) {
	env := newTestEnv(t, scenarioNow)
	ctx := context.Background()
	health := NewHealthService(env.health, env.ledger)

	for i, mood := range []int{2, 4} {
		day := daykey.Key("2024-02-29").AddDays(i)
		log := &models.HealthLog{Date: day, Mood: mood, Energy: 3, Skin: 1, WaterIntakeMilliliters: 1000 * (i + 1)}
		if err := env.health.Upsert(ctx, log); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := health.GetRecentHealthLogs(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Date != "2024-03-01" {
		t.Errorf("recent = %+v, want newest first", recent)
	}

	avg, err := health.GetHealthAverages(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if avg.LogCount != 2 || avg.AvgMood != 3 || avg.AvgSkin != 1 || avg.AvgWater != 1500 {
		t.Errorf("averages = %+v", avg)
	}

	if _, err := health.GetHealthTrend(ctx, "sleep"); !errors.Is(err, ErrInvalidMetric) {
		t.Errorf("GetHealthTrend(sleep) error = %v, want ErrInvalidMetric", err)
	}
}

func TestHealthTrendOf(t *testing.T) {
	logsOf := func(moods ...int) []models.HealthLog {
		logs := make([]models.HealthLog, len(moods))
		for i, m := range moods {
			logs[i] = models.HealthLog{Mood: m}
		}
		return logs
	}

	tests := []struct {
		name string
		logs []models.HealthLog
		want models.HealthTrend
	}{
		{"too few logs", logsOf(5, 5, 5, 5, 5, 5), models.HealthTrendStable},
		{"no previous week", logsOf(5, 5, 5, 5, 5, 5, 5), models.HealthTrendStable},
		{"improving", logsOf(4, 4, 4, 4, 4, 4, 4, 3, 3, 3), models.HealthTrendImproving},
		{"declining", logsOf(2, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3), models.HealthTrendDeclining},
		{"small change", logsOf(3, 3, 3, 3, 3, 3, 4, 3, 3, 3), models.HealthTrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HealthTrendOf(tt.logs, models.MetricMood); got != tt.want {
				t.Errorf("HealthTrendOf() = %s, want %s", got, tt.want)
			}
		})
	}
}
