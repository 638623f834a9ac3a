package service

import (
	"context"
	"math"

	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/models"
	"github.com/kyawhla/hydromate/internal/repository"
	"golang.org/x/sync/errgroup"
)

// Correlation thresholds
const (
	MinPairedDays         = 5
	CorrelationWindow     = 30
	ReportableCorrelation = 0.3
)

type insightsService struct {
	ledger LedgerService
	health repository.HealthLogRepository
}

// NewInsightsService creates a new correlation insights service
func NewInsightsService(ledger LedgerService, health repository.HealthLogRepository) InsightsService {
	return &insightsService{ledger: ledger, health: health}
}

// GetCorrelationInsights pairs the last CorrelationWindow days of history
// with health logs and reports every metric whose association is strong
// enough. Nothing is cached.
func (s *insightsService) GetCorrelationInsights(ctx context.Context) ([]models.CorrelationInsight, error) {
	today, err := s.ledger.CurrentDayKey(ctx)
	if err != nil {
		return nil, err
	}
	from := today.AddDays(-(CorrelationWindow - 1))

	var (
		records []models.DailyHistoryRecord
		logs    []models.HealthLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.ledger.History(gctx, from, today)
		return err
	})
	g.Go(func() error {
		var err error
		logs, err = s.health.ListRange(gctx, from, today)
		return storageErr("list health logs", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	insights := Correlate(records, logs)
	logger.Ctx(ctx).Debug("computed correlation insights",
		logger.Int("history_days", len(records)),
		logger.Int("health_logs", len(logs)),
		logger.Int("insights", len(insights)))
	return insights, nil
}

// Correlate computes one insight per metric from the days present in both
// records and logs. Fewer than MinPairedDays pairs gives no insights.
func Correlate(records []models.DailyHistoryRecord, logs []models.HealthLog) []models.CorrelationInsight {
	byDay := make(map[daykey.Key]models.DailyHistoryRecord, len(records))
	for _, r := range records {
		byDay[r.Date] = r
	}

	var hydration []float64
	var paired []models.HealthLog
	for _, l := range logs {
		r, ok := byDay[l.Date]
		if !ok {
			continue
		}
		hydration = append(hydration, r.HydrationPercent())
		paired = append(paired, l)
	}

	insights := []models.CorrelationInsight{}
	if len(paired) < MinPairedDays {
		return insights
	}

	for _, metric := range models.Metrics {
		values := make([]float64, len(paired))
		for i, l := range paired {
			values[i] = float64(l.Value(metric))
		}

		r, pValue, ok := Pearson(hydration, values)
		if !ok || math.Abs(r) <= ReportableCorrelation {
			continue
		}

		direction := models.DirectionPositive
		if r < 0 {
			direction = models.DirectionNegative
		}
		insights = append(insights, models.CorrelationInsight{
			Metric:      metric,
			Direction:   direction,
			Strength:    math.Abs(r) * 100,
			Coefficient: r,
			PValue:      pValue,
			SampleSize:  len(paired),
		})
	}
	return insights
}

// Pearson computes the correlation coefficient of xs and ys and a two-tailed
// p-value from the normal approximation of the t statistic. ok is false when
// the series differ in length, are too short, or either has no variance.
func Pearson(xs, ys []float64) (r, pValue float64, ok bool) {
	n := len(xs)
	if n != len(ys) || n < MinPairedDays {
		return 0, 1, false
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var numerator, denomX, denomY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		numerator += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}

	if denomX == 0 || denomY == 0 {
		return 0, 1, false
	}

	r = numerator / math.Sqrt(denomX*denomY)
	// Rounding can push a perfect correlation just past 1
	r = math.Max(-1, math.Min(1, r))

	if math.Abs(r) >= 1.0 {
		pValue = 0
	} else {
		t := r * math.Sqrt(float64(n-2)/(1-r*r))
		pValue = 2 * (1 - normalCDF(math.Abs(t)))
	}
	return r, pValue, true
}

// normalCDF calculates the cumulative distribution function for standard normal
func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt(2)))
}
