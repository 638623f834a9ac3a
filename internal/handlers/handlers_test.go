package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kyawhla/hydromate/internal/apierror"
	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/middleware"
	"github.com/kyawhla/hydromate/internal/models"
	"github.com/kyawhla/hydromate/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeLedger embeds the interface so only the methods a test uses need
// an implementation
type fakeLedger struct {
	service.LedgerService
	addReq    *models.AddIntakeRequest
	addResult *models.IntakeResult
	lastN     int
	err       error
}

func (f *fakeLedger) AddIntake(_ context.Context, req *models.AddIntakeRequest) (*models.IntakeResult, error) {
	f.addReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.addResult, nil
}

func (f *fakeLedger) RemoveIntake(_ context.Context, amountML int) (*models.IntakeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.IntakeResult{DayKey: "2024-03-01", TotalMilliliters: 250 - amountML}, nil
}

func (f *fakeLedger) GetDayRecord(_ context.Context, day daykey.Key) (*models.DayRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.DayRecord{DailyHistoryRecord: models.DailyHistoryRecord{Date: day, Intake: 750, Goal: 2000}}, nil
}

func (f *fakeLedger) GetLastNDays(_ context.Context, n int) ([]models.DailyHistoryRecord, error) {
	f.lastN = n
	return make([]models.DailyHistoryRecord, n), f.err
}

type fakeReconcile struct {
	result *models.SyncResult
	err    error
}

func (f *fakeReconcile) SyncFromWidget(context.Context) (*models.SyncResult, error) {
	return f.result, f.err
}

type fakeStats struct {
	service.StatsService
	weekOffset int
}

func (f *fakeStats) GetWeeklyStats(_ context.Context, weekOffset int) (*models.PeriodStats, error) {
	f.weekOffset = weekOffset
	return &models.PeriodStats{Trend: models.TrendStable}, nil
}

type fakeHealth struct {
	service.HealthService
	err error
}

func (f *fakeHealth) LogDailyHealth(_ context.Context, req *models.LogHealthRequest) (*models.HealthLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.HealthLog{Date: daykey.Key(req.Date), Mood: req.Mood, Energy: req.Energy, Skin: req.Skin}, nil
}

func (f *fakeHealth) GetHealthTrend(_ context.Context, metric models.Metric) (models.HealthTrend, error) {
	if metric != models.MetricMood {
		return "", service.ErrInvalidMetric
	}
	return models.HealthTrendImproving, nil
}

type fakeSettings struct {
	service.SettingsService
	hour int
}

func (f *fakeSettings) SetRolloverHour(_ context.Context, hour int) (*models.RolloverSettings, error) {
	if err := daykey.ValidateRolloverHour(hour); err != nil {
		return nil, err
	}
	f.hour = hour
	return &models.RolloverSettings{RolloverHour: hour, Label: daykey.FormatHour(hour)}, nil
}

type fixture struct {
	ledger    *fakeLedger
	reconcile *fakeReconcile
	stats     *fakeStats
	health    *fakeHealth
	settings  *fakeSettings
	router    *gin.Engine
}

func newFixture() *fixture {
	f := &fixture{
		ledger:    &fakeLedger{},
		reconcile: &fakeReconcile{},
		stats:     &fakeStats{},
		health:    &fakeHealth{},
		settings:  &fakeSettings{},
	}
	h := &Handlers{
		Intake:   NewIntakeHandler(f.ledger),
		Sync:     NewSyncHandler(f.reconcile),
		Stats:    NewStatsHandler(f.stats),
		Insights: NewInsightsHandler(nil),
		Health:   NewHealthHandler(f.health),
		Settings: NewSettingsHandler(f.settings),
	}
	f.router = gin.New()
	f.router.Use(middleware.RequestContext(logger.Discard()))
	h.Register(f.router.Group("/api/v1"))
	return f
}

func (f *fixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) apierror.ProblemDetails {
	t.Helper()
	var problem apierror.ProblemDetails
	if err := json.Unmarshal(w.Body.Bytes(), &problem); err != nil {
		t.Fatalf("response is not a problem document: %v: %s", err, w.Body.String())
	}
	return problem
}

func TestAddIntake_CreatedAndDuplicate(t *testing.T) {
	f := newFixture()
	f.ledger.addResult = &models.IntakeResult{DayKey: "2024-03-01", TotalMilliliters: 250, EventID: "e1"}

	w := f.do(http.MethodPost, "/api/v1/intake", `{"amount_ml":250}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	f.ledger.addResult = &models.IntakeResult{DayKey: "2024-03-01", TotalMilliliters: 250, EventID: "e1", Duplicate: true}
	w = f.do(http.MethodPost, "/api/v1/intake", `{"amount_ml":250,"id":"e1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate status = %d, want 200", w.Code)
	}
}

func TestAddIntake_IdempotencyKeyHeader(t *testing.T) {
	f := newFixture()
	f.ledger.addResult = &models.IntakeResult{EventID: "from-header"}

	f.do(http.MethodPost, "/api/v1/intake", `{"amount_ml":250}`, IdempotencyKeyHeader, "from-header")
	if f.ledger.addReq == nil || f.ledger.addReq.ID != "from-header" {
		t.Fatalf("request = %+v, want id from header", f.ledger.addReq)
	}

	f.do(http.MethodPost, "/api/v1/intake", `{"amount_ml":250,"id":"from-body"}`, IdempotencyKeyHeader, "from-header")
	if f.ledger.addReq.ID != "from-body" {
		t.Errorf("body id should win, got %q", f.ledger.addReq.ID)
	}
}

func TestAddIntake_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"missing amount", `{}`, nil, http.StatusBadRequest, apierror.TypeBadRequest},
		{"malformed json", `{"amount_ml":`, nil, http.StatusBadRequest, apierror.TypeBadRequest},
		{"negative amount", `{"amount_ml":-5}`, service.ErrInvalidAmount, http.StatusBadRequest, apierror.TypeValidation},
		{"invalid id", `{"amount_ml":250,"id":"nope"}`, service.ErrInvalidUUID, http.StatusBadRequest, apierror.TypeInvalidUUID},
		{"future id", `{"amount_ml":250,"id":"x"}`, service.ErrFutureTimestamp, http.StatusBadRequest, apierror.TypeFutureTimestamp},
		{"storage down", `{"amount_ml":250}`, &service.StorageError{Op: "append", Err: errors.New("disk I/O error")}, http.StatusServiceUnavailable, apierror.TypeStorageUnavailable},
		{"unexpected", `{"amount_ml":250}`, errors.New("boom"), http.StatusInternalServerError, apierror.TypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.ledger.err = tt.err

			w := f.do(http.MethodPost, "/api/v1/intake", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != apierror.ContentTypeProblemJSON {
				t.Errorf("Content-Type = %q", ct)
			}
			if problem := decodeProblem(t, w); problem.Type != tt.wantType {
				t.Errorf("type = %q, want %q", problem.Type, tt.wantType)
			}
		})
	}
}

func TestStorageErrorCarriesRetryAfter(t *testing.T) {
	f := newFixture()
	f.ledger.err = &service.StorageError{Op: "append", Err: errors.New("database is locked")}

	w := f.do(http.MethodPost, "/api/v1/intake/remove", `{"amount_ml":100}`, middleware.RequestIDHeader, "req-7")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
	problem := decodeProblem(t, w)
	if problem.RequestID != "req-7" || problem.Action != "retry" {
		t.Errorf("problem = %+v", problem)
	}
}

func TestGetDay(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodGet, "/api/v1/days/2024-03-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var record models.DayRecord
	if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
		t.Fatal(err)
	}
	if record.Date != "2024-03-01" || record.Intake != 750 {
		t.Errorf("record = %+v", record)
	}

	w = f.do(http.MethodGet, "/api/v1/days/03-01-2024", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if problem := decodeProblem(t, w); problem.Type != apierror.TypeInvalidDayKey {
		t.Errorf("type = %q", problem.Type)
	}
}

func TestGetHistory_DaysParameter(t *testing.T) {
	tests := []struct {
		query      string
		wantStatus int
		wantN      int
	}{
		{"", http.StatusOK, service.DefaultStatsPeriodDays},
		{"?days=14", http.StatusOK, 14},
		{"?days=5000", http.StatusOK, MaxHistoryDays},
		{"?days=0", http.StatusBadRequest, 0},
		{"?days=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f := newFixture()
			w := f.do(http.MethodGet, "/api/v1/history"+tt.query, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if f.ledger.lastN != tt.wantN {
				t.Errorf("GetLastNDays(%d), want %d", f.ledger.lastN, tt.wantN)
			}
		})
	}
}

func TestSync(t *testing.T) {
	f := newFixture()
	f.reconcile.result = &models.SyncResult{SyncedCount: 2, TotalAmountMilliliters: 500, Cursor: 2}

	w := f.do(http.MethodPost, "/api/v1/sync", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var result models.SyncResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.SyncedCount != 2 || result.TotalAmountMilliliters != 500 {
		t.Errorf("result = %+v", result)
	}

	f.reconcile.err = errors.Join(service.ErrWidgetQueue, errors.New("permission denied"))
	w = f.do(http.MethodPost, "/api/v1/sync", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if problem := decodeProblem(t, w); problem.Type != apierror.TypeWidgetQueue {
		t.Errorf("type = %q", problem.Type)
	}
}

func TestWeeklyStatsOffset(t *testing.T) {
	f := newFixture()

	if w := f.do(http.MethodGet, "/api/v1/stats/weekly?offset=2", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if f.stats.weekOffset != 2 {
		t.Errorf("offset = %d, want 2", f.stats.weekOffset)
	}
	if w := f.do(http.MethodGet, "/api/v1/stats/weekly?offset=-1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("negative offset status = %d, want 400", w.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/health-logs", `{"date":"2024-03-01","mood":4,"energy":3,"skin":5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("log status = %d: %s", w.Code, w.Body.String())
	}

	f.health.err = service.ErrFutureDay
	w = f.do(http.MethodPost, "/api/v1/health-logs", `{"date":"2099-01-01","mood":4,"energy":3,"skin":5}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("future day status = %d, want 400", w.Code)
	}
	if problem := decodeProblem(t, w); len(problem.Errors) != 1 || problem.Errors[0].Field != "date" {
		t.Errorf("errors = %+v", problem.Errors)
	}

	w = f.do(http.MethodGet, "/api/v1/health-logs/trend/mood", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"improving"`) {
		t.Errorf("trend = %d %s", w.Code, w.Body.String())
	}
	w = f.do(http.MethodGet, "/api/v1/health-logs/trend/sleep", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown metric status = %d, want 400", w.Code)
	}
}

func TestUpdateRollover(t *testing.T) {
	tests := []struct {
		body       string
		wantStatus int
	}{
		{`{"rollover_hour":4}`, http.StatusOK},
		{`{"rollover_hour":0}`, http.StatusOK},
		{`{"rollover_hour":24}`, http.StatusBadRequest},
		{`{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			f := newFixture()
			f.settings.hour = -1
			w := f.do(http.MethodPut, "/api/v1/settings/rollover", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
