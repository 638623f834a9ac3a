package models

// WidgetEntry is one tap recorded by the home-screen widget in its own
// queue. Date and Time are kept as the widget wrote them so malformed
// values can be detected instead of coerced.
type WidgetEntry struct {
	LocalID           int64  `json:"local_id"`
	AmountMilliliters int    `json:"amount_ml"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Timestamp         int64  `json:"timestamp,omitempty"`
	// Problem is set by the queue reader when the entry could not be decoded
	Problem string `json:"-"`
}

// SyncResult reports a widget reconciliation pass
type SyncResult struct {
	SyncedCount            int           `json:"synced_count"`
	TotalAmountMilliliters int           `json:"total_amount_ml"`
	AppliedEntries         []WidgetEntry `json:"applied_entries"`
	DuplicateCount         int           `json:"duplicate_count"`
	FailedCount            int           `json:"failed_count"`
	Cursor                 int64         `json:"cursor"`
}

// WidgetDisplay is the state pushed to the widget's visible counter
type WidgetDisplay struct {
	CurrentIntake int    `json:"currentIntake"`
	DailyGoal     int    `json:"dailyGoal"`
	LastSyncDate  string `json:"lastSyncDate"`
}
