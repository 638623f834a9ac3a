package widget

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/models"
	"github.com/tidwall/gjson"
)

func writeQueue(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write queue: %v", err)
	}
}

func TestFileQueue_ReadPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	writeQueue(t, path, `[
		{"localId": 1, "amount": 300, "date": "2024-03-02", "time": "02:00", "timestamp": 1709344800000},
		{"localId": 2, "amount": 200, "date": "2024-03-02", "time": "02:05"},
		{"amount": 150, "date": "2024-03-02", "time": "02:10"},
		{"localId": 4, "amount": "lots", "date": "2024-03-02", "time": "02:15"},
		{"localId": 5, "amount": 250}
	]`)

	entries, err := NewFileQueue(path).ReadPending(context.Background())
	if err != nil {
		t.Fatalf("ReadPending() error = %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("len(entries) = %d, want 5", len(entries))
	}

	first := entries[0]
	if first.LocalID != 1 || first.AmountMilliliters != 300 || first.Date != "2024-03-02" || first.Time != "02:00" {
		t.Errorf("entries[0] = %+v", first)
	}
	if first.Timestamp != 1709344800000 {
		t.Errorf("entries[0].Timestamp = %d", first.Timestamp)
	}
	if entries[2].Problem == "" {
		t.Error("entry without localId should carry a problem")
	}
	if entries[3].Problem == "" || entries[3].LocalID != 4 {
		t.Errorf("entry with bad amount = %+v, want problem and localId 4", entries[3])
	}
	// Missing date and time are left for the reconciler to reject
	if entries[4].Problem != "" || entries[4].Date != "" {
		t.Errorf("entries[4] = %+v", entries[4])
	}
}

func TestFileQueue_MissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	q := NewFileQueue(filepath.Join(dir, "absent.json"))
	entries, err := q.ReadPending(context.Background())
	if err != nil || len(entries) != 0 {
		t.Errorf("missing file: entries = %v, err = %v", entries, err)
	}

	empty := filepath.Join(dir, "empty.json")
	writeQueue(t, empty, "  \n")
	entries, err = NewFileQueue(empty).ReadPending(context.Background())
	if err != nil || len(entries) != 0 {
		t.Errorf("empty file: entries = %v, err = %v", entries, err)
	}

	if err := q.TruncateUpTo(context.Background(), 10); err != nil {
		t.Errorf("TruncateUpTo(missing) error = %v", err)
	}
}

func TestFileQueue_Corrupt(t *testing.T) {
	for name, content := range map[string]string{
		"not json": `[{"localId": 1,`,
		"object":   `{"localId": 1}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "queue.json")
			writeQueue(t, path, content)
			_, err := NewFileQueue(path).ReadPending(context.Background())
			if !errors.Is(err, ErrCorruptQueue) {
				t.Errorf("ReadPending() error = %v, want ErrCorruptQueue", err)
			}
		})
	}
}

func TestFileQueue_TruncateUpTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	writeQueue(t, path, `[
		{"localId": 1, "amount": 300, "date": "2024-03-02", "time": "02:00"},
		{"localId": 2, "amount": 200, "date": "2024-03-02", "time": "02:05"},
		{"amount": 150},
		{"localId": 3, "amount": 100, "date": "2024-03-02", "time": "02:10"}
	]`)

	q := NewFileQueue(path)
	if err := q.TruncateUpTo(context.Background(), 2); err != nil {
		t.Fatalf("TruncateUpTo() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read queue: %v", err)
	}
	remaining := gjson.ParseBytes(data).Array()
	if len(remaining) != 2 {
		t.Fatalf("remaining = %s, want 2 entries", data)
	}
	if remaining[0].Get("localId").Exists() {
		t.Errorf("entry without localId should be kept first, got %s", remaining[0].Raw)
	}
	if remaining[1].Get("localId").Int() != 3 {
		t.Errorf("remaining[1] = %s, want localId 3", remaining[1].Raw)
	}

	// Nothing left to drop leaves the file untouched
	info, _ := os.Stat(path)
	if err := q.TruncateUpTo(context.Background(), 2); err != nil {
		t.Fatalf("second TruncateUpTo() error = %v", err)
	}
	again, _ := os.Stat(path)
	if !again.ModTime().Equal(info.ModTime()) {
		t.Error("no-op truncation rewrote the queue")
	}
}

func TestFileDisplay_PushAndReset(t *testing.T) {
	d := NewFileDisplay(filepath.Join(t.TempDir(), "display.json"))
	ctx := context.Background()

	initial, err := d.Read(ctx)
	if err != nil || initial != (models.WidgetDisplay{}) {
		t.Fatalf("Read() before push = %+v, %v", initial, err)
	}

	if err := d.Push(ctx, models.WidgetDisplay{CurrentIntake: 1000, DailyGoal: 2000, LastSyncDate: "2024-03-01"}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if err := d.Reset(ctx, "2024-03-02"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	got, err := d.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := models.WidgetDisplay{CurrentIntake: 0, DailyGoal: 2000, LastSyncDate: "2024-03-02"}
	if got != want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}
}

func TestWatcher_CallsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queue.json")

	changed := make(chan struct{}, 1)
	w := NewWatcher(path, 20*time.Millisecond, func(ctx context.Context) {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(5 * time.Second)

	// Keep writing until the watcher has registered and fired
loop:
	for {
		select {
		case <-changed:
			break loop
		case <-ticker.C:
			writeQueue(t, path, `[{"localId": 1, "amount": 100, "date": "2024-03-02", "time": "09:00"}]`)
		case <-deadline:
			t.Fatal("watcher did not fire")
		}
	}

	// Writes to other files in the directory are ignored
	writeQueue(t, filepath.Join(dir, "other.json"), `[]`)

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
