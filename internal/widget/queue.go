// Package widget talks to the home-screen widget process through the two
// files it shares with the daemon: the pending-entry queue the widget
// appends to and the display file the widget renders.
package widget

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kyawhla/hydromate/internal/models"
	"github.com/tidwall/gjson"
)

// ErrCorruptQueue means the queue file is not a JSON array at all
var ErrCorruptQueue = errors.New("widget queue is not a JSON array")

// maxTruncateAttempts bounds retries when the widget writes the queue
// while it is being truncated
const maxTruncateAttempts = 3

// FileQueue reads the widget's JSON outbox. The file holds an array of
// {localId, amount, date, time, timestamp} objects in the order the widget
// appended them.
type FileQueue struct {
	path string
	mu   sync.Mutex
}

// NewFileQueue creates a queue reader for path
func NewFileQueue(path string) *FileQueue {
	return &FileQueue{path: path}
}

// Path returns the queue file location
func (q *FileQueue) Path() string {
	return q.path
}

// ReadPending returns every entry in the queue. Entries that cannot be
// decoded are returned with Problem set so the caller can count them. A
// missing or empty file is an empty queue.
func (q *FileQueue) ReadPending(ctx context.Context) ([]models.WidgetEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := readQueueFile(q.path)
	if err != nil || data == nil {
		return nil, err
	}

	var entries []models.WidgetEntry
	gjson.ParseBytes(data).ForEach(func(_, value gjson.Result) bool {
		entries = append(entries, parseEntry(value))
		return true
	})
	return entries, nil
}

// TruncateUpTo drops every entry whose localId is at most localID. Entries
// without a readable localId are kept.
func (q *FileQueue) TruncateUpTo(ctx context.Context, localID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for attempt := 0; attempt < maxTruncateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		before, err := os.Stat(q.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stat widget queue: %w", err)
		}

		data, err := readQueueFile(q.path)
		if err != nil || data == nil {
			return err
		}

		var kept []string
		dropped := 0
		gjson.ParseBytes(data).ForEach(func(_, value gjson.Result) bool {
			id := value.Get("localId")
			if id.Type == gjson.Number && id.Int() <= localID {
				dropped++
				return true
			}
			kept = append(kept, value.Raw)
			return true
		})
		if dropped == 0 {
			return nil
		}

		tmp, err := writeTemp(q.path, []byte("["+strings.Join(kept, ",")+"]"))
		if err != nil {
			return err
		}

		// The widget may have appended while we were rewriting
		after, err := os.Stat(q.path)
		if err != nil || !after.ModTime().Equal(before.ModTime()) || after.Size() != before.Size() {
			os.Remove(tmp)
			continue
		}

		if err := os.Rename(tmp, q.path); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("failed to replace widget queue: %w", err)
		}
		return nil
	}

	return fmt.Errorf("widget queue kept changing during truncation after %d attempts", maxTruncateAttempts)
}

func readQueueFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read widget queue: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsArray() {
		return nil, ErrCorruptQueue
	}
	return data, nil
}

func parseEntry(value gjson.Result) models.WidgetEntry {
	var entry models.WidgetEntry

	if !value.IsObject() {
		entry.Problem = "entry is not an object"
		return entry
	}

	id := value.Get("localId")
	if id.Type != gjson.Number || id.Int() <= 0 || float64(id.Int()) != id.Float() {
		entry.Problem = "missing or invalid localId"
		return entry
	}
	entry.LocalID = id.Int()

	amount := value.Get("amount")
	if amount.Type != gjson.Number || float64(amount.Int()) != amount.Float() {
		entry.Problem = "missing or invalid amount"
		return entry
	}
	entry.AmountMilliliters = int(amount.Int())

	if date := value.Get("date"); date.Type == gjson.String {
		entry.Date = date.Str
	}
	if t := value.Get("time"); t.Type == gjson.String {
		entry.Time = t.Str
	}
	if ts := value.Get("timestamp"); ts.Type == gjson.Number {
		entry.Timestamp = ts.Int()
	}
	return entry
}

func writeTemp(path string, data []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return f.Name(), nil
}
