package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/models"
)

// FileDisplay writes the counter the widget renders
type FileDisplay struct {
	path string
	mu   sync.Mutex
}

// NewFileDisplay creates a display writer for path
func NewFileDisplay(path string) *FileDisplay {
	return &FileDisplay{path: path}
}

// Push replaces the display state
func (d *FileDisplay) Push(ctx context.Context, display models.WidgetDisplay) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(display)
}

// Reset zeroes the visible counter for a new day and keeps the goal
func (d *FileDisplay) Reset(ctx context.Context, day daykey.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	current, err := d.read()
	if err != nil {
		return err
	}
	current.CurrentIntake = 0
	current.LastSyncDate = day.String()
	return d.write(current)
}

// Read returns the current display state, zero when none was written
func (d *FileDisplay) Read(ctx context.Context) (models.WidgetDisplay, error) {
	if err := ctx.Err(); err != nil {
		return models.WidgetDisplay{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read()
}

func (d *FileDisplay) read() (models.WidgetDisplay, error) {
	var display models.WidgetDisplay
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return display, nil
	}
	if err != nil {
		return display, fmt.Errorf("failed to read widget display: %w", err)
	}
	if len(data) == 0 {
		return display, nil
	}
	if err := json.Unmarshal(data, &display); err != nil {
		return display, fmt.Errorf("failed to decode widget display: %w", err)
	}
	return display, nil
}

func (d *FileDisplay) write(display models.WidgetDisplay) error {
	data, err := json.Marshal(display)
	if err != nil {
		return fmt.Errorf("failed to encode widget display: %w", err)
	}

	tmp, err := writeTemp(d.path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, d.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace widget display: %w", err)
	}
	return nil
}
