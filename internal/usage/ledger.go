// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package usage tracks remote-call counts per day and per month in a
// small JSON file so quota survives process restarts.
package usage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Default ceilings applied when a limit is not configured.
const (
	DefaultDailyLimit   = 1000
	DefaultMonthlyLimit = 30000
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Limits are the call ceilings. Zero values fall back to the defaults.
type Limits struct {
	Daily   int
	Monthly int
}

func (l Limits) withDefaults() Limits {
	if l.Daily <= 0 {
		l.Daily = DefaultDailyLimit
	}
	if l.Monthly <= 0 {
		l.Monthly = DefaultMonthlyLimit
	}
	return l
}

// Ledger is the persisted usage record. Load it once, check it before each
// remote call and Increment it after each successful one.
type Ledger struct {
	path string

	Daily   map[string]int `json:"daily"`
	Monthly map[string]int `json:"monthly"`
	Total   int            `json:"total"`
}

// New returns an empty ledger that persists to path.
func New(path string) *Ledger {
	return &Ledger{
		path:    path,
		Daily:   map[string]int{},
		Monthly: map[string]int{},
	}
}

// Load reads the ledger at path. A missing file yields an empty ledger.
// A file that is not valid JSON is logged and replaced by an empty
// ledger; only I/O failures are returned as errors.
func Load(path string, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(path), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading usage ledger: %w", err)
	}

	l := New(path)
	if err := json.Unmarshal(data, l); err != nil {
		logger.Warn("usage ledger unreadable, starting fresh",
			zap.String("path", path), zap.Error(err))
		return New(path), nil
	}
	if l.Daily == nil {
		l.Daily = map[string]int{}
	}
	if l.Monthly == nil {
		l.Monthly = map[string]int{}
	}
	return l, nil
}

// Path returns the file the ledger persists to.
func (l *Ledger) Path() string { return l.path }

// Counts returns the calls recorded for the day and month containing now.
func (l *Ledger) Counts(now time.Time) (daily, monthly int) {
	return l.Daily[now.Format(dayLayout)], l.Monthly[now.Format(monthLayout)]
}

// Exceeded reports whether either ceiling has been reached for now. The
// returned reason names the ceiling ("daily" or "monthly").
func (l *Ledger) Exceeded(now time.Time, limits Limits) (reason string, exceeded bool) {
	limits = limits.withDefaults()
	daily, monthly := l.Counts(now)
	switch {
	case daily >= limits.Daily:
		return "daily", true
	case monthly >= limits.Monthly:
		return "monthly", true
	}
	return "", false
}

// Increment records one call at now and persists the ledger.
func (l *Ledger) Increment(now time.Time) error {
	l.Daily[now.Format(dayLayout)]++
	l.Monthly[now.Format(monthLayout)]++
	l.Total++
	return l.Save()
}

// Save writes the ledger atomically: a temp file in the same directory
// renamed over the target.
func (l *Ledger) Save() error {
	if l.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding usage ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".usage-*.json")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp ledger: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting ledger permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("replacing usage ledger: %w", err)
	}
	return nil
}

// Status is a point-in-time view of usage against the limits.
type Status struct {
	Date             string `json:"date" yaml:"date"`
	Month            string `json:"month" yaml:"month"`
	DailyUsed        int    `json:"daily_used" yaml:"daily_used"`
	DailyLimit       int    `json:"daily_limit" yaml:"daily_limit"`
	DailyRemaining   int    `json:"daily_remaining" yaml:"daily_remaining"`
	MonthlyUsed      int    `json:"monthly_used" yaml:"monthly_used"`
	MonthlyLimit     int    `json:"monthly_limit" yaml:"monthly_limit"`
	MonthlyRemaining int    `json:"monthly_remaining" yaml:"monthly_remaining"`
	Total            int    `json:"total" yaml:"total"`
}

// Status summarizes usage for the day and month containing now.
func (l *Ledger) Status(now time.Time, limits Limits) Status {
	limits = limits.withDefaults()
	daily, monthly := l.Counts(now)
	return Status{
		Date:             now.Format(dayLayout),
		Month:            now.Format(monthLayout),
		DailyUsed:        daily,
		DailyLimit:       limits.Daily,
		DailyRemaining:   max(limits.Daily-daily, 0),
		MonthlyUsed:      monthly,
		MonthlyLimit:     limits.Monthly,
		MonthlyRemaining: max(limits.Monthly-monthly, 0),
		Total:            l.Total,
	}
}
