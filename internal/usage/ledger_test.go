// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package usage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var day = time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

func TestLoad_MissingFile(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "usage.json"), nil)
	require.NoError(t, err)

	daily, monthly := l.Counts(day)
	assert.Zero(t, daily)
	assert.Zero(t, monthly)
	assert.Zero(t, l.Total)
}

func TestLoad_CorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	core, logs := observer.New(zap.WarnLevel)
	l, err := Load(path, zap.New(core))
	require.NoError(t, err)
	assert.Zero(t, l.Total)
	assert.Equal(t, 1, logs.Len())
}

func TestIncrement_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "usage.json")
	l, err := Load(path, nil)
	require.NoError(t, err)

	require.NoError(t, l.Increment(day))
	require.NoError(t, l.Increment(day))
	require.NoError(t, l.Increment(day.AddDate(0, 0, 1)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, map[string]any{"2024-07-15": 2.0, "2024-07-16": 1.0}, doc["daily"])
	assert.Equal(t, map[string]any{"2024-07": 3.0}, doc["monthly"])
	assert.Equal(t, 3.0, doc["total"])

	reloaded, err := Load(path, nil)
	require.NoError(t, err)
	daily, monthly := reloaded.Counts(day)
	assert.Equal(t, 2, daily)
	assert.Equal(t, 3, monthly)
	assert.Equal(t, 3, reloaded.Total)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestExceeded(t *testing.T) {
	l := New("")
	limits := Limits{Daily: 2, Monthly: 3}

	_, exceeded := l.Exceeded(day, limits)
	assert.False(t, exceeded)

	require.NoError(t, l.Increment(day))
	require.NoError(t, l.Increment(day))
	reason, exceeded := l.Exceeded(day, limits)
	assert.True(t, exceeded)
	assert.Equal(t, "daily", reason)

	next := day.AddDate(0, 0, 1)
	_, exceeded = l.Exceeded(next, limits)
	assert.False(t, exceeded)

	require.NoError(t, l.Increment(next))
	reason, exceeded = l.Exceeded(next, limits)
	assert.True(t, exceeded)
	assert.Equal(t, "monthly", reason)

	_, exceeded = l.Exceeded(time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), limits)
	assert.False(t, exceeded)
}

func TestExceeded_DefaultLimits(t *testing.T) {
	l := New("")
	l.Daily[day.Format(dayLayout)] = DefaultDailyLimit - 1
	_, exceeded := l.Exceeded(day, Limits{})
	assert.False(t, exceeded)

	l.Daily[day.Format(dayLayout)] = DefaultDailyLimit
	_, exceeded = l.Exceeded(day, Limits{})
	assert.True(t, exceeded)
}

func TestStatus(t *testing.T) {
	l := New("")
	require.NoError(t, l.Increment(day))

	s := l.Status(day, Limits{Daily: 10, Monthly: 100})
	assert.Equal(t, Status{
		Date:             "2024-07-15",
		Month:            "2024-07",
		DailyUsed:        1,
		DailyLimit:       10,
		DailyRemaining:   9,
		MonthlyUsed:      1,
		MonthlyLimit:     100,
		MonthlyRemaining: 99,
		Total:            1,
	}, s)
}
