package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/source"
	"github.com/kanyini-os/kanyini/internal/store"
)

func TestLoad_EmptyDirUsesDefaults(t *testing.T) {
	result, err := Load(t.TempDir(), nil)
	require.NoError(t, err)
	assert.True(t, result.UsedDefaults)
	assert.NotEmpty(t, result.Campaigns)
	assert.NotEmpty(t, result.Donations)
}

func TestLoad_ParsesFilesAndReportsProgress(t *testing.T) {
	dir := t.TempDir()
	writeDonationFiles(t, dir, 4, 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "donations-broken.json"), []byte("{"), 0o600))

	var calls atomic.Int64
	result, err := Load(dir, func(current, total int) {
		calls.Add(1)
		assert.LessOrEqual(t, current, total)
	})
	require.NoError(t, err)

	assert.False(t, result.UsedDefaults)
	assert.Equal(t, 5, result.TotalFiles)
	assert.Equal(t, 4, result.ParsedFiles)
	assert.Equal(t, 1, result.FileErrors)
	assert.Len(t, result.Donations, 40)
	assert.Equal(t, int64(5), calls.Load())
}

func TestLoadWithCache_ReusesUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeDonationFiles(t, dir, 3, 5)
	_, err := source.WriteDefaults(dir, false)
	require.NoError(t, err)

	cache, err := store.Open(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	first, err := LoadWithCache(dir, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, first.CacheHits)
	assert.Equal(t, 5, first.Reparsed)

	second, err := LoadWithCache(dir, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, second.CacheHits)
	assert.Equal(t, 0, second.Reparsed)
	assert.Len(t, second.Donations, len(first.Donations))
	assert.Len(t, second.Campaigns, len(first.Campaigns))

	// Touch one file with new content
	path := filepath.Join(dir, "donations-000.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"only","donor_id":"x","amount":1,"date":"2026-09-01"}`+"\n"), 0o600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	third, err := LoadWithCache(dir, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Reparsed)
	assert.Len(t, third.Donations, len(first.Donations)-4)

	// Remove a file; its cache entry goes too
	require.NoError(t, os.Remove(filepath.Join(dir, "donations-001.jsonl")))
	fourth, err := LoadWithCache(dir, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fourth.Removed)
}

func TestLoadWithCache_AppendsIntake(t *testing.T) {
	cache, err := store.Open(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	require.NoError(t, cache.SubmitDonation(context.Background(), model.Donation{
		ID: "intake-1", DonorID: "ava", Amount: 5, Date: time.Now(),
	}))

	result, err := LoadWithCache(t.TempDir(), cache, nil)
	require.NoError(t, err)
	assert.True(t, result.UsedDefaults)
	assert.Equal(t, 1, result.Intake)
	assert.Equal(t, "intake-1", result.Donations[len(result.Donations)-1].ID)
}

func TestLoadWithCache_RepeatedIDsMatchUncachedLoad(t *testing.T) {
	dir := t.TempDir()
	lines := `{"id":"d1","donor_id":"ava","amount":100,"date":"2026-09-01"}
{"id":"d1","donor_id":"ava","amount":250,"date":"2026-09-02"}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "donations.jsonl"), []byte(lines), 0o600))

	cache, err := store.Open(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	total := func(ds []model.Donation) float64 {
		var sum float64
		for _, d := range ds {
			sum += d.Amount
		}
		return sum
	}

	uncached, err := Load(dir, nil)
	require.NoError(t, err)
	miss, err := LoadWithCache(dir, cache, nil)
	require.NoError(t, err)
	hit, err := LoadWithCache(dir, cache, nil)
	require.NoError(t, err)
	require.Equal(t, 1, hit.CacheHits)

	for name, got := range map[string][]model.Donation{
		"uncached":   uncached.Donations,
		"cache miss": miss.Donations,
		"cache hit":  hit.Donations,
	} {
		assert.Len(t, got, 2, name)
		assert.Equal(t, 350.0, total(got), name)
	}

	issues := ValidateDonations(hit.Donations, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, "duplicate donation id", issues[0].Message)
}
