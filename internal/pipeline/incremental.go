package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kanyini-os/kanyini/internal/source"
	"github.com/kanyini-os/kanyini/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
	Removed   int
	Intake    int // donations submitted through intake
}

// LoadWithCache discovers fixtures, diffs them against the cache, parses only
// changed files, and returns the combined result set with intake donations appended.
func LoadWithCache(dataDir string, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	cached, err := cache.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("loading cached records: %w", err)
	}

	result := &CachedLoadResult{}
	if len(files) == 0 {
		base, err := loadDefaults()
		if err != nil {
			return nil, err
		}
		result.LoadResult = *base
	} else {
		if err := result.loadFiles(files, cache, cached, progressFn); err != nil {
			return nil, err
		}
	}

	if intake, ok := cached[store.IntakeSource]; ok {
		result.Donations = append(result.Donations, intake.Donations...)
		result.Intake = len(intake.Donations)
	}

	return result, nil
}

func (r *CachedLoadResult) loadFiles(files []source.DiscoveredFile, cache *store.Cache, cached map[string]*store.FileRecords, progressFn ProgressFunc) error {
	r.TotalFiles = len(files)
	r.CampaignFiles, r.DonationFiles = source.CountKinds(files)

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return fmt.Errorf("reading cache: %w", err)
	}

	// Diff: partition into changed and unchanged
	var toReparse []source.DiscoveredFile
	var unchanged []string
	present := make(map[string]struct{}, len(files))

	for _, f := range files {
		present[f.Path] = struct{}{}
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}

		t, ok := tracked[f.Path]
		if ok && t.MtimeNs == info.ModTime().UnixNano() && t.SizeBytes == info.Size() {
			unchanged = append(unchanged, f.Path)
		} else {
			toReparse = append(toReparse, f)
		}
	}

	r.CacheHits = len(unchanged)
	r.Reparsed = len(toReparse)

	// Drop cache entries for files that no longer exist
	for path := range tracked {
		if _, ok := present[path]; !ok {
			_ = cache.DeleteFile(path)
			r.Removed++
		}
	}

	for _, path := range unchanged {
		fr, ok := cached[path]
		if !ok {
			continue
		}
		r.ParsedFiles++
		r.ParseErrors += fr.ParseErrors
		r.Campaigns = append(r.Campaigns, fr.Campaigns...)
		r.Donations = append(r.Donations, fr.Donations...)
	}

	results := parseAll(toReparse, r.CacheHits, r.TotalFiles, progressFn)
	for i, pr := range results {
		r.add(pr)
		if pr.Err != nil {
			continue
		}
		info, err := os.Stat(toReparse[i].Path)
		if err == nil {
			_ = cache.SaveFile(toReparse[i].Path, store.FileRecords{
				Campaigns:   pr.Campaigns,
				Donations:   pr.Donations,
				ParseErrors: pr.ParseErrors,
			}, info.ModTime().UnixNano(), info.Size())
		}
	}

	sortBySource(r)
	return nil
}

// sortBySource gives cached and reparsed records a deterministic order.
func sortBySource(r *CachedLoadResult) {
	sort.SliceStable(r.Campaigns, func(i, j int) bool { return r.Campaigns[i].Source < r.Campaigns[j].Source })
	sort.SliceStable(r.Donations, func(i, j int) bool { return r.Donations[i].Source < r.Donations[j].Source })
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "kanyini")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "kanyini")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "metrics.db")
}

// DefaultDataDir returns the fixture directory used when none is configured.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "kanyini")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "kanyini")
}
