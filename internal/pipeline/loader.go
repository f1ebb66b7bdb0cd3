package pipeline

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Campaigns     []model.Campaign
	Donations     []model.Donation
	TotalFiles    int
	ParsedFiles   int
	ParseErrors   int
	FileErrors    int
	CampaignFiles int
	DonationFiles int
	UsedDefaults  bool // no fixture files found; built-in demo data loaded
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses all fixture files in dataDir.
// It uses a bounded worker pool for parallel parsing. When the directory holds no
// fixtures, the built-in demo data is returned instead.
func Load(dataDir string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	if len(files) == 0 {
		return loadDefaults()
	}

	result := &LoadResult{TotalFiles: len(files)}
	result.CampaignFiles, result.DonationFiles = source.CountKinds(files)

	for _, pr := range parseAll(files, 0, len(files), progressFn) {
		result.add(pr)
	}
	return result, nil
}

func loadDefaults() (*LoadResult, error) {
	pr, err := source.LoadDefaults()
	if err != nil {
		return nil, err
	}
	return &LoadResult{
		Campaigns:    pr.Campaigns,
		Donations:    pr.Donations,
		ParseErrors:  pr.ParseErrors,
		UsedDefaults: true,
	}, nil
}

func (r *LoadResult) add(pr source.ParseResult) {
	if pr.Err != nil {
		r.FileErrors++
		return
	}
	r.ParsedFiles++
	r.ParseErrors += pr.ParseErrors
	r.Campaigns = append(r.Campaigns, pr.Campaigns...)
	r.Donations = append(r.Donations, pr.Donations...)
}

// parseAll parses files on a bounded worker pool. Results keep input order.
// offset is added to the progress count so cached files are reported as done.
func parseAll(files []source.DiscoveredFile, offset, total int, progressFn ProgressFunc) []source.ParseResult {
	results := make([]source.ParseResult, len(files))
	if len(files) == 0 {
		return results
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n)+offset, total)
				}
			}
		}()
	}

	wg.Wait()
	return results
}
