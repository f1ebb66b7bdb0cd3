package source

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kanyini-os/kanyini/internal/model"
)

//go:embed fixtures/*
var defaultFixtures embed.FS

// DefaultSource is the Source recorded on records loaded from the built-in fixtures.
const DefaultSource = "builtin"

// LoadDefaults parses the built-in demo fixtures.
func LoadDefaults() (ParseResult, error) {
	var out ParseResult

	entries, err := fs.ReadDir(defaultFixtures, "fixtures")
	if err != nil {
		return out, fmt.Errorf("reading built-in fixtures: %w", err)
	}
	for _, e := range entries {
		data, err := defaultFixtures.ReadFile("fixtures/" + e.Name())
		if err != nil {
			return out, fmt.Errorf("reading built-in %s: %w", e.Name(), err)
		}
		pr := ParseBytes(ClassifyName(e.Name()), e.Name(), data)
		if pr.Err != nil {
			return out, pr.Err
		}
		for i := range pr.Campaigns {
			pr.Campaigns[i].Source = DefaultSource
		}
		for i := range pr.Donations {
			pr.Donations[i].Source = DefaultSource
		}
		out.Campaigns = append(out.Campaigns, pr.Campaigns...)
		out.Donations = append(out.Donations, pr.Donations...)
		out.ParseErrors += pr.ParseErrors
	}
	return out, nil
}

// WriteDefaults copies the built-in fixtures into dir. Existing files are left
// alone unless overwrite is set. It returns the paths written.
func WriteDefaults(dir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	entries, err := fs.ReadDir(defaultFixtures, "fixtures")
	if err != nil {
		return nil, fmt.Errorf("reading built-in fixtures: %w", err)
	}

	var written []string
	for _, e := range entries {
		dst := filepath.Join(dir, e.Name())
		if !overwrite {
			if _, err := os.Stat(dst); err == nil {
				continue
			}
		}
		data, err := defaultFixtures.ReadFile("fixtures/" + e.Name())
		if err != nil {
			return written, fmt.Errorf("reading built-in %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil { //nolint:gosec // fixtures are not secret
			return written, fmt.Errorf("writing %s: %w", dst, err)
		}
		written = append(written, dst)
	}
	return written, nil
}

// EncodeCampaigns renders campaigns as an indented JSON array.
func EncodeCampaigns(campaigns []model.Campaign) ([]byte, error) {
	records := make([]CampaignRecord, 0, len(campaigns))
	for _, c := range campaigns {
		records = append(records, CampaignRecordFrom(c))
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding campaigns: %w", err)
	}
	return append(data, '\n'), nil
}

// EncodeDonationsJSONL renders donations one JSON object per line.
func EncodeDonationsJSONL(donations []model.Donation) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range donations {
		if err := enc.Encode(DonationRecordFrom(d)); err != nil {
			return nil, fmt.Errorf("encoding donation %s: %w", d.ID, err)
		}
	}
	return buf.Bytes(), nil
}

// WriteFileAtomic writes data to path through a temp file and rename.
func WriteFileAtomic(path string, data []byte) error {
	return WriteFilesAtomic([]FileWrite{{Path: path, Data: data}})
}

// FileWrite is one file in a WriteFilesAtomic batch.
type FileWrite struct {
	Path string
	Data []byte
}

// WriteFilesAtomic stages every file in a temp file beside its target and
// renames them into place only once all of them are written. A failed batch
// leaves every target untouched unless a rename itself fails.
func WriteFilesAtomic(files []FileWrite) error {
	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, name := range staged {
			_ = os.Remove(name)
		}
	}

	for _, f := range files {
		name, err := stageTemp(f.Path, f.Data)
		if err != nil {
			cleanup()
			return fmt.Errorf("staging %s: %w", f.Path, err)
		}
		staged = append(staged, name)
	}

	for i, f := range files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			staged = staged[i:]
			cleanup()
			return fmt.Errorf("renaming %s into place: %w", f.Path, err)
		}
	}
	return nil
}

func stageTemp(path string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".kanyini-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return tmpName, nil
}
