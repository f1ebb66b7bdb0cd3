package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir walks the data directory and discovers campaign and donation fixture files.
// A missing directory yields no files and no error. Hidden directories are skipped.
func ScanDir(dataDir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(dataDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			if path != dataDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		kind := ClassifyName(d.Name())
		if kind == KindUnknown {
			return nil
		}
		files = append(files, DiscoveredFile{
			Path: path,
			Name: d.Name(),
			Kind: kind,
		})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

// ClassifyName maps a file name to its fixture kind.
//
//	campaigns.json, campaigns-2026.yaml -> KindCampaigns
//	donations.jsonl                     -> KindDonationsJSONL
//	donations-march.json                -> KindDonationsJSON
func ClassifyName(name string) FileKind {
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)

	switch {
	case strings.HasPrefix(lower, "campaigns"):
		switch ext {
		case ".json", ".yaml", ".yml":
			return KindCampaigns
		}
	case strings.HasPrefix(lower, "donations"):
		switch ext {
		case ".jsonl":
			return KindDonationsJSONL
		case ".json":
			return KindDonationsJSON
		}
	}
	return KindUnknown
}

// CountKinds returns how many campaign and donation files were discovered.
func CountKinds(files []DiscoveredFile) (campaigns, donations int) {
	for _, f := range files {
		if f.Kind == KindCampaigns {
			campaigns++
		} else {
			donations++
		}
	}
	return campaigns, donations
}
