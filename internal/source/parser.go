// Package source discovers and parses campaign and donation fixture files.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kanyini-os/kanyini/internal/model"
)

// ParseResult holds the output of parsing a single fixture file.
type ParseResult struct {
	Path        string
	Campaigns   []model.Campaign
	Donations   []model.Donation
	ParseErrors int
	Err         error
}

// ParseFile reads a fixture file according to its kind.
// Bad records are counted in ParseErrors and skipped; Err is set only when the
// file as a whole could not be read or decoded.
func ParseFile(df DiscoveredFile) ParseResult {
	if df.Kind == KindDonationsJSONL {
		return parseDonationsJSONL(df)
	}

	data, err := os.ReadFile(df.Path)
	if err != nil {
		return ParseResult{Path: df.Path, Err: err}
	}
	pr := ParseBytes(df.Kind, sourceName(df), data)
	pr.Path = df.Path
	return pr
}

// ParseBytes decodes fixture content that is already in memory.
// name is recorded as the Source of each record; it also picks YAML vs JSON for campaigns.
func ParseBytes(kind FileKind, name string, data []byte) ParseResult {
	switch kind {
	case KindCampaigns:
		return parseCampaigns(name, data)
	case KindDonationsJSON:
		return parseDonationsJSON(name, data)
	case KindDonationsJSONL:
		return scanDonationLines(name, bytes.NewReader(data))
	default:
		return ParseResult{Err: fmt.Errorf("%s: unsupported fixture kind", name)}
	}
}

func parseCampaigns(name string, data []byte) ParseResult {
	var records []CampaignRecord
	var err error

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return ParseResult{Err: fmt.Errorf("decoding %s: %w", name, err)}
	}

	var pr ParseResult
	for _, r := range records {
		c, err := r.ToModel(name)
		if err != nil || c.ID == "" {
			pr.ParseErrors++
			continue
		}
		pr.Campaigns = append(pr.Campaigns, c)
	}
	return pr
}

func parseDonationsJSON(name string, data []byte) ParseResult {
	var records []DonationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return ParseResult{Err: fmt.Errorf("decoding %s: %w", name, err)}
	}

	var pr ParseResult
	for _, r := range records {
		if d, ok := donationFromRecord(r, name); ok {
			pr.Donations = append(pr.Donations, d)
		} else {
			pr.ParseErrors++
		}
	}
	return pr
}

func parseDonationsJSONL(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Path: df.Path, Err: err}
	}
	defer func() { _ = f.Close() }()

	pr := scanDonationLines(sourceName(df), f)
	pr.Path = df.Path
	return pr
}

// scanDonationLines reads one donation per line. Blank lines and lines starting
// with '#' are ignored; anything else that fails to decode is a parse error.
func scanDonationLines(name string, r io.Reader) ParseResult {
	var pr ParseResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		var rec DonationRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			pr.ParseErrors++
			continue
		}
		d, ok := donationFromRecord(rec, name)
		if !ok {
			pr.ParseErrors++
			continue
		}
		pr.Donations = append(pr.Donations, d)
	}

	if err := scanner.Err(); err != nil {
		pr.Err = fmt.Errorf("reading %s: %w", name, err)
	}
	return pr
}

func donationFromRecord(r DonationRecord, name string) (model.Donation, bool) {
	if r.ID == "" {
		return model.Donation{}, false
	}
	d, err := r.ToModel(name)
	if err != nil {
		return model.Donation{}, false
	}
	return d, true
}

func sourceName(df DiscoveredFile) string {
	if df.Name != "" {
		return df.Name
	}
	return filepath.Base(df.Path)
}
