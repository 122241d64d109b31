package company

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
)

// Directory is the in-memory known-company reference set. It is built once at
// process start and read-only afterwards, so it may be shared across sessions
// without synchronization.
type Directory struct {
	records []contractx.KnownCompanyRecord
	byName  map[string]contractx.KnownCompanyRecord
}

func NewDirectory(records []contractx.KnownCompanyRecord) *Directory {
	byName := make(map[string]contractx.KnownCompanyRecord, len(records))
	for _, rec := range records {
		name := strings.ToLower(strings.TrimSpace(rec.CompanyName))
		if name == "" {
			continue
		}
		byName[name] = rec
	}
	return &Directory{
		records: records,
		byName:  byName,
	}
}

// Lookup resolves a company name case-insensitively.
func (d *Directory) Lookup(companyName string) (contractx.KnownCompanyRecord, bool) {
	if d == nil {
		return contractx.KnownCompanyRecord{}, false
	}
	rec, ok := d.byName[strings.ToLower(strings.TrimSpace(companyName))]
	return rec, ok
}

// Records returns the loaded reference set in load order.
func (d *Directory) Records() []contractx.KnownCompanyRecord {
	return d.records
}

// LoadDirectoryFile reads the known-company dataset from a JSON file.
func LoadDirectoryFile(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read known companies file: %w", err)
	}

	var records []contractx.KnownCompanyRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("unmarshal known companies: %w", err)
	}
	return NewDirectory(records), nil
}

var _ contractx.Directory = (*Directory)(nil)
