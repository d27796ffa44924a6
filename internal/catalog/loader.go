// internal/catalog/loader.go
//
// Flat-file loader for the property catalog.
//
// File format:
//   Address, Notes, Pictures, ContractPrice, ARV, Repairs, MAO, LAO
//   "274 Kenwood Ave, Delmar, NY, 12054",No notes,https://...,105000,150000,15000,105000,73500
//
// Rules:
//   • The first line is a header and is skipped.
//   • Quoted fields may contain commas; the quotes are stripped.
//   • Rows with fewer than 8 fields are dropped silently.
//   • ContractPrice defaults to 0 when it does not parse.
//   • ARV/Repairs/MAO/LAO must parse as non-negative numbers, otherwise the row
//     is rejected and reported. Ground truth is never defaulted.
//   • If the file cannot be read at all, the embedded sample catalog is used.

package catalog

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const fieldCount = 8

const (
	colAddress = iota
	colNotes
	colPictures
	colContractPrice
	colARV
	colRepairs
	colMAO
	colLAO
)

// --- embedded sample (keeps the service usable when no file is configured) ---

//go:embed default_properties.csv
var embeddedSample string

// SourceEmbedded is the Report.Source of the built-in sample catalog.
const SourceEmbedded = "embedded"

// Load reads the catalog at path.
// It never fails: an unreadable file yields the embedded sample with
// Report.Fallback set.
func Load(path string) (*Catalog, Report) {
	f, err := os.Open(path)
	if err != nil {
		// *PathError already names the file
		return fallback(fmt.Errorf("open catalog: %w", err))
	}
	defer f.Close()

	records, rep, err := Parse(f)
	if err != nil {
		return fallback(fmt.Errorf("read catalog: %w", err))
	}
	rep.Source = path
	logReport(rep)
	return New(records), rep
}

// Sample returns the embedded one-property catalog.
func Sample() *Catalog {
	records, _, err := Parse(strings.NewReader(embeddedSample))
	if err != nil {
		// The embedded file is part of the binary; failing here is a build defect.
		panic(fmt.Sprintf("catalog: embedded sample: %v", err))
	}
	return New(records)
}

func fallback(cause error) (*Catalog, Report) {
	c := Sample()
	rep := Report{Source: SourceEmbedded, Loaded: c.Len(), Fallback: true, Cause: cause}
	log.Warn().Err(cause).Int("properties", c.Len()).Msg("catalog unreadable, using embedded sample")
	return c, rep
}

func logReport(rep Report) {
	for _, re := range rep.Rejected {
		log.Warn().
			Str("source", rep.Source).
			Int("line", re.Line).
			Str("field", re.Field).
			Str("value", re.Value).
			Msg("catalog row rejected: " + re.Reason)
	}
	log.Info().
		Str("source", rep.Source).
		Int("loaded", rep.Loaded).
		Int("skipped", rep.Skipped).
		Int("rejected", len(rep.Rejected)).
		Msg("catalog loaded")
}

// Parse reads catalog rows from r. The returned error is only non-nil when
// the stream itself fails; bad rows are accounted for in the Report.
func Parse(r io.Reader) ([]PropertyRecord, Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var (
		out    []PropertyRecord
		rep    Report
		header = true
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				rep.Skipped++
				continue
			}
			return nil, rep, err
		}
		if header {
			header = false
			continue
		}
		line, _ := cr.FieldPos(0)

		if len(row) < fieldCount {
			rep.Skipped++
			continue
		}
		rec, rowErr := parseRow(row, line)
		if rowErr != nil {
			rep.Rejected = append(rep.Rejected, *rowErr)
			continue
		}
		out = append(out, rec)
	}
	rep.Loaded = len(out)
	return out, rep, nil
}

// parseRow converts one full-width row into a record.
func parseRow(row []string, line int) (PropertyRecord, *RowError) {
	rec := PropertyRecord{
		Address:     strings.TrimSpace(row[colAddress]),
		Notes:       strings.TrimSpace(row[colNotes]),
		PictureLink: strings.TrimSpace(row[colPictures]),
	}
	if v, err := ParseAmount(row[colContractPrice]); err == nil && v >= 0 {
		rec.ContractPrice = v
	}

	truth := []struct {
		name string
		dst  *float64
		col  int
	}{
		{"ARV", &rec.AfterRepairValue, colARV},
		{"Repairs", &rec.RepairCost, colRepairs},
		{"MAO", &rec.MaxAllowableOffer, colMAO},
		{"LAO", &rec.LowestAllowableOffer, colLAO},
	}
	for _, f := range truth {
		v, err := ParseAmount(row[f.col])
		if err != nil {
			return rec, &RowError{Line: line, Field: f.name, Value: row[f.col], Reason: "not a number"}
		}
		if v < 0 {
			return rec, &RowError{Line: line, Field: f.name, Value: row[f.col], Reason: "negative amount"}
		}
		*f.dst = v
	}
	return rec, nil
}

// ParseAmount accepts plain numbers as well as "$150,000"-style amounts.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, errors.New("empty")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not finite")
	}
	return v, nil
}
