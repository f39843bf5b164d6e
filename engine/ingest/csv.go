// Package ingest loads car CSV data into the vector store. Both indexers
// consume the same CSV shape (car_label, car_info, car_type, fuel_type,
// image_url) and run each row through an fn.Stage pipeline; a bad row is
// skipped with a diagnostic, never aborting the batch.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/akashAD98/Car-ai-multimodal-search/engine/domain"
)

// csvColumns are the required header names.
var csvColumns = []string{"car_label", "car_info", "car_type", "fuel_type", "image_url"}

// ReadRows parses the input CSV. The image_url column holds a
// comma-separated list; entries are trimmed and empty ones dropped, so a row
// can legitimately come back with zero URLs (the indexer decides to skip it).
func ReadRows(path string) ([]domain.CSVRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open csv: %w", err)
	}
	defer f.Close()
	return parseRows(f)
}

func parseRows(r io.Reader) ([]domain.CSVRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range csvColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("ingest: csv missing column %q", col)
		}
	}

	var rows []domain.CSVRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: read csv row: %w", err)
		}
		rows = append(rows, domain.CSVRow{
			Label:     strings.TrimSpace(rec[idx["car_label"]]),
			CarInfo:   strings.TrimSpace(rec[idx["car_info"]]),
			CarType:   strings.TrimSpace(rec[idx["car_type"]]),
			FuelType:  strings.TrimSpace(rec[idx["fuel_type"]]),
			ImageURLs: SplitURLList(rec[idx["image_url"]]),
		})
	}
	return rows, nil
}

// SplitURLList splits a comma-separated image_url value, trimming each entry
// and dropping blanks.
func SplitURLList(raw string) []string {
	var urls []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}
