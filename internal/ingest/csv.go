package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

// ReadCandidatesCSV parses a headered CSV of comparables.
func ReadCandidatesCSV(ctx context.Context, r io.Reader) ([]model.Comparable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("ingest: csv: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: csv: read header")
	}

	var rows [][]string
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "ingest: csv: context cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: csv: read row")
		}
		rows = append(rows, record)
	}

	comps, err := mapRows(header, rows, 2)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: csv")
	}
	return comps, nil
}

// ReadCandidatesCSVFile opens path and parses it with ReadCandidatesCSV.
// County exports are often Windows-1252; charset names any WHATWG encoding
// label and is decoded to UTF-8 first. Empty means UTF-8.
func ReadCandidatesCSVFile(ctx context.Context, path, charset string) ([]model.Comparable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: csv: open file")
	}
	defer f.Close() //nolint:errcheck

	r, err := charsetReader(charset, f)
	if err != nil {
		return nil, err
	}
	return ReadCandidatesCSV(ctx, r)
}

// charsetReader wraps r with a decoder from charset to UTF-8.
func charsetReader(charset string, r io.Reader) (io.Reader, error) {
	if charset == "" {
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: csv: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}
