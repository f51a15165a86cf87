package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/taxdeedflow/comps-cli/internal/model"
	"github.com/taxdeedflow/comps-cli/internal/valuation"
)

// Format is a payload encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat infers the encoding from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
}

// Decode reads a JSON or YAML document into v. JSON rejects unknown fields.
func Decode(r io.Reader, format Format, v any) error {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return eris.Wrap(err, "ingest: decode json")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && err != io.EOF {
			return eris.Wrap(err, "ingest: decode yaml")
		}
	default:
		return eris.Errorf("ingest: cannot decode %s documents", format)
	}
	return nil
}

// DecodeFile decodes a JSON or YAML file chosen by extension.
func DecodeFile(path string, v any) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrap(err, "ingest: read file")
	}
	return Decode(bytes.NewReader(data), format, v)
}

// ReadAnalyzeRequest decodes a {subject, candidates, options} document.
func ReadAnalyzeRequest(path string) (valuation.AnalyzeRequest, error) {
	var req valuation.AnalyzeRequest
	if err := DecodeFile(path, &req); err != nil {
		return req, err
	}
	return req, nil
}

// ReadBidInput decodes a bid recommendation input document.
func ReadBidInput(path string) (model.BidRecommendationInput, error) {
	var in model.BidRecommendationInput
	if err := DecodeFile(path, &in); err != nil {
		return in, err
	}
	return in, nil
}

// Batch is a list of properties evaluated together.
type Batch struct {
	Properties []valuation.PropertyRequest `json:"properties" yaml:"properties"`
}

// ReadBatch decodes a batch document.
func ReadBatch(path string) (Batch, error) {
	var b Batch
	if err := DecodeFile(path, &b); err != nil {
		return b, err
	}
	if len(b.Properties) == 0 {
		return b, eris.Errorf("ingest: batch %s has no properties", path)
	}
	return b, nil
}

// FileOptions tunes ReadCandidatesFile for the tabular formats.
type FileOptions struct {
	Charset string      // CSV source encoding; empty means UTF-8
	Sheet   XLSXOptions // XLSX sheet selection
}

// ReadCandidatesFile reads comparables from a CSV, XLSX, JSON, or YAML file.
// JSON and YAML files hold a bare list of comparables.
func ReadCandidatesFile(ctx context.Context, path string, opts FileOptions) ([]model.Comparable, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return ReadCandidatesCSVFile(ctx, path, opts.Charset)
	case FormatXLSX:
		return ReadCandidatesXLSX(path, opts.Sheet)
	default:
		var comps []model.Comparable
		if err := DecodeFile(path, &comps); err != nil {
			return nil, err
		}
		return comps, nil
	}
}
