// Package importfile decodes question batches from JSON, YAML or CSV.
package importfile

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// MaxBytes bounds a single import payload.
const MaxBytes = 4 << 20

// Row is one question with its accepted answers.
type Row struct {
	Japanese    string   `json:"japanese" yaml:"japanese" validate:"notblank,max=2000"`
	Answers     []string `json:"answers" yaml:"answers" validate:"min=1,dive,notblank,max=2000"`
	Hint        string   `json:"hint,omitempty" yaml:"hint,omitempty" validate:"max=2000"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation,omitempty" validate:"max=8000"`
}

// ParseFormat accepts a format name or a MIME type.
func ParseFormat(s string) (Format, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "json", strings.Contains(s, "application/json"):
		return FormatJSON, true
	case s == "yaml", s == "yml", strings.Contains(s, "yaml"):
		return FormatYAML, true
	case s == "csv", strings.Contains(s, "text/csv"):
		return FormatCSV, true
	default:
		return "", false
	}
}

// FormatFromName guesses the format from a file extension.
func FormatFromName(name string) (Format, bool) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Decode reads rows in the given format. Structural problems are reported as
// VALIDATION_ERROR; per-row field checks are left to the importer.
func Decode(format Format, r io.Reader) ([]Row, error) {
	const op = "importfile.Decode"
	raw, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	if len(raw) > MaxBytes {
		return nil, domainagg.Validation(op, "file", fmt.Sprintf("import exceeds %d bytes", MaxBytes))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domainagg.Validation(op, "file", "import is empty")
	}

	var rows []Row
	switch format {
	case FormatJSON:
		rows, err = decodeJSON(raw)
	case FormatYAML:
		rows, err = decodeYAML(raw)
	case FormatCSV:
		rows, err = decodeCSV(raw)
	default:
		return nil, domainagg.Validation(op, "format", fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		var agg *domainagg.Error
		if errors.As(err, &agg) {
			return nil, err
		}
		return nil, domainagg.Validation(op, "file", err.Error())
	}
	return rows, nil
}

// JSON accepts either a bare array or {"rows": [...]}.
func decodeJSON(raw []byte) ([]Row, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Rows []Row `json:"rows"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Rows, nil
	}
	var rows []Row
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeYAML(raw []byte) ([]Row, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
		var wrapped struct {
			Rows []Row `yaml:"rows"`
		}
		if err := node.Decode(&wrapped); err != nil {
			return nil, err
		}
		return wrapped.Rows, nil
	}
	var rows []Row
	if err := node.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

var csvColumns = []string{"japanese", "answers", "hint", "explanation"}

// CSV columns are japanese,answers,hint,explanation; answers are separated by '|'.
// A header row naming the columns is optional and may reorder them.
func decodeCSV(raw []byte) ([]Row, error) {
	rd := csv.NewReader(bytes.NewReader(raw))
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true
	records, err := rd.ReadAll()
	if err != nil {
		return nil, err
	}

	index := map[string]int{"japanese": 0, "answers": 1, "hint": 2, "explanation": 3}
	if len(records) > 0 && isHeader(records[0]) {
		index = map[string]int{}
		for i, h := range records[0] {
			index[strings.ToLower(strings.TrimSpace(h))] = i
		}
		if _, ok := index["japanese"]; !ok {
			return nil, domainagg.Validation("importfile.Decode", "japanese", "csv header has no japanese column")
		}
		records = records[1:]
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if blankRecord(rec) {
			continue
		}
		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		rows = append(rows, Row{
			Japanese:    cell("japanese"),
			Answers:     splitAnswers(cell("answers")),
			Hint:        cell("hint"),
			Explanation: cell("explanation"),
		})
	}
	return rows, nil
}

func isHeader(rec []string) bool {
	for _, cell := range rec {
		c := strings.ToLower(strings.TrimSpace(cell))
		for _, want := range csvColumns {
			if c == want {
				return true
			}
		}
	}
	return false
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func splitAnswers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
