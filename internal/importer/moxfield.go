// Package importer reads collection exports into owned cards.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danethurber/ponderous/internal/collection"
)

// SourceMoxfield tags rows imported from a Moxfield export.
const SourceMoxfield = "moxfield"

// Moxfield export columns.
const (
	colCount         = "count"
	colName          = "name"
	colEdition       = "edition"
	colFoil          = "foil"
	colCondition     = "condition"
	colLanguage      = "language"
	colTag           = "tag"
	colTags          = "tags"
	colPurchasePrice = "purchase price"
)

var requiredColumns = []string{colCount, colName, colEdition}

// ErrNoCards means the file parsed but held no importable rows.
var ErrNoCards = errors.New("no valid cards found")

// RowError is a rejected row.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Row is one accepted export row.
type Row struct {
	Line      int
	Name      string
	Edition   string
	Count     int
	Foil      bool
	Condition string
	Language  string
	Tags      []string
	Price     *float64
}

// Result is a parsed export.
type Result struct {
	Rows      []Row
	Errors    []RowError
	Processed int
}

// Cards converts accepted rows to owned cards, one entry per row. Foil
// rows count toward FoilQuantity.
func (r *Result) Cards() []collection.OwnedCard {
	cards := make([]collection.OwnedCard, 0, len(r.Rows))
	for _, row := range r.Rows {
		card := collection.OwnedCard{Name: row.Name, UnitPrice: row.Price}
		if row.Foil {
			card.FoilQuantity = row.Count
		} else {
			card.Quantity = row.Count
		}
		cards = append(cards, card)
	}
	return cards
}

// MoxfieldImporter parses Moxfield collection CSV exports.
type MoxfieldImporter struct {
	logger zerolog.Logger
}

// NewMoxfieldImporter creates an importer. A nil logger discards output.
func NewMoxfieldImporter(logger *zerolog.Logger) *MoxfieldImporter {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &MoxfieldImporter{logger: l.With().Str("component", "importer").Logger()}
}

// ParseFile parses the export at path.
func (m *MoxfieldImporter) ParseFile(path string) (*Result, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return nil, fmt.Errorf("unsupported file format %q: expected .csv", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection file: %w", err)
	}
	defer func() { _ = f.Close() }()

	res, err := m.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return res, nil
}

// Parse reads an export. A missing required column fails the whole parse;
// a bad row is recorded with its line number and skipped.
func (m *MoxfieldImporter) Parse(r io.Reader) (*Result, error) {
	br := bufio.NewReader(r)
	delim, err := sniffDelimiter(br)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = delim != '\t'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("CSV file has no headers")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := indexColumns(header)
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, displayColumn(c))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	res := &Result{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.StartLine
			}
			res.Processed++
			res.Errors = append(res.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		if isBlank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		res.Processed++
		row, err := parseRow(record, cols)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: line, Message: err.Error()})
			m.logger.Debug().Int("line", line).Err(err).Msg("Skipping invalid row")
			continue
		}
		row.Line = line
		res.Rows = append(res.Rows, row)
	}

	m.logger.Info().Int("rows", len(res.Rows)).Int("rejected", len(res.Errors)).Msg("Parsed Moxfield export")

	if len(res.Rows) == 0 {
		return res, ErrNoCards
	}
	return res, nil
}

// sniffDelimiter picks comma, semicolon or tab from the header line.
func sniffDelimiter(br *bufio.Reader) (rune, error) {
	peek, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}

	best, bestCount := ',', bytes.Count(peek, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(peek, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return cols
}

func displayColumn(c string) string {
	return strings.ToUpper(c[:1]) + c[1:]
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

var foilValues = map[string]bool{"foil": true, "etched": true, "true": true, "yes": true}

func parseRow(record []string, cols map[string]int) (Row, error) {
	countStr := field(record, cols, colCount)
	if countStr == "" {
		return Row{}, fmt.Errorf("count cannot be empty")
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return Row{}, fmt.Errorf("count must be an integer, got %q", countStr)
	}
	if count <= 0 {
		return Row{}, fmt.Errorf("count must be positive, got %d", count)
	}

	name := field(record, cols, colName)
	if name == "" {
		return Row{}, fmt.Errorf("name cannot be empty")
	}
	edition := field(record, cols, colEdition)
	if edition == "" {
		return Row{}, fmt.Errorf("edition cannot be empty for %q", name)
	}

	row := Row{
		Name:      name,
		Edition:   strings.ToLower(edition),
		Count:     count,
		Foil:      foilValues[strings.ToLower(field(record, cols, colFoil))],
		Condition: field(record, cols, colCondition),
		Language:  field(record, cols, colLanguage),
	}

	tags := field(record, cols, colTags)
	if tags == "" {
		tags = field(record, cols, colTag)
	}
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			row.Tags = append(row.Tags, t)
		}
	}

	if p := strings.TrimPrefix(field(record, cols, colPurchasePrice), "$"); p != "" {
		price, err := strconv.ParseFloat(p, 64)
		if err != nil || price < 0 {
			return Row{}, fmt.Errorf("purchase price must be a non-negative number, got %q", p)
		}
		row.Price = &price
	}

	return row, nil
}
