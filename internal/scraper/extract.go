package scraper

import (
	"fmt"
	"statcrawl/internal/assert"
	"statcrawl/lib/htmlutil"
	"statcrawl/lib/telemetry"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_extractor_parse = "extractor.parse"
	report_extractor_row   = "extractor.row"
)

// RecordTable is a results container seen as a header row plus data rows.
type RecordTable interface {
	// Header returns the header cell texts, ok is false when there is no header row.
	Header() (cells []string, ok bool)
	Len() int
	// Row returns the value cell texts of the i-th data row.
	Row(i int) ([]string, error)
}

type markupTable struct {
	header    []string
	hasHeader bool
	rows      []*goquery.Selection
	cell      string
}

func (t markupTable) Header() ([]string, bool) {
	return t.header, t.hasHeader
}

func (t markupTable) Len() int {
	return len(t.rows)
}

func (t markupTable) Row(i int) ([]string, error) {
	return htmlutil.Texts(t.rows[i].Find(t.cell)), nil
}

// Extractor turns a results container into records.
type Extractor struct {
	layout Layout
	tel    telemetry.API
}

func NewExtractor(layout Layout, tel telemetry.API) Extractor {
	assert.NotNil(tel)
	assert.NotEmptyStr(layout.RecordRow)
	assert.NotEmptyStr(layout.RecordCell)

	return Extractor{
		layout: layout,
		tel:    telemetry.NewScopedAPI("extractor", tel),
	}
}

// Table parses container markup. A missing record root yields an empty table without
// a header rather than an error.
func (e Extractor) Table(markup string) (RecordTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse container markup: %w", err)
	}

	root := doc.Selection
	if e.layout.RecordRoot != "" {
		root = doc.Find(e.layout.RecordRoot).First()
	}
	table := markupTable{cell: e.layout.RecordCell}
	if root.Length() == 0 {
		return table, nil
	}

	var header *goquery.Selection
	if e.layout.HeaderRow != "" {
		header = root.Find(e.layout.HeaderRow).First()
	}
	if header != nil && header.Length() > 0 {
		table.header = htmlutil.Texts(header.Find(e.layout.RecordCell))
		table.hasHeader = true
	}

	root.Find(e.layout.RecordRow).Each(func(_ int, row *goquery.Selection) {
		if table.hasHeader && row.IsSelection(header) {
			return
		}
		table.rows = append(table.rows, row)
	})
	return table, nil
}

// Extract zips every data row with the header. Rows whose value count differs from the
// header count, empty rows and rows that went stale are skipped and returned as warnings.
func (e Extractor) Extract(table RecordTable) ([]StatRecord, []error) {
	header, ok := table.Header()
	if !ok {
		e.tel.ReportWarning(report_extractor_parse, fmt.Errorf("no header row"))
	}

	var records []StatRecord
	var warnings []error
	for i := 0; i < table.Len(); i++ {
		cells, err := table.Row(i)
		// a row that went stale mid-read is skipped, the rest of the table is still read
		if err != nil {
			err = fmt.Errorf("row %d: %w", i, err)
			e.tel.ReportWarning(report_extractor_row, err)
			warnings = append(warnings, err)
			continue
		}
		if len(cells) == 0 {
			continue
		}
		if len(cells) != len(header) {
			err := fmt.Errorf("row %d: %w: %d values, %d headers", i, ErrShapeMismatch, len(cells), len(header))
			e.tel.ReportWarning(report_extractor_row, err, cells)
			warnings = append(warnings, err)
			continue
		}

		record := make(StatRecord, len(header))
		for j, name := range header {
			record[j] = Field{Name: name, Value: cells[j]}
		}
		records = append(records, record)
	}
	return records, warnings
}

// ExtractMarkup is Table followed by Extract, unparseable markup yields no records.
func (e Extractor) ExtractMarkup(markup string) ([]StatRecord, []error) {
	table, err := e.Table(markup)
	if err != nil {
		e.tel.ReportWarning(report_extractor_parse, err)
		return nil, []error{err}
	}
	return e.Extract(table)
}
