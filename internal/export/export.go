// Package export writes scrape results to an xlsx workbook, one sheet per player.
package export

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"statcrawl/internal/assert"
	"statcrawl/internal/scraper"
	"statcrawl/lib/telemetry"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	report_export_sheet = "export.sheet"
	report_export_write = "export.write"
)

// ErrNothingToExport is returned when there are no results, no file is written.
var ErrNothingToExport = errors.New("no results to export")

// Placeholder is the only row of a sheet for a player that yielded no records.
const Placeholder = "데이터 없음 또는 추출 실패"

// MaxSheetName is the longest sheet name a workbook accepts, in characters.
const MaxSheetName = 31

var illegalSheetChars = regexp.MustCompile(`[\\/*?:\[\]]`)

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// SanitizeSheetName replaces characters a sheet name may not contain and truncates it.
func SanitizeSheetName(name string) string {
	name = illegalSheetChars.ReplaceAllString(name, "_")
	// truncating can expose an apostrophe at the end, a sheet name may not start or end with one
	name = strings.Trim(truncate(strings.Trim(name, "'"), MaxSheetName), "'")
	if strings.TrimSpace(name) == "" {
		return "sheet"
	}
	return name
}

// sheetNamer hands out unique sheet names, names are compared case-insensitively the
// way spreadsheet applications do.
type sheetNamer struct {
	used map[string]bool
}

func (n *sheetNamer) next(key string) string {
	base := SanitizeSheetName(key)
	name := base
	for i := 2; n.used[strings.ToLower(name)]; i++ {
		suffix := "_" + strconv.Itoa(i)
		name = strings.TrimLeft(truncate(base, MaxSheetName-len(suffix)), "'") + suffix
	}
	n.used[strings.ToLower(name)] = true
	return name
}

// columns is the ordered union of the field names of every record.
func columns(records []scraper.StatRecord) []string {
	seen := map[string]bool{}
	var out []string
	for _, record := range records {
		for _, name := range record.Names() {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

type Writer struct {
	tel telemetry.API
}

func NewWriter(tel telemetry.API) Writer {
	assert.NotNil(tel)
	return Writer{tel: telemetry.NewScopedAPI("export", tel)}
}

// Workbook builds the workbook in results order. The caller closes the returned file.
func (w Writer) Workbook(results *scraper.Results) (*excelize.File, error) {
	if results == nil || results.Len() == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	namer := &sheetNamer{used: map[string]bool{}}
	defaultSheet := f.GetSheetName(0)
	for i, result := range results.All() {
		name := namer.next(result.Query.Key())
		if i == 0 {
			err = f.SetSheetName(defaultSheet, name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}

		err = w.writeSheet(f, name, result, bold)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("write sheet %q: %w", name, err)
		}
		w.tel.ReportDebug(report_export_sheet, name, result.Status.String(), len(result.Records))
	}
	f.SetActiveSheet(0)
	return f, nil
}

func (w Writer) writeSheet(f *excelize.File, sheet string, result scraper.PlayerResult, headerStyle int) error {
	if len(result.Records) == 0 {
		return f.SetCellValue(sheet, "A1", Placeholder)
	}

	header := columns(result.Records)
	err := f.SetSheetRow(sheet, "A1", &header)
	if err != nil {
		return err
	}
	err = f.SetRowStyle(sheet, 1, 1, headerStyle)
	if err != nil {
		return err
	}

	for i, record := range result.Records {
		row := make([]string, len(header))
		for j, name := range header {
			row[j], _ = record.Get(name)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		err = f.SetSheetRow(sheet, cell, &row)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes the workbook to path.
func (w Writer) WriteFile(results *scraper.Results, path string) error {
	f, err := w.Workbook(results)
	if err != nil {
		return err
	}
	defer f.Close()

	err = f.SaveAs(path)
	if err != nil {
		w.tel.ReportBroken(report_export_write, err, path)
		return fmt.Errorf("save %s: %w", path, err)
	}
	w.tel.ReportDebug(report_export_write, path, len(f.GetSheetList()))
	return nil
}

// WriteTo streams the workbook to out.
func (w Writer) WriteTo(results *scraper.Results, out io.Writer) error {
	f, err := w.Workbook(results)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(out)
}
