package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	kerrors "github.com/heinergc/sqlconn/internal/errors"
	"github.com/heinergc/sqlconn/internal/profiles"

	"github.com/xuri/excelize/v2"
)

const (
	ConnectionsSheet = "Connections"
	StatisticsSheet  = "Statistics"

	timeLayout = "2006-01-02 15:04:05"
)

var headers = []string{
	"ID",
	"Name",
	"Server",
	"Database",
	"Username",
	"Authentication",
	"Last Result",
	"Response (ms)",
	"Server Version",
	"Created",
	"Last Tested",
	"Message",
	"Connection Timeout (s)",
	"Command Timeout (s)",
	"Provider",
}

// Result cell texts.
const (
	ResultOK        = "OK"
	ResultFailed    = "FAILED"
	ResultNotTested = "NOT TESTED"
)

// FileName returns the timestamped report file name for now.
func FileName(now time.Time) string {
	return fmt.Sprintf("sqlconn_report_%s.xlsx", now.Format("20060102_150405"))
}

// Export writes a report for list into dir and returns its path.
func Export(dir string, list []profiles.Profile, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrReportFailed, err)
	}
	path := filepath.Join(dir, FileName(now))
	if err := Write(path, list, now); err != nil {
		return "", err
	}
	return path, nil
}

// Write builds the workbook for list and saves it at path.
func Write(path string, list []profiles.Profile, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := build(f, list, generatedAt); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrReportFailed, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrReportFailed, err)
	}
	return nil
}

type styles struct {
	header, ok, failed, millis, title int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error

	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00008B"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, err
	}
	if s.ok, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"90EE90"}},
	}); err != nil {
		return s, err
	}
	if s.failed, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F08080"}},
	}); err != nil {
		return s, err
	}
	// Built-in format 4 is #,##0.00.
	if s.millis, err = f.NewStyle(&excelize.Style{NumFmt: 4}); err != nil {
		return s, err
	}
	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00008B"}},
	}); err != nil {
		return s, err
	}
	return s, nil
}

func build(f *excelize.File, list []profiles.Profile, generatedAt time.Time) error {
	st, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", ConnectionsSheet); err != nil {
		return err
	}
	if err := writeConnections(f, st, list); err != nil {
		return err
	}

	if _, err := f.NewSheet(StatisticsSheet); err != nil {
		return err
	}
	return writeStatistics(f, st, ComputeStats(list), generatedAt)
}

func writeConnections(f *excelize.File, st styles, list []profiles.Profile) error {
	for i, h := range headers {
		if err := setCell(f, ConnectionsSheet, i+1, 1, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(ConnectionsSheet, "A1", last, st.header); err != nil {
		return err
	}

	for i, p := range list {
		row := i + 2
		values := rowValues(p)
		for col, v := range values {
			if err := setCell(f, ConnectionsSheet, col+1, row, v); err != nil {
				return err
			}
		}

		resultCell, _ := excelize.CoordinatesToCellName(7, row)
		if p.LastTestResult != nil {
			style := st.failed
			if p.LastTestResult.IsSuccessful {
				style = st.ok
			}
			if err := f.SetCellStyle(ConnectionsSheet, resultCell, resultCell, style); err != nil {
				return err
			}
		}
		msCell, _ := excelize.CoordinatesToCellName(8, row)
		if err := f.SetCellStyle(ConnectionsSheet, msCell, msCell, st.millis); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(ConnectionsSheet, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(ConnectionsSheet, "B", "H", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(ConnectionsSheet, "I", "L", 32); err != nil {
		return err
	}
	return f.SetColWidth(ConnectionsSheet, "M", "O", 14)
}

func rowValues(p profiles.Profile) []any {
	auth := "SQL Server"
	if p.IntegratedSecurity {
		auth = "Integrated"
	}

	result, millis, version, message := ResultNotTested, 0.0, "N/A", "Not tested yet"
	if o := p.LastTestResult; o != nil {
		result = ResultFailed
		if o.IsSuccessful {
			result = ResultOK
		}
		millis = float64(o.Elapsed()) / float64(time.Millisecond)
		if o.ServerVersion != "" {
			version = o.ServerVersion
		}
		message = o.Message
	}

	lastTested := "Never"
	if p.LastTested != nil {
		lastTested = p.LastTested.Format(timeLayout)
	}

	return []any{
		p.ID,
		p.Name,
		p.Server,
		p.Database,
		p.Username,
		auth,
		result,
		millis,
		version,
		p.CreatedAt.Format(timeLayout),
		lastTested,
		message,
		p.ConnectionTimeout,
		p.CommandTimeout,
		string(p.EffectiveProvider()),
	}
}

func writeStatistics(f *excelize.File, st styles, s Stats, generatedAt time.Time) error {
	sheet := StatisticsSheet
	rows := [][2]any{
		{"CONNECTION STATISTICS", nil},
		{"Generated at: " + generatedAt.Format(timeLayout), nil},
		{nil, nil},
		{"Total connections", s.Total},
		{"SQL authentication", s.SQLAuth},
		{"Integrated authentication", s.Integrated},
		{nil, nil},
		{"TEST RESULTS", nil},
		{"Tested connections", s.Tested},
		{"Successful tests", s.Succeeded},
		{"Failed tests", s.Failed},
	}
	if s.Tested > 0 {
		rows = append(rows, [2]any{"Success rate", fmt.Sprintf("%.1f%%", s.SuccessRate)})
	}
	if s.HasAverage {
		rows = append(rows, [2]any{"Average response time", fmt.Sprintf("%.2f ms", float64(s.AverageResponse)/float64(time.Millisecond))})
	}

	for i, r := range rows {
		for j, v := range r {
			if v == nil {
				continue
			}
			if err := setCell(f, sheet, j+1, i+1, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetCellStyle(sheet, "A1", "B1", st.title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B10", "B10", st.ok); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B11", "B11", st.failed); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "B", 30)
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, v)
}
