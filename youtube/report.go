package youtube

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type ReportFormat string

const (
	ReportCSV  ReportFormat = "csv"
	ReportXLSX ReportFormat = "xlsx"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

var reportHeader = []string{"URL", "status", "title", "error"}

func statusLabel(succeeded bool) string {
	if succeeded {
		return statusSuccess
	}
	return statusFailed
}

// WriteResults writes the download report into dir, one row per
// outcome in the order they completed.
func WriteResults(results []Outcome, dir string, format ReportFormat) error {
	var path string
	var err error
	switch format {
	case ReportXLSX:
		path = filepath.Join(dir, "download_results.xlsx")
		err = writeResultsXLSX(results, path)
	default:
		path = filepath.Join(dir, "download_results.csv")
		err = writeResultsCSV(results, path)
	}
	if err != nil {
		return err
	}
	zap.S().Infof("Results saved to %s", path)
	return nil
}

func writeResultsCSV(results []Outcome, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	err = w.Write(reportHeader)
	if err != nil {
		return err
	}
	for _, r := range results {
		err = w.Write([]string{r.URL, statusLabel(r.Succeeded), r.Title, r.Err})
		if err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeResultsXLSX(results []Outcome, path string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	row := []interface{}{reportHeader[0], reportHeader[1], reportHeader[2], reportHeader[3]}
	err := f.SetSheetRow(sheet, "A1", &row)
	if err != nil {
		return err
	}
	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.URL, statusLabel(r.Succeeded), r.Title, r.Err}
		err = f.SetSheetRow(sheet, cell, &row)
		if err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
