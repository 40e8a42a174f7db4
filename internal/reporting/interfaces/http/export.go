package http

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	reporting "site-uptime/internal/reporting/domain"
)

// Format is a report payload encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var ErrUnknownFormat = errors.New("report export: unknown format")

// ParseFormat maps a query value to a Format; empty selects CSV.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, value)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Encode renders a completed job in format f.
func Encode(f Format, job reporting.Job) ([]byte, error) {
	switch f {
	case FormatCSV:
		return BuildReportCSV(job.Rows)
	case FormatJSON:
		return BuildReportJSON(job)
	case FormatXLSX:
		return BuildReportXLSX(job)
	case FormatPDF:
		return BuildReportPDF(job)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// BuildReportCSV renders the row table with a header line.
func BuildReportCSV(rows []reporting.Row) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(reporting.Columns); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := make([]string, 0, len(reporting.Columns))
		record = append(record, row.SiteID)
		for _, value := range row.Values() {
			record = append(record, strconv.FormatFloat(value, 'f', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jsonReport struct {
	ReportID    string          `json:"report_id"`
	Status      string          `json:"status"`
	AnchorAt    time.Time       `json:"anchor_at"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Rows        []reporting.Row `json:"rows"`
}

// BuildReportJSON renders the job with its rows.
func BuildReportJSON(job reporting.Job) ([]byte, error) {
	rows := job.Rows
	if rows == nil {
		rows = []reporting.Row{}
	}
	return json.Marshal(jsonReport{
		ReportID:    job.ID,
		Status:      string(job.State),
		AnchorAt:    job.AnchorAt,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
		Rows:        rows,
	})
}

// BuildReportXLSX renders a summary sheet and a rows sheet.
func BuildReportXLSX(job reporting.Job) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	rowsSheet := "stores"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(rowsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Store Uptime Report")
	_ = f.SetCellValue(summarySheet, "A3", "Report")
	_ = f.SetCellValue(summarySheet, "B3", job.ID)
	_ = f.SetCellValue(summarySheet, "A4", "Anchor (UTC)")
	_ = f.SetCellValue(summarySheet, "B4", job.AnchorAt.UTC().Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A5", "Completed")
	_ = f.SetCellValue(summarySheet, "B5", job.CompletedAt.UTC().Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A6", "Stores")
	_ = f.SetCellValue(summarySheet, "B6", len(job.Rows))

	for i, name := range reporting.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(rowsSheet, cell, name)
	}
	for r, row := range job.Rows {
		line := r + 2
		_ = f.SetCellValue(rowsSheet, fmt.Sprintf("A%d", line), row.SiteID)
		for c, value := range row.Values() {
			cell, err := excelize.CoordinatesToCellName(c+2, line)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(rowsSheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportPDF renders the row table on landscape A4 pages.
func BuildReportPDF(job reporting.Job) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Store Uptime Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Report: %s", job.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Anchor (UTC): %s", job.AnchorAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Stores: %d", len(job.Rows)))
	pdf.Ln(8)

	widths := []float64{75, 33, 33, 33, 33, 33, 33}
	pdf.SetFont("Arial", "B", 8)
	for i, name := range reporting.Columns {
		pdf.CellFormat(widths[i], 6, name, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	for _, row := range job.Rows {
		pdf.CellFormat(widths[0], 6, row.SiteID, "1", 0, "L", false, 0, "")
		for i, value := range row.Values() {
			pdf.CellFormat(widths[i+1], 6, fmt.Sprintf("%.3f", value), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
