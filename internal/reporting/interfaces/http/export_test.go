package http

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	reporting "site-uptime/internal/reporting/domain"
)

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "json": FormatJSON, " xlsx ": FormatXLSX, "pdf": FormatPDF} {
		got, err := ParseFormat(raw)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFormat("html")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestBuildReportCSV_EmptyHasHeader(t *testing.T) {
	payload, err := BuildReportCSV(nil)
	require.NoError(t, err)
	require.Equal(t, "store_id,uptime_last_hour,uptime_last_day,uptime_last_week,downtime_last_hour,downtime_last_day,downtime_last_week\n", string(payload))
}

func TestBuildReportXLSX_Cells(t *testing.T) {
	payload, err := BuildReportXLSX(completeJob())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("stores", "A1")
	require.NoError(t, err)
	require.Equal(t, "store_id", header)
	site, err := f.GetCellValue("stores", "A3")
	require.NoError(t, err)
	require.Equal(t, "b", site)
	downtime, err := f.GetCellValue("stores", "F3")
	require.NoError(t, err)
	require.Equal(t, "0.5", downtime)
	count, err := f.GetCellValue("summary", "B6")
	require.NoError(t, err)
	require.Equal(t, "2", count)
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := Encode(Format("html"), reporting.Job{})
	require.ErrorIs(t, err, ErrUnknownFormat)
}
