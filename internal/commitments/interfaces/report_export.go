package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	commitments "energy-commitments/internal/commitments/domain"
	"energy-commitments/internal/observability/metrics"
)

// Export formats.
const (
	FormatPDF  = "pdf"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ReportColumns are the output columns shared by the CSV and XLSX exports.
var ReportColumns = []string{
	"anio",
	"mes",
	"dia",
	"CodigoPlanta",
	"consolidado_planta",
	"Compromisos_MCOP",
	"Operacion",
}

type pdfColumn struct {
	title string
	width float64
	align string
}

var pdfColumns = []pdfColumn{
	{"Año", 20, "C"},
	{"Mes", 20, "C"},
	{"Día", 20, "C"},
	{"Co Planta", 25, "C"},
	{"Consolidado Planta", 40, "C"},
	{"Compromisos MCOP", 40, "C"},
	{"Operación", 25, "C"},
}

// BuildReport renders rows in the given format.
func BuildReport(format string, date time.Time, rows []commitments.CommitmentRow) ([]byte, error) {
	switch format {
	case FormatPDF:
		return BuildReportPDF(date, rows)
	case FormatCSV:
		return BuildReportCSV(rows)
	case FormatXLSX:
		return BuildReportXLSX(date, rows)
	default:
		return nil, fmt.Errorf("report export: unsupported format %q", format)
	}
}

// ContentType returns the media type for an export format.
func ContentType(format string) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// FileName returns the attachment name for a report.
func FileName(format string, date time.Time) string {
	return fmt.Sprintf("Reporte_%s.%s", date.Format(commitments.DateLayout), format)
}

// BuildReportPDF renders the commitment report. Buy rows are highlighted.
func BuildReportPDF(date time.Time, rows []commitments.CommitmentRow) (out []byte, err error) {
	start := time.Now()
	defer func() { observeExport(FormatPDF, start, err) }()

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.CellFormat(0, 10, tr("Informe de Compromisos de Energía"), "", 1, "C", false, 0, "")
	pdf.Ln(6)
	pdf.MultiCell(0, 7, tr("Este informe resume los compromisos de energía por planta, con el consolidado de la planta y el compromiso en moneda para la fecha de reporte."), "", "L", false)
	pdf.Ln(4)
	pdf.CellFormat(0, 8, fmt.Sprintf("Fecha del Informe: %s", date.Format(commitments.DateLayout)), "", 1, "L", false, 0, "")

	buys, sells := commitments.CountOperations(rows)
	pdf.Ln(4)
	pdf.CellFormat(0, 8, "Resumen de Datos", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Total de filas: %d", len(rows)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Total de compras: %d", buys), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Total de ventas: %d", sells), "", 1, "L", false, 0, "")

	pdf.Ln(6)
	pdf.CellFormat(0, 8, tr("Detalle de Compromisos de Energía:"), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 10)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 8, tr(col.title), "1", 0, col.align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		if row.Operation == commitments.OperationBuy {
			pdf.SetFillColor(255, 0, 0)
			pdf.SetTextColor(255, 255, 255)
		} else {
			pdf.SetFillColor(255, 255, 255)
			pdf.SetTextColor(0, 0, 0)
		}
		cells := []string{
			strconv.Itoa(row.Year),
			strconv.Itoa(row.Month),
			strconv.Itoa(row.Day),
			row.PlantCode,
			row.ConsolidatedBalance.StringFixed(2),
			row.CommitmentValue.StringFixed(2),
			string(row.Operation),
		}
		for i, value := range cells {
			align := pdfColumns[i].align
			if i == 4 || i == 5 {
				align = "R"
			}
			pdf.CellFormat(pdfColumns[i].width, 8, tr(value), "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.SetTextColor(0, 0, 0)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportCSV renders rows as CSV with a header line.
func BuildReportCSV(rows []commitments.CommitmentRow) (out []byte, err error) {
	start := time.Now()
	defer func() { observeExport(FormatCSV, start, err) }()

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(ReportColumns); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			strconv.Itoa(row.Year),
			strconv.Itoa(row.Month),
			strconv.Itoa(row.Day),
			row.PlantCode,
			row.ConsolidatedBalance.String(),
			row.CommitmentValue.String(),
			string(row.Operation),
		}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders a summary sheet and a detail sheet.
func BuildReportXLSX(date time.Time, rows []commitments.CommitmentRow) (out []byte, err error) {
	start := time.Now()
	defer func() { observeExport(FormatXLSX, start, err) }()

	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	detailSheet := "commitments"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, err
	}

	buys, sells := commitments.CountOperations(rows)
	_ = f.SetCellValue(summarySheet, "A1", "Informe de Compromisos de Energía")
	_ = f.SetCellValue(summarySheet, "A3", "Fecha")
	_ = f.SetCellValue(summarySheet, "B3", date.Format(commitments.DateLayout))
	_ = f.SetCellValue(summarySheet, "A4", "Filas")
	_ = f.SetCellValue(summarySheet, "B4", len(rows))
	_ = f.SetCellValue(summarySheet, "A5", "Compras")
	_ = f.SetCellValue(summarySheet, "B5", buys)
	_ = f.SetCellValue(summarySheet, "A6", "Ventas")
	_ = f.SetCellValue(summarySheet, "B6", sells)

	header := make([]any, len(ReportColumns))
	for i, name := range ReportColumns {
		header[i] = name
	}
	if err := f.SetSheetRow(detailSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			row.Year,
			row.Month,
			row.Day,
			row.PlantCode,
			row.ConsolidatedBalance.InexactFloat64(),
			row.CommitmentValue.InexactFloat64(),
			string(row.Operation),
		}
		if err := f.SetSheetRow(detailSheet, cellRef, &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func observeExport(format string, start time.Time, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveReportExport(format, result, time.Since(start))
}
