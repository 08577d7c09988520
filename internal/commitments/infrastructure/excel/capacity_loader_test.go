package excel

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	commitments "energy-commitments/internal/commitments/domain"
)

func buildWorkbook(t *testing.T, header []any, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"
	_ = f.SetCellValue(sheet, "A1", "Declaracion de disponibilidad")
	_ = f.SetCellValue(sheet, "A2", "Agente: Generadora Demo")
	_ = f.SetCellValue(sheet, "A4", "Unidad: kWh")
	if err := f.SetSheetRow(sheet, "A6", &header); err != nil {
		t.Fatalf("set header: %v", err)
	}
	for i, row := range rows {
		row := row
		axis, _ := excelize.CoordinatesToCellName(1, 7+i)
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestCapacityLoader_SkipsHeaderBlock(t *testing.T) {
	day := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	data := buildWorkbook(t,
		[]any{"CODIGO", "NOMBRE", "CAPACIDAD (Kwh)", "FECHA"},
		[][]any{
			{"GENERADOR", "totales", "CAPACIDAD", day},
			{"P1", "Planta Uno", 100, day},
			{"P2", "Planta Dos", "sin dato", "2024-05-01"},
		},
	)

	loader := NewCapacityLoader()
	records, err := loader.Load(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 unfiltered records, got %d", len(records))
	}
	if records[0].PlantCode != commitments.SentinelPlantCode {
		t.Fatalf("loader must not filter rows, first code=%q", records[0].PlantCode)
	}
	p1 := records[1]
	if p1.PlantCode != "P1" || !commitments.ToNumber(p1.Capacity).Valid {
		t.Fatalf("unexpected P1 record: %+v", p1)
	}
	at, ok := p1.Date.(time.Time)
	if !ok {
		t.Fatalf("expected serial date to resolve to time, got %T", p1.Date)
	}
	if at.Year() != 2024 || at.Month() != time.May || at.Day() != 1 {
		t.Fatalf("unexpected date: %s", at)
	}
	if p1.Attributes["NOMBRE"] != "Planta Uno" {
		t.Fatalf("expected passthrough attribute, got %+v", p1.Attributes)
	}
	if commitments.ToNumber(records[2].Capacity).Valid {
		t.Fatalf("non-numeric capacity should coerce to unknown")
	}
	if records[2].Date != "2024-05-01" {
		t.Fatalf("text date should pass through, got %v", records[2].Date)
	}
}

func TestCapacityLoader_CustomSkipAndColumns(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"planta", "kwh", "dia"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{"P7", 12.5, "2024-05-02"})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	loader := NewCapacityLoader(WithSkipRows(0), WithColumns("PLANTA", "KWH", "DIA"))
	records, err := loader.Load(context.Background(), &buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 || records[0].PlantCode != "P7" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestCapacityLoader_ParseErrors(t *testing.T) {
	loader := NewCapacityLoader()
	if _, err := loader.Load(context.Background(), strings.NewReader("not,a,workbook")); !errors.Is(err, commitments.ErrParse) {
		t.Fatalf("expected ErrParse for csv input, got %v", err)
	}

	data := buildWorkbook(t, []any{"CODIGO", "FECHA"}, [][]any{{"P1", "2024-05-01"}})
	if _, err := loader.Load(context.Background(), bytes.NewReader(data)); !errors.Is(err, commitments.ErrParse) {
		t.Fatalf("expected ErrParse for missing capacity column, got %v", err)
	}
}

func TestIsWorkbookName(t *testing.T) {
	if !IsWorkbookName("Capacidad.XLSX") || !IsWorkbookName("old.xls") {
		t.Fatalf("expected spreadsheet names to be accepted")
	}
	if IsWorkbookName("capacidad.csv") {
		t.Fatalf("csv must be rejected")
	}
}
