package payroll

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

var csvHeader = []string{"worker", "registered", "dependents", "date", "value"}

// WriteCSV writes one row per worker and date, sorted by worker then date.
func WriteCSV(w io.Writer, result Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, name := range WorkerNames(result) {
		entry := result[name]
		for _, date := range entry.SortedDates() {
			row := []string{
				name,
				strconv.FormatBool(entry.IsRegistered),
				strconv.Itoa(entry.NumberOfDependents),
				date,
				entry.Days[date].String(),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WritePDF renders the per-worker summary followed by each worker's days.
func WritePDF(w io.Writer, query Query, result Result) error {
	summary := Summarize(query, result)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Folha de pagamento", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Folha de pagamento")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Periodo: %s a %s", query.StartDate, query.EndDate))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Categoria: %s", query.Category))
	pdf.Ln(10)

	widths := []float64{70, 25, 25, 25, 25}
	headers := []string{"Trabalhador", "Registrado", "Dias", "Faltas", "Total"}
	pdf.SetFont("Helvetica", "B", 10)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range summary.Workers {
		registered := "Nao"
		if row.IsRegistered {
			registered = "Sim"
		}
		pdf.CellFormat(widths[0], 6, row.WorkerName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, registered, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, strconv.Itoa(row.DaysWorked), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, strconv.Itoa(row.Absences), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.2f", row.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 6, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.2f", summary.Total), "1", 0, "R", false, 0, "")
	pdf.Ln(10)

	for _, name := range WorkerNames(result) {
		entry := result[name]
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 7, name)
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 10)
		for _, date := range entry.SortedDates() {
			pdf.CellFormat(40, 5, date, "", 0, "L", false, 0, "")
			pdf.CellFormat(30, 5, entry.Days[date].String(), "", 0, "R", false, 0, "")
			pdf.Ln(5)
		}
		pdf.Ln(3)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render payroll pdf: %w", err)
	}
	return nil
}
