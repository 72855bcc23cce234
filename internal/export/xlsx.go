// Package export renders payment listings as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/pagos-app/payment-manager/internal/models"
)

const (
	PaymentsSheet = "Pagos"
	DetailsSheet  = "Detalles"
)

// ContentType is the MIME type of the workbook produced by WritePayments.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	paymentHeader = []any{"ID", "Fecha", "Cliente", "Monto", "Forma de pago", "Documento", "Empresa", "Descripción"}
	detailHeader  = []any{"Pago", "Fecha", "Cliente", "Forma de pago", "Monto"}
)

// WritePayments writes one row per payment on the first sheet and one row
// per detail line on the second.
func WritePayments(w io.Writer, views []models.PaymentView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PaymentsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(DetailsSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := header(f, PaymentsSheet, paymentHeader, bold); err != nil {
		return err
	}
	if err := header(f, DetailsSheet, detailHeader, bold); err != nil {
		return err
	}

	detailRow := 2
	for i, v := range views {
		row := []any{v.ID, v.Fecha, v.ClienteNombre, v.Monto, v.FormaPago, documentLabel(v), deref(v.DocumentoEmpresa), v.Descripcion}
		if err := f.SetSheetRow(PaymentsSheet, cell(1, i+2), &row); err != nil {
			return err
		}
		for _, d := range v.DetallesPago {
			line := []any{v.ID, v.Fecha, v.ClienteNombre, d.FormaPago, d.Monto}
			if err := f.SetSheetRow(DetailsSheet, cell(1, detailRow), &line); err != nil {
				return err
			}
			detailRow++
		}
	}
	return f.Write(w)
}

func header(f *excelize.File, sheet string, cols []any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &cols); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", cell(len(cols), 1), style); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 16)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func documentLabel(v models.PaymentView) string {
	if v.DocumentoTipo == nil || v.DocumentoNumero == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", *v.DocumentoTipo, *v.DocumentoNumero)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
