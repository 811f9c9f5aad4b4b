package infra

// pdf.go: order ticket rendering with go-pdf/fpdf.
// Thermal-receipt sized page (74mm wide) holding branch, table, items,
// discount/cost lines and the total. Rendered in memory; nothing touches disk.

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"restopos/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerarTicketOrden renders the ticket for an order loaded with its items
// (and their products), mesa and sucursal.
func GenerarTicketOrden(orden *model.Orden) ([]byte, error) {
	alto := 70.0 + float64(len(orden.Items))*5
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: alto},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	titulo := "Restaurante"
	if orden.Sucursal != nil {
		titulo = orden.Sucursal.Nombre
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(titulo), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Orden "+orden.ID.String()[:8], "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, orden.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	switch {
	case orden.Mesa != nil:
		pdf.CellFormat(contentW, 4, fmt.Sprintf("Mesa %d", orden.Mesa.Numero), "", 1, "L", false, 0, "")
	case orden.Tipo == model.TipoDomicilio && orden.DireccionEntrega != nil:
		pdf.MultiCell(contentW, 4, tr("Domicilio: "+*orden.DireccionEntrega), "", "L", false)
	default:
		pdf.CellFormat(contentW, 4, "Para llevar", "", 1, "L", false, 0, "")
	}
	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range orden.Items {
		nombre := "Producto"
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		if utf8.RuneCountInString(nombre) > 22 {
			nombre = string([]rune(nombre)[:21]) + "."
		}
		pdf.CellFormat(col1, 5, tr(nombre), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, moneda(item.Subtotal), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	linea := func(label string, v decimal.Decimal, signo string) {
		pdf.CellFormat(col1+col2, 4, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, signo+moneda(v), "", 1, "R", false, 0, "")
	}
	linea("Subtotal:", orden.Subtotal, "")
	if !orden.Descuento.IsZero() {
		linea("Descuento:", orden.Descuento, "-")
	}
	if !orden.CostoEnvio.IsZero() {
		linea(tr("Envío:"), orden.CostoEnvio, "")
	}
	if !orden.CostoAdicional.IsZero() {
		linea("Adicional:", orden.CostoAdicional, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, moneda(orden.Total), "", 1, "R", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su visita!"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render ticket: %w", err)
	}
	return buf.Bytes(), nil
}

func moneda(v decimal.Decimal) string { return "$" + v.StringFixed(0) }
