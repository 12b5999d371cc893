// Package totals implementa el motor de cálculo de totales de factura:
// transformación pura y determinista de (items, tasa de impuesto, moneda,
// locale) a valores de presentación. Sin estado y sin I/O; seguro de
// invocar en cada renderizado.
package totals

import (
	"strings"

	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Subtotal calcula la suma de cantidad × precio por línea. Los valores
// vacíos o no numéricos del formulario se tratan como cero.
func Subtotal(items []models.InvoiceItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Quantity.Decimal().Mul(item.Rate.Decimal()))
	}
	return sum
}

// Tax calcula el impuesto: subtotal × tasa / 100
func Tax(subtotal decimal.Decimal, taxRate float64) decimal.Decimal {
	rate := decimal.NewFromFloat(taxRate)
	return subtotal.Mul(rate).Div(decimal.NewFromInt(100))
}

// Total calcula el total: subtotal + impuesto
func Total(subtotal, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Add(tax)
}

// Amount calcula el monto de una línea: cantidad × precio
func Amount(item models.InvoiceItem) decimal.Decimal {
	return item.Quantity.Decimal().Mul(item.Rate.Decimal())
}

// Compute deriva los totales numéricos del documento completo
func Compute(data *models.InvoiceData) models.Totals {
	subtotal := Subtotal(data.Items)
	tax := Tax(subtotal, data.TaxRate)
	total := Total(subtotal, tax)

	return models.Totals{
		Subtotal: subtotal.Round(2).InexactFloat64(),
		Tax:      tax.Round(2).InexactFloat64(),
		Total:    total.Round(2).InexactFloat64(),
	}
}

// ComputeFormatted deriva los totales formateados según moneda y locale
func ComputeFormatted(data *models.InvoiceData) models.FormattedTotals {
	subtotal := Subtotal(data.Items)
	tax := Tax(subtotal, data.TaxRate)
	total := Total(subtotal, tax)

	return models.FormattedTotals{
		Subtotal: FormatCurrency(subtotal, data.Currency, data.Locale),
		Tax:      FormatCurrency(tax, data.Currency, data.Locale),
		Total:    FormatCurrency(total, data.Currency, data.Locale),
	}
}

// FormatCurrency formatea un monto según moneda ISO 4217 y locale,
// delegando en golang.org/x/text; no se implementa formato propio.
func FormatCurrency(amount decimal.Decimal, currencyCode, locale string) string {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		unit = currency.USD
	}

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}

	printer := message.NewPrinter(tag)
	value, _ := amount.Round(2).Float64()
	return printer.Sprintf("%v", currency.Symbol(unit.Amount(value)))
}

// RenderCell retorna el valor de presentación de una celda según el tipo
// de columna. Para system-amount aplica cantidad × precio y formatea como
// moneda; para columnas personalizadas busca item.customValues[column.id].
func RenderCell(item models.InvoiceItem, column models.Column, currencyCode, locale string) string {
	switch column.Kind {
	case models.ColumnKindSystemText:
		return item.Description
	case models.ColumnKindSystemQuantity:
		return item.Quantity.Decimal().String()
	case models.ColumnKindSystemRate:
		return item.Rate.Decimal().String()
	case models.ColumnKindSystemAmount:
		return FormatCurrency(Amount(item), currencyCode, locale)
	case models.ColumnKindCustomText, models.ColumnKindCustomNumber:
		value, ok := item.CustomValues[column.ID]
		if !ok {
			return ""
		}
		return value.Display()
	default:
		return ""
	}
}
