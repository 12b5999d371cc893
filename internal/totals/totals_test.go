package totals

import (
	"testing"

	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(description, quantity, rate string) models.InvoiceItem {
	return models.InvoiceItem{
		ID:          description,
		Description: description,
		Quantity:    models.FlexNumberFromString(quantity),
		Rate:        models.FlexNumberFromString(rate),
	}
}

func TestCompute(t *testing.T) {
	data := &models.InvoiceData{
		Items: []models.InvoiceItem{
			item("Diseño", "2", "100"),
			item("Hosting", "1", "50"),
		},
		TaxRate:  10,
		Currency: "USD",
	}

	totals := Compute(data)

	assert.Equal(t, 250.0, totals.Subtotal)
	assert.Equal(t, 25.0, totals.Tax)
	assert.Equal(t, 275.0, totals.Total)
}

func TestComputeEmptyItems(t *testing.T) {
	data := &models.InvoiceData{TaxRate: 10, Currency: "USD"}

	totals := Compute(data)

	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.Tax)
	assert.Equal(t, 0.0, totals.Total)
}

func TestComputeCoercesNonNumericToZero(t *testing.T) {
	data := &models.InvoiceData{
		Items: []models.InvoiceItem{
			item("Vacío", "", "100"),
			item("Texto provisional", "2", "abc"),
			item("Válido", "3", "10"),
		},
		TaxRate: 0,
	}

	totals := Compute(data)

	assert.Equal(t, 30.0, totals.Subtotal)
	assert.Equal(t, 30.0, totals.Total)
}

func TestComputeZeroTaxRate(t *testing.T) {
	data := &models.InvoiceData{
		Items:   []models.InvoiceItem{item("Único", "4", "25.50")},
		TaxRate: 0,
	}

	totals := Compute(data)

	assert.Equal(t, 102.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.Tax)
	assert.Equal(t, 102.0, totals.Total)
}

func TestComputeIsDeterministic(t *testing.T) {
	data := &models.InvoiceData{
		Items: []models.InvoiceItem{
			item("A", "3", "33.33"),
			item("B", "0.5", "19.99"),
		},
		TaxRate: 7,
	}

	first := Compute(data)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compute(data))
	}
}

func TestComputeFractionalQuantities(t *testing.T) {
	data := &models.InvoiceData{
		Items:   []models.InvoiceItem{item("Horas", "1.5", "80")},
		TaxRate: 21,
	}

	totals := Compute(data)

	assert.Equal(t, 120.0, totals.Subtotal)
	assert.Equal(t, 25.2, totals.Tax)
	assert.Equal(t, 145.2, totals.Total)
}

func TestTax(t *testing.T) {
	tax := Tax(decimal.NewFromInt(200), 15)
	assert.True(t, tax.Equal(decimal.NewFromInt(30)), "expected 30, got %s", tax)
}

func TestFormatCurrency(t *testing.T) {
	formatted := FormatCurrency(decimal.NewFromFloat(1234.5), "USD", "en-US")
	assert.Contains(t, formatted, "1,234.50")

	// Moneda desconocida cae a USD en lugar de fallar
	fallback := FormatCurrency(decimal.NewFromInt(10), "???", "en-US")
	assert.NotEmpty(t, fallback)

	// Locale desconocido cae a en-US
	loose := FormatCurrency(decimal.NewFromInt(10), "EUR", "not-a-locale")
	assert.NotEmpty(t, loose)
}

func TestRenderCellSystemColumns(t *testing.T) {
	it := item("Consultoría", "2", "150")

	assert.Equal(t, "Consultoría", RenderCell(it, models.Column{ID: "description", Kind: models.ColumnKindSystemText}, "USD", "en-US"))
	assert.Equal(t, "2", RenderCell(it, models.Column{ID: "quantity", Kind: models.ColumnKindSystemQuantity}, "USD", "en-US"))
	assert.Equal(t, "150", RenderCell(it, models.Column{ID: "rate", Kind: models.ColumnKindSystemRate}, "USD", "en-US"))

	amount := RenderCell(it, models.Column{ID: "amount", Kind: models.ColumnKindSystemAmount}, "USD", "en-US")
	assert.Contains(t, amount, "300")
}

func TestRenderCellCustomColumns(t *testing.T) {
	it := item("Con extras", "1", "10")
	it.CustomValues = map[string]models.FlexValue{
		"sku":  {Text: "AB-123"},
		"peso": {Number: decimal.NewFromFloat(2.5), IsNumber: true},
	}

	assert.Equal(t, "AB-123", RenderCell(it, models.Column{ID: "sku", Kind: models.ColumnKindCustomText}, "USD", "en-US"))
	assert.Equal(t, "2.5", RenderCell(it, models.Column{ID: "peso", Kind: models.ColumnKindCustomNumber}, "USD", "en-US"))

	// Columna personalizada sin valor en el ítem
	assert.Equal(t, "", RenderCell(it, models.Column{ID: "color", Kind: models.ColumnKindCustomText}, "USD", "en-US"))
}

func TestSubtotalMatchesSumOfAmounts(t *testing.T) {
	items := []models.InvoiceItem{
		item("A", "2", "10"),
		item("B", "3", "7.5"),
	}

	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(Amount(it))
	}

	require.True(t, Subtotal(items).Equal(sum))
}
