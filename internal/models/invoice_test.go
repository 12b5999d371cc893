package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexNumberUnmarshalNumber(t *testing.T) {
	var n FlexNumber
	require.NoError(t, json.Unmarshal([]byte(`2.5`), &n))
	assert.True(t, n.Decimal().Equal(decimal.NewFromFloat(2.5)))
}

func TestFlexNumberUnmarshalString(t *testing.T) {
	var n FlexNumber
	require.NoError(t, json.Unmarshal([]byte(`"100"`), &n))
	assert.True(t, n.Decimal().Equal(decimal.NewFromInt(100)))
}

func TestFlexNumberCoercesInvalidToZero(t *testing.T) {
	cases := []string{`""`, `"   "`, `"abc"`, `null`, `true`, `[1,2]`}
	for _, raw := range cases {
		var n FlexNumber
		require.NoError(t, json.Unmarshal([]byte(raw), &n), "input %s", raw)
		assert.True(t, n.Decimal().IsZero(), "input %s should coerce to zero", raw)
	}
}

func TestFlexNumberMarshalRoundTrip(t *testing.T) {
	var n FlexNumber
	require.NoError(t, json.Unmarshal([]byte(`"12.30"`), &n))

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, "12.30", string(out))

	// El texto no numérico se preserva como string
	var text FlexNumber
	require.NoError(t, json.Unmarshal([]byte(`"pendiente"`), &text))
	out, err = json.Marshal(text)
	require.NoError(t, err)
	assert.Equal(t, `"pendiente"`, string(out))
}

func TestFlexValueUnmarshal(t *testing.T) {
	var text FlexValue
	require.NoError(t, json.Unmarshal([]byte(`"AB-123"`), &text))
	assert.False(t, text.IsNumber)
	assert.Equal(t, "AB-123", text.Display())

	var num FlexValue
	require.NoError(t, json.Unmarshal([]byte(`42.5`), &num))
	assert.True(t, num.IsNumber)
	assert.Equal(t, "42.5", num.Display())
}

func TestInvoiceItemUnmarshalMixedForms(t *testing.T) {
	raw := `{
		"id": "item-1",
		"description": "Diseño web",
		"quantity": 2,
		"rate": "150.00",
		"customValues": {"sku": "X-9", "descuento": 5}
	}`

	var item InvoiceItem
	require.NoError(t, json.Unmarshal([]byte(raw), &item))

	assert.True(t, item.Quantity.Decimal().Equal(decimal.NewFromInt(2)))
	assert.True(t, item.Rate.Decimal().Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "X-9", item.CustomValues["sku"].Display())
	assert.True(t, item.CustomValues["descuento"].IsNumber)
}

func TestDefaultColumnConfig(t *testing.T) {
	columns := DefaultColumnConfig()
	require.Len(t, columns, 4)
	assert.Equal(t, ColumnKindSystemText, columns[0].Kind)
	assert.Equal(t, ColumnKindSystemAmount, columns[3].Kind)
}
