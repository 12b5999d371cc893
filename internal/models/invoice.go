package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ColumnKind representa el tipo de columna de la tabla de ítems
type ColumnKind string

const (
	ColumnKindSystemText     ColumnKind = "system-text"
	ColumnKindSystemQuantity ColumnKind = "system-quantity"
	ColumnKindSystemRate     ColumnKind = "system-rate"
	ColumnKindSystemAmount   ColumnKind = "system-amount"
	ColumnKindCustomText     ColumnKind = "custom-text"
	ColumnKindCustomNumber   ColumnKind = "custom-number"
)

// Column representa una columna configurable de la factura
type Column struct {
	ID    string     `json:"id"`
	Kind  ColumnKind `json:"kind"`
	Label string     `json:"label"`
}

// FlexNumber representa un valor numérico que el formulario puede enviar
// como número o como texto provisional; los valores vacíos o no numéricos
// se tratan como cero al calcular.
type FlexNumber struct {
	raw string
}

// NewFlexNumber crea un FlexNumber desde un decimal
func NewFlexNumber(d decimal.Decimal) FlexNumber {
	return FlexNumber{raw: d.String()}
}

// FlexNumberFromString crea un FlexNumber desde texto crudo del formulario
func FlexNumberFromString(s string) FlexNumber {
	return FlexNumber{raw: s}
}

// UnmarshalJSON acepta número JSON o string
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n.raw = s
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		n.raw = num.String()
		return nil
	}
	// Cualquier otro tipo se coerciona a vacío (cero al calcular)
	n.raw = ""
	return nil
}

// MarshalJSON preserva la forma numérica cuando el valor es parseable
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	trimmed := strings.TrimSpace(n.raw)
	if trimmed != "" {
		if _, err := decimal.NewFromString(trimmed); err == nil {
			return []byte(trimmed), nil
		}
	}
	return json.Marshal(n.raw)
}

// Decimal retorna el valor numérico, cero si está vacío o no es numérico
func (n FlexNumber) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(n.raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// String retorna el texto crudo tal como lo envió el formulario
func (n FlexNumber) String() string {
	return n.raw
}

// FlexValue representa el valor de una columna personalizada (texto o número)
type FlexValue struct {
	Text     string
	Number   decimal.Decimal
	IsNumber bool
}

// UnmarshalJSON acepta string o número JSON
func (v *FlexValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.Text = s
		v.IsNumber = false
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		d, err := decimal.NewFromString(num.String())
		if err != nil {
			v.Text = num.String()
			v.IsNumber = false
			return nil
		}
		v.Number = d
		v.IsNumber = true
		return nil
	}
	v.Text = ""
	v.IsNumber = false
	return nil
}

// MarshalJSON serializa según la variante
func (v FlexValue) MarshalJSON() ([]byte, error) {
	if v.IsNumber {
		return []byte(v.Number.String()), nil
	}
	return json.Marshal(v.Text)
}

// Display retorna la representación textual del valor
func (v FlexValue) Display() string {
	if v.IsNumber {
		return v.Number.String()
	}
	return v.Text
}

// InvoiceItem representa una línea de la factura
type InvoiceItem struct {
	ID           string               `json:"id"`
	Description  string               `json:"description"`
	Quantity     FlexNumber           `json:"quantity"`
	Rate         FlexNumber           `json:"rate"`
	CustomValues map[string]FlexValue `json:"customValues,omitempty"`
}

// Contact representa un bloque de contacto (emisor o cliente)
type Contact struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// PaymentInfo representa la información de pago opcional
type PaymentInfo struct {
	BankName      string `json:"bank_name,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// InvoiceData representa el documento completo editado por el usuario;
// se persiste como JSONB en la columna invoice_data.
type InvoiceData struct {
	Items        []InvoiceItem   `json:"items"`
	TaxRate      float64         `json:"tax_rate"`
	Currency     string          `json:"currency"`
	Locale       string          `json:"locale,omitempty"`
	Sender       Contact         `json:"sender"`
	Client       Contact         `json:"client"`
	PaymentInfo  *PaymentInfo    `json:"payment_info,omitempty"`
	Template     string          `json:"template,omitempty"`
	ColumnConfig []Column        `json:"column_config,omitempty"`
	Visibility   map[string]bool `json:"visibility,omitempty"`
	IssueDate    string          `json:"issue_date,omitempty"`
	DueDate      string          `json:"due_date,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// DefaultColumnConfig retorna las columnas estándar cuando el usuario
// no configuró columnas propias
func DefaultColumnConfig() []Column {
	return []Column{
		{ID: "description", Kind: ColumnKindSystemText, Label: "Descripción"},
		{ID: "quantity", Kind: ColumnKindSystemQuantity, Label: "Cantidad"},
		{ID: "rate", Kind: ColumnKindSystemRate, Label: "Precio"},
		{ID: "amount", Kind: ColumnKindSystemAmount, Label: "Importe"},
	}
}

// Invoice representa la raíz agregada persistida
type Invoice struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	UserID        uuid.UUID   `json:"user_id" db:"user_id"`
	InvoiceNumber string      `json:"invoice_number" db:"invoice_number"`
	Data          InvoiceData `json:"invoice_data" db:"invoice_data"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// UpsertInvoiceRequest representa el request para crear o actualizar una factura
type UpsertInvoiceRequest struct {
	ID            *uuid.UUID  `json:"id,omitempty"`
	InvoiceNumber string      `json:"invoice_number" binding:"required"`
	Data          InvoiceData `json:"invoice_data" binding:"required"`
}

// Totals representa los totales calculados de la factura
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// FormattedTotals representa los totales formateados según moneda y locale
type FormattedTotals struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// InvoiceResponse representa la respuesta al consultar una factura
type InvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	Data          InvoiceData     `json:"invoice_data"`
	Totals        Totals          `json:"totals"`
	Formatted     FormattedTotals `json:"formatted_totals"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InvoiceListResponse representa la respuesta paginada del listado
type InvoiceListResponse struct {
	Items    []InvoiceResponse `json:"items"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int               `json:"total"`
}
