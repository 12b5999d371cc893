package models

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceShare representa un enlace público de acceso a una factura.
// Un share con expires_at en el pasado existe físicamente pero nunca
// se resuelve; la revocación lo elimina de forma definitiva.
type InvoiceShare struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	InvoiceID      uuid.UUID  `json:"invoice_id" db:"invoice_id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	ShareToken     string     `json:"share_token" db:"share_token"`
	AllowDownload  bool       `json:"allow_download" db:"allow_download"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty" db:"last_accessed_at"`
	AccessCount    int        `json:"access_count" db:"access_count"`
}

// ShareOptions representa las opciones al crear un share
type ShareOptions struct {
	AllowDownload bool `json:"allowDownload"`
	ExpiresInDays *int `json:"expiresInDays,omitempty"`
}

// CreateShareRequest representa el request para crear un share
type CreateShareRequest struct {
	InvoiceID string       `json:"invoiceId"`
	Options   ShareOptions `json:"options"`
}

// CreateShareResponse representa la respuesta al crear un share
type CreateShareResponse struct {
	Share    InvoiceShare `json:"share"`
	ShareURL string       `json:"share_url"`
}

// ResolvedShare representa un share resuelto junto con la factura asociada
type ResolvedShare struct {
	Share   InvoiceShare    `json:"share"`
	Invoice InvoiceResponse `json:"invoice"`
}

// RevokeShareResponse representa la respuesta al revocar un share
type RevokeShareResponse struct {
	Success bool `json:"success"`
}

// ShareEmailRequest representa el request para enviar un share por correo
type ShareEmailRequest struct {
	Email         string `json:"email" binding:"required,email"`
	InvoiceNumber string `json:"invoiceNumber" binding:"required"`
	ShareURL      string `json:"shareUrl" binding:"required"`
	SenderName    string `json:"senderName"`
}

// ShareEmailResponse representa la respuesta al enviar el correo
type ShareEmailResponse struct {
	Status string `json:"status"`
}
