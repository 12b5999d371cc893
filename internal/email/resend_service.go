package email

import (
	"fmt"

	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// ResendService maneja el envío de correos electrónicos usando Resend API.
// Si no hay API key configurada opera en modo mock: registra el correo en
// el log en lugar de enviarlo, para que el desarrollo local nunca falle
// por credenciales ausentes.
type ResendService struct {
	client    *resend.Client
	fromEmail string
	logger    *logrus.Logger
}

// NewResendService crea una nueva instancia de ResendService; con apiKey
// vacía el servicio queda en modo mock.
func NewResendService(apiKey string, fromEmail string, logger *logrus.Logger) *ResendService {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	} else {
		logger.Warn("Resend API key not provided, email service running in mock mode")
	}

	return &ResendService{
		client:    client,
		fromEmail: fromEmail,
		logger:    logger,
	}
}

// IsMockMode reporta si el servicio opera sin proveedor real
func (s *ResendService) IsMockMode() bool {
	return s.client == nil
}

// SendShareEmail envía el enlace público de una factura por correo
func (s *ResendService) SendShareEmail(req *models.ShareEmailRequest) error {
	senderName := req.SenderName
	if senderName == "" {
		senderName = "Tu contacto"
	}

	subject := fmt.Sprintf("Factura %s compartida contigo", req.InvoiceNumber)
	htmlContent := s.buildShareHTML(req.InvoiceNumber, req.ShareURL, senderName)

	if s.IsMockMode() {
		s.logger.WithFields(logrus.Fields{
			"to":        req.Email,
			"subject":   subject,
			"share_url": req.ShareURL,
		}).Info("Email mock mode: share email logged instead of sent")
		return nil
	}

	request := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{req.Email},
		Subject: subject,
		Html:    htmlContent,
	}

	result, err := s.client.Emails.Send(request)
	if err != nil {
		return fmt.Errorf("error sending email via Resend: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email_id": result.Id,
		"to":       req.Email,
		"subject":  subject,
	}).Info("Share email sent successfully via Resend")

	return nil
}

// buildShareHTML construye el contenido HTML del correo
func (s *ResendService) buildShareHTML(invoiceNumber, shareURL, senderName string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Factura compartida</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 8px; }
        .content { padding: 20px; }
        .button { display: inline-block; padding: 12px 24px; background-color: #007bff; color: white; text-decoration: none; border-radius: 5px; margin: 10px 5px; }
        .footer { margin-top: 30px; padding: 20px; background-color: #f8f9fa; border-radius: 8px; font-size: 14px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Factura %s</h1>
        </div>

        <div class="content">
            <p>%s ha compartido una factura contigo.</p>

            <div style="text-align: center; margin: 20px 0;">
                <a href="%s" class="button">Ver factura</a>
            </div>

            <p><strong>Nota:</strong> El enlace puede expirar según la configuración de quien lo compartió.</p>
        </div>

        <div class="footer">
            <p>Este es un email automático del sistema de facturación.</p>
        </div>
    </div>
</body>
</html>`,
		invoiceNumber,
		senderName,
		shareURL)
}
