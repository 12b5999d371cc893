package api

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/hypernova-labs/factura-service/internal/totals"
)

// viewerData es el modelo de la página pública de factura; las celdas
// llegan ya renderizadas para que la plantilla no tenga lógica de dominio.
type viewerData struct {
	InvoiceNumber string
	IssueDate     string
	DueDate       string
	Sender        models.Contact
	Client        models.Contact
	Headers       []string
	Rows          [][]string
	Subtotal      string
	Tax           string
	Total         string
	Notes         string
	AllowDownload bool
	DownloadURL   string
}

var viewerTemplate = template.Must(template.New("viewer").Parse(viewerHTML))
var expiredTemplate = template.Must(template.New("expired").Parse(expiredHTML))

// ViewShare renderiza la página pública de una factura compartida.
// Cualquier fallo (token inexistente, expirado, error interno) produce la
// misma página neutral de "enlace inválido o expirado"; esta ruta nunca
// responde 500 ni distingue entre causas.
func (api *API) ViewShare(c *gin.Context) {
	token := c.Param("token")

	resolved, err := api.shareService.ResolveShare(token)
	if err != nil {
		api.renderExpired(c)
		return
	}

	// Conteo best-effort, nunca bloquea al visitante
	api.shareService.TrackAccess(resolved.Share.ID)

	data := buildViewerData(resolved, api.shareService.ShareURL(token)+"/pdf")

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := viewerTemplate.Execute(c.Writer, data); err != nil {
		api.logger.WithError(err).Error("Error rendering share viewer")
	}
}

// ViewSharePDF descarga el PDF de una factura compartida. Responde el
// mismo 404 neutral para tokens inexistentes y expirados.
func (api *API) ViewSharePDF(c *gin.Context) {
	token := c.Param("token")

	resolved, err := api.shareService.ResolveShare(token)
	if err != nil {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("Share link not found or expired"))
		return
	}

	api.shareService.TrackAccess(resolved.Share.ID)

	pdfData, fileName, err := api.invoiceService.ExportSharedPDF(resolved.Share.InvoiceID)
	if err != nil {
		api.logger.WithError(err).Error("Error generating shared invoice PDF")
		c.JSON(http.StatusNotFound, models.NewNotFoundError("Share link not found or expired"))
		return
	}

	writePDF(c, pdfData, fileName)
}

// renderExpired muestra la página neutral de enlace inválido
func (api *API) renderExpired(c *gin.Context) {
	c.Status(http.StatusNotFound)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := expiredTemplate.Execute(c.Writer, nil); err != nil {
		api.logger.WithError(err).Error("Error rendering expired share page")
	}
}

// buildViewerData proyecta el share resuelto al modelo de la plantilla
func buildViewerData(resolved *models.ResolvedShare, downloadURL string) viewerData {
	invoice := resolved.Invoice
	data := invoice.Data

	columns := data.ColumnConfig
	if len(columns) == 0 {
		columns = models.DefaultColumnConfig()
	}

	headers := make([]string, 0, len(columns))
	for _, col := range columns {
		headers = append(headers, col.Label)
	}

	rows := make([][]string, 0, len(data.Items))
	for _, item := range data.Items {
		row := make([]string, 0, len(columns))
		for _, col := range columns {
			row = append(row, totals.RenderCell(item, col, data.Currency, data.Locale))
		}
		rows = append(rows, row)
	}

	return viewerData{
		InvoiceNumber: invoice.InvoiceNumber,
		IssueDate:     data.IssueDate,
		DueDate:       data.DueDate,
		Sender:        data.Sender,
		Client:        data.Client,
		Headers:       headers,
		Rows:          rows,
		Subtotal:      invoice.Formatted.Subtotal,
		Tax:           invoice.Formatted.Tax,
		Total:         invoice.Formatted.Total,
		Notes:         data.Notes,
		AllowDownload: resolved.Share.AllowDownload,
		DownloadURL:   downloadURL,
	}
}

const viewerHTML = `<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Factura {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; color: #2c3e50; background: #f4f6f7; margin: 0; }
        .page { max-width: 800px; margin: 24px auto; background: #fff; border-radius: 8px; padding: 32px; box-shadow: 0 1px 4px rgba(0,0,0,0.1); }
        .header { background: #2980b9; color: #fff; margin: -32px -32px 24px; padding: 24px 32px; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 28px; }
        .header .number { font-size: 16px; opacity: 0.9; }
        .parties { display: flex; gap: 32px; margin-bottom: 24px; }
        .party { flex: 1; }
        .party h2 { font-size: 12px; text-transform: uppercase; color: #7f8c8d; margin: 0 0 6px; }
        .party p { margin: 2px 0; font-size: 14px; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
        th { background: #ecf0f1; text-align: left; padding: 8px; font-size: 13px; }
        td { padding: 8px; border-bottom: 1px solid #ecf0f1; font-size: 14px; }
        .totals { text-align: right; font-size: 14px; }
        .totals .line { margin: 4px 0; }
        .totals .grand { font-size: 18px; font-weight: bold; margin-top: 8px; }
        .notes { margin-top: 24px; font-size: 13px; color: #7f8c8d; }
        .download { display: inline-block; margin-top: 24px; padding: 10px 20px; background: #2980b9; color: #fff; text-decoration: none; border-radius: 5px; }
    </style>
</head>
<body>
    <div class="page">
        <div class="header">
            <h1>FACTURA</h1>
            <div class="number">#{{.InvoiceNumber}}{{if .IssueDate}} &middot; {{.IssueDate}}{{end}}{{if .DueDate}} &middot; Vence: {{.DueDate}}{{end}}</div>
        </div>

        <div class="parties">
            <div class="party">
                <h2>De</h2>
                <p><strong>{{.Sender.Name}}</strong></p>
                {{if .Sender.Company}}<p>{{.Sender.Company}}</p>{{end}}
                {{if .Sender.Address}}<p>{{.Sender.Address}}</p>{{end}}
                {{if .Sender.Email}}<p>{{.Sender.Email}}</p>{{end}}
            </div>
            <div class="party">
                <h2>Para</h2>
                <p><strong>{{.Client.Name}}</strong></p>
                {{if .Client.Company}}<p>{{.Client.Company}}</p>{{end}}
                {{if .Client.Address}}<p>{{.Client.Address}}</p>{{end}}
                {{if .Client.Email}}<p>{{.Client.Email}}</p>{{end}}
            </div>
        </div>

        <table>
            <thead>
                <tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
            </thead>
            <tbody>
                {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
                {{end}}
            </tbody>
        </table>

        <div class="totals">
            <div class="line">Subtotal: {{.Subtotal}}</div>
            <div class="line">Impuesto: {{.Tax}}</div>
            <div class="grand">Total: {{.Total}}</div>
        </div>

        {{if .Notes}}<div class="notes">{{.Notes}}</div>{{end}}

        {{if .AllowDownload}}<a class="download" href="{{.DownloadURL}}">Descargar PDF</a>{{end}}
    </div>
</body>
</html>`

const expiredHTML = `<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Enlace no disponible</title>
    <style>
        body { font-family: Arial, sans-serif; color: #2c3e50; background: #f4f6f7; margin: 0; }
        .page { max-width: 480px; margin: 80px auto; background: #fff; border-radius: 8px; padding: 40px; text-align: center; box-shadow: 0 1px 4px rgba(0,0,0,0.1); }
        h1 { font-size: 20px; margin: 0 0 12px; }
        p { font-size: 14px; color: #7f8c8d; margin: 0; }
    </style>
</head>
<body>
    <div class="page">
        <h1>Este enlace no est&aacute; disponible</h1>
        <p>El enlace es inv&aacute;lido o ha expirado. Solicita uno nuevo a quien comparti&oacute; la factura.</p>
    </div>
</body>
</html>`
