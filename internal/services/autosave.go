package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/database"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/sirupsen/logrus"
)

// AutosaveManager coalesce las ediciones rápidas de una factura en una
// sola escritura: cada edición reinicia la ventana de espera y solo al
// quedar quieta se persiste. El guardado manual o el apagado del
// servidor descargan lo pendiente de inmediato.
type AutosaveManager struct {
	invoiceRepo *database.InvoiceRepository
	logger      *logrus.Logger
	debounce    time.Duration

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingSave
}

// pendingSave representa una escritura pendiente con su temporizador
type pendingSave struct {
	timer   *time.Timer
	invoice *models.Invoice
}

// NewAutosaveManager crea una nueva instancia del manager
func NewAutosaveManager(db *database.DB, debounce time.Duration, logger *logrus.Logger) *AutosaveManager {
	return &AutosaveManager{
		invoiceRepo: database.NewInvoiceRepository(db, logger),
		logger:      logger,
		debounce:    debounce,
		pending:     make(map[uuid.UUID]*pendingSave),
	}
}

// Schedule encola la última versión de la factura; si ya había una
// escritura pendiente, la reemplaza y reinicia la ventana.
func (m *AutosaveManager) Schedule(invoice *models.Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pending[invoice.ID]; ok {
		p.invoice = invoice
		p.timer.Reset(m.debounce)
		return
	}

	id := invoice.ID
	m.pending[id] = &pendingSave{
		invoice: invoice,
		timer: time.AfterFunc(m.debounce, func() {
			if err := m.Flush(id); err != nil {
				m.logger.WithError(err).Warnf("Error autosaving invoice %s", id)
			}
		}),
	}
}

// Flush persiste de inmediato la escritura pendiente de una factura;
// no hace nada si no hay nada pendiente.
func (m *AutosaveManager) Flush(id uuid.UUID) error {
	m.mu.Lock()
	p, ok := m.pending[id]
	if ok {
		p.timer.Stop()
		delete(m.pending, id)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}

	// Los borradores llegan del handler sin timestamps; el momento de la
	// escritura es el updated_at y el created_at se conserva si la
	// factura ya existe.
	invoice := p.invoice
	invoice.UpdatedAt = time.Now()
	if invoice.CreatedAt.IsZero() {
		if existing, err := m.invoiceRepo.GetByID(invoice.ID); err == nil {
			invoice.CreatedAt = existing.CreatedAt
		} else {
			invoice.CreatedAt = time.Now()
		}
	}

	return m.invoiceRepo.Upsert(invoice)
}

// Cancel descarta la escritura pendiente de una factura; se usa cuando
// un guardado manual ya persistió el estado completo.
func (m *AutosaveManager) Cancel(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pending[id]; ok {
		p.timer.Stop()
		delete(m.pending, id)
	}
}

// FlushAll descarga todas las escrituras pendientes; se invoca en el
// apagado graceful del servidor.
func (m *AutosaveManager) FlushAll() {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.Flush(id); err != nil {
			m.logger.WithError(err).Warnf("Error flushing pending autosave for invoice %s", id)
		}
	}
}

// PendingCount retorna la cantidad de escrituras pendientes
func (m *AutosaveManager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pending)
}
