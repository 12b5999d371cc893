package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/factura-service/internal/config"
	"github.com/hypernova-labs/factura-service/internal/database"
	"github.com/hypernova-labs/factura-service/internal/models"
	"github.com/hypernova-labs/factura-service/internal/workflows"
	"github.com/sirupsen/logrus"
)

// shareTokenAlphabet es el alfabeto estilo nanoid (64 símbolos) para
// los tokens públicos; 32 caracteres dan 192 bits de entropía.
const shareTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// ShareService maneja el ciclo de vida de los enlaces públicos:
// crear, resolver, revocar y contar accesos.
type ShareService struct {
	shareRepo     *database.ShareRepository
	invoiceRepo   *database.InvoiceRepository
	redis         *database.Redis
	inngestClient *workflows.InngestClient
	logger        *logrus.Logger
	baseURL       string
	tokenLength   int
	snapshotTTL   time.Duration

	// now es inyectable para probar la expiración con tiempo controlado;
	// la comparación usa siempre el reloj del servidor, nunca el del cliente.
	now func() time.Time
}

// NewShareService crea una nueva instancia del servicio
func NewShareService(db *database.DB, redis *database.Redis, inngestClient *workflows.InngestClient, cfg *config.Config, logger *logrus.Logger) *ShareService {
	return &ShareService{
		shareRepo:     database.NewShareRepository(db, logger),
		invoiceRepo:   database.NewInvoiceRepository(db, logger),
		redis:         redis,
		inngestClient: inngestClient,
		logger:        logger,
		baseURL:       cfg.Server.BaseURL,
		tokenLength:   cfg.Share.TokenLength,
		snapshotTTL:   cfg.Share.SnapshotCacheTTL,
		now:           time.Now,
	}
}

// CreateShare crea un nuevo enlace público para una factura del usuario
func (s *ShareService) CreateShare(userID uuid.UUID, req *models.CreateShareRequest) (*models.CreateShareResponse, error) {
	if req.InvoiceID == "" {
		return nil, fmt.Errorf("invoiceId is required: %w", models.ErrValidation)
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoiceId must be a valid UUID: %w", models.ErrValidation)
	}

	// Solo el dueño de la factura puede compartirla
	if _, err := s.invoiceRepo.GetOwned(invoiceID, userID); err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if req.Options.ExpiresInDays != nil {
		days := *req.Options.ExpiresInDays
		if days <= 0 {
			return nil, fmt.Errorf("expiresInDays must be positive: %w", models.ErrValidation)
		}
		t := s.now().Add(time.Duration(days) * 24 * time.Hour)
		expiresAt = &t
	}

	token, err := generateShareToken(s.tokenLength)
	if err != nil {
		return nil, fmt.Errorf("error generating share token: %w", err)
	}

	share := &models.InvoiceShare{
		ID:            uuid.New(),
		InvoiceID:     invoiceID,
		UserID:        userID,
		ShareToken:    token,
		AllowDownload: req.Options.AllowDownload,
		ExpiresAt:     expiresAt,
		CreatedAt:     s.now(),
		AccessCount:   0,
	}

	if err := s.shareRepo.Insert(share); err != nil {
		return nil, fmt.Errorf("error creating share: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"share_id":   share.ID,
		"invoice_id": invoiceID,
		"expires_at": expiresAt,
	}).Info("Share created")

	if s.inngestClient != nil {
		go s.inngestClient.SendEvent(context.Background(), workflows.EventShareCreated, map[string]interface{}{
			"share_id":   share.ID.String(),
			"invoice_id": invoiceID.String(),
			"user_id":    userID.String(),
		})
	}

	return &models.CreateShareResponse{
		Share:    *share,
		ShareURL: s.ShareURL(token),
	}, nil
}

// ResolveShare resuelve un token público. Un token inexistente y uno
// expirado producen el mismo ErrNotFound para no filtrar existencia.
// La resolución no muta estado; el conteo de accesos es un paso aparte.
func (s *ShareService) ResolveShare(token string) (*models.ResolvedShare, error) {
	if token == "" {
		return nil, fmt.Errorf("share: %w", models.ErrNotFound)
	}

	if cached := s.snapshotFromCache(token); cached != nil {
		if s.isExpired(cached.Share.ExpiresAt) {
			return nil, fmt.Errorf("share expired: %w", models.ErrNotFound)
		}
		return cached, nil
	}

	share, err := s.shareRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}

	if s.isExpired(share.ExpiresAt) {
		return nil, fmt.Errorf("share expired: %w", models.ErrNotFound)
	}

	invoice, err := s.invoiceRepo.GetByID(share.InvoiceID)
	if err != nil {
		return nil, err
	}

	resolved := &models.ResolvedShare{
		Share:   *share,
		Invoice: *BuildInvoiceResponse(invoice),
	}

	s.snapshotToCache(token, resolved)

	return resolved, nil
}

// TrackAccess incrementa el contador de accesos en background. Es
// best-effort: un fallo se registra y se ignora, nunca bloquea ni
// impide mostrar la factura al visitante.
func (s *ShareService) TrackAccess(shareID uuid.UUID) {
	go func() {
		if err := s.trackAccess(shareID); err != nil {
			s.logger.WithError(err).Warnf("Error tracking access for share %s", shareID)
		}
	}()
}

// trackAccess ejecuta el incremento atómico
func (s *ShareService) trackAccess(shareID uuid.UUID) error {
	return s.shareRepo.IncrementAccess(shareID)
}

// RevokeShare elimina un share de forma definitiva e irreversible;
// solo el dueño puede revocarlo.
func (s *ShareService) RevokeShare(userID, shareID uuid.UUID) error {
	share, err := s.shareRepo.GetByID(shareID)
	if err != nil {
		return err
	}

	if err := s.shareRepo.DeleteOwned(shareID, userID); err != nil {
		return err
	}

	s.invalidateSnapshot(share.ShareToken)

	s.logger.WithFields(logrus.Fields{
		"share_id":   shareID,
		"invoice_id": share.InvoiceID,
	}).Info("Share revoked")

	if s.inngestClient != nil {
		go s.inngestClient.SendEvent(context.Background(), workflows.EventShareRevoked, map[string]interface{}{
			"share_id":   shareID.String(),
			"invoice_id": share.InvoiceID.String(),
		})
	}

	return nil
}

// ListShares obtiene los shares de una factura del usuario
func (s *ShareService) ListShares(userID, invoiceID uuid.UUID) ([]models.InvoiceShare, error) {
	if _, err := s.invoiceRepo.GetOwned(invoiceID, userID); err != nil {
		return nil, err
	}

	return s.shareRepo.ListByInvoice(invoiceID, userID)
}

// ShareURL construye la URL pública de un token
func (s *ShareService) ShareURL(token string) string {
	return fmt.Sprintf("%s/share/%s", s.baseURL, token)
}

// isExpired compara la expiración contra el reloj del servidor
func (s *ShareService) isExpired(expiresAt *time.Time) bool {
	return expiresAt != nil && !expiresAt.After(s.now())
}

// snapshotFromCache intenta leer el snapshot desde Redis
func (s *ShareService) snapshotFromCache(token string) *models.ResolvedShare {
	if s.redis == nil {
		return nil
	}

	raw, err := s.redis.Get(snapshotKey(token))
	if err != nil {
		if !database.IsCacheMiss(err) {
			s.logger.WithError(err).Warn("Error reading share snapshot from cache")
		}
		return nil
	}

	var resolved models.ResolvedShare
	if err := json.Unmarshal([]byte(raw), &resolved); err != nil {
		s.logger.WithError(err).Warn("Error unmarshaling cached share snapshot")
		return nil
	}

	return &resolved
}

// snapshotToCache guarda el snapshot en Redis de forma best-effort
func (s *ShareService) snapshotToCache(token string, resolved *models.ResolvedShare) {
	if s.redis == nil {
		return
	}

	raw, err := json.Marshal(resolved)
	if err != nil {
		return
	}

	if err := s.redis.SetWithTTL(snapshotKey(token), string(raw), s.snapshotTTL); err != nil {
		s.logger.WithError(err).Warn("Error caching share snapshot")
	}
}

// invalidateSnapshot elimina el snapshot cacheado de un token
func (s *ShareService) invalidateSnapshot(token string) {
	if s.redis == nil {
		return
	}

	if err := s.redis.Delete(snapshotKey(token)); err != nil {
		s.logger.WithError(err).Warn("Error invalidating share snapshot")
	}
}

// snapshotKey construye la clave de caché de un token
func snapshotKey(token string) string {
	return "share:snapshot:" + token
}

// generateShareToken genera un token opaco e impredecible con fuente
// criptográfica; los tokens nunca se reutilizan.
func generateShareToken(length int) (string, error) {
	if length < 32 {
		length = 32
	}

	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	token := make([]byte, length)
	for i, b := range raw {
		// El alfabeto tiene exactamente 64 símbolos, el mapeo es uniforme
		token[i] = shareTokenAlphabet[b&63]
	}

	return string(token), nil
}
