package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/hypernova-labs/factura-service/internal/database"
	"github.com/inngest/inngestgo"
	"github.com/sirupsen/logrus"
)

// expiredShareGrace es el periodo de gracia antes de eliminar físicamente
// un share expirado; mientras tanto el share expirado simplemente no
// resuelve.
const expiredShareGrace = 24 * time.Hour

// ShareWorkflow maneja el mantenimiento periódico de los shares:
// el barrido elimina los registros cuya expiración ya pasó.
type ShareWorkflow struct {
	client    inngestgo.Client
	logger    *logrus.Logger
	shareRepo *database.ShareRepository
}

// NewShareWorkflow crea una nueva instancia del workflow
func NewShareWorkflow(client inngestgo.Client, logger *logrus.Logger, shareRepo *database.ShareRepository) *ShareWorkflow {
	return &ShareWorkflow{
		client:    client,
		logger:    logger,
		shareRepo: shareRepo,
	}
}

// Register registra las funciones del workflow con Inngest
func (w *ShareWorkflow) Register() error {
	_, err := inngestgo.CreateFunction(
		w.client,
		inngestgo.FunctionOpts{
			ID:   "share-expiry-sweep",
			Name: "Share expiry sweep",
		},
		inngestgo.CronTrigger("0 3 * * *"),
		w.SweepExpiredShares,
	)
	if err != nil {
		return fmt.Errorf("error creating share expiry sweep function: %w", err)
	}

	return nil
}

// SweepExpiredShares elimina los shares expirados fuera del periodo de gracia
func (w *ShareWorkflow) SweepExpiredShares(ctx context.Context, input inngestgo.Input[SweepInput]) (any, error) {
	deleted, err := w.shareRepo.DeleteExpired(expiredShareGrace)
	if err != nil {
		w.logger.WithError(err).Error("Error sweeping expired shares")
		return nil, err
	}

	w.logger.WithFields(logrus.Fields{
		"deleted": deleted,
	}).Info("Expired shares swept")

	return &SweepOutput{
		Deleted:     deleted,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// SweepInput representa el input del barrido (vacío para el cron)
type SweepInput struct{}

// SweepOutput representa el resultado del barrido
type SweepOutput struct {
	Deleted     int64  `json:"deleted"`
	CompletedAt string `json:"completed_at"`
}
