package workflows

import (
	"context"
	"fmt"

	"github.com/hypernova-labs/factura-service/internal/config"
	"github.com/hypernova-labs/factura-service/internal/database"
	"github.com/inngest/inngestgo"
	"github.com/sirupsen/logrus"
)

// Nombres de eventos emitidos por el servicio
const (
	EventShareCreated = "share/created"
	EventShareRevoked = "share/revoked"
)

// InngestClient maneja la configuración y registro de workflows
type InngestClient struct {
	client inngestgo.Client
	logger *logrus.Logger
}

// NewInngestClient crea una nueva instancia del cliente
func NewInngestClient(cfg *config.Config, logger *logrus.Logger) (*InngestClient, error) {
	// Verificar que las credenciales estén configuradas
	if cfg.Inngest.EventKey == "" {
		return nil, fmt.Errorf("INNGEST_EVENT_KEY not configured")
	}

	if cfg.Inngest.SigningKey == "" {
		return nil, fmt.Errorf("INNGEST_SIGNING_KEY not configured")
	}

	client, err := inngestgo.NewClient(inngestgo.ClientOpts{
		EventKey:   &cfg.Inngest.EventKey,
		SigningKey: &cfg.Inngest.SigningKey,
		AppID:      cfg.Inngest.AppID,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating Inngest client: %w", err)
	}

	return &InngestClient{
		client: client,
		logger: logger,
	}, nil
}

// RegisterWorkflows registra los workflows con Inngest
func (c *InngestClient) RegisterWorkflows(shareRepo *database.ShareRepository) error {
	c.logger.Info("Registering workflows with Inngest")

	workflow := NewShareWorkflow(c.client, c.logger, shareRepo)
	if err := workflow.Register(); err != nil {
		return fmt.Errorf("error registering share workflow: %w", err)
	}

	return nil
}

// SendEvent emite un evento de forma asíncrona; los fallos se registran
// pero nunca interrumpen la operación que los originó.
func (c *InngestClient) SendEvent(ctx context.Context, name string, data map[string]interface{}) {
	if c == nil {
		return
	}

	if _, err := c.client.Send(ctx, inngestgo.Event{
		Name: name,
		Data: data,
	}); err != nil {
		c.logger.WithError(err).Warnf("Error sending Inngest event %s", name)
	}
}

// GetClient retorna el cliente de Inngest
func (c *InngestClient) GetClient() inngestgo.Client {
	return c.client
}
