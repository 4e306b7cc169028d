package services

import (
	"context"
	"io"

	"farmacia/internal/models"
)

// Routing keys of the domain events published after successful writes.
const (
	EventMedicamentoCreated          = "medicamento.created"
	EventMedicamentoUpdated          = "medicamento.updated"
	EventMedicamentoSituacaoAlterada = "medicamento.situacao_alterada"
	EventLaboratorioCreated          = "laboratorio.created"
)

// EventPublisher is implemented by *rabbitmq.Client.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// SelectCache is implemented by *cache.RedisSelectCache.
type SelectCache interface {
	Get(ctx context.Context) ([]models.MedicamentoSelectOption, bool, error)
	Set(ctx context.Context, options []models.MedicamentoSelectOption) error
	Invalidate(ctx context.Context) error
}

// Upload is an image received with a create or update request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}
