// Package event publica eventos de domínio do catálogo (criação, atualização e remoção).
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"gocatalog/internal/pkg/logger"
)

// Tópicos por agregado.
const (
	TopicCategoryCreated = "catalog.category.created"
	TopicCategoryUpdated = "catalog.category.updated"
	TopicCategoryDeleted = "catalog.category.deleted"
	TopicProductCreated  = "catalog.product.created"
	TopicProductUpdated  = "catalog.product.updated"
	TopicProductDeleted  = "catalog.product.deleted"
)

const source = "gocatalog"

// publishTimeout limita quanto uma mutação já concluída espera pelo broker.
var publishTimeout = 2 * time.Second

// Event é o envelope publicado em todos os tópicos.
type Event struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Source      string          `json:"source"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// New monta um evento com id e timestamp. payload pode ser nil.
func New(topic, aggregateID string, payload interface{}) (Event, error) {
	e := Event{
		ID:          uuid.New().String(),
		Type:        topic,
		AggregateID: aggregateID,
		Source:      source,
		OccurredAt:  time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal payload: %w", err)
		}
		e.Payload = raw
	}
	return e, nil
}

// Publisher é o contrato usado pelos serviços. Falhas de publicação nunca desfazem a mutação.
type Publisher interface {
	Publish(ctx context.Context, topic string, e Event) error
	Close() error
}

// messageWriter é o subconjunto de *kafka.Writer usado pelo publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica eventos via segmentio/kafka-go.
type KafkaPublisher struct {
	writer messageWriter
	prefix string
	logger logger.Logger
}

// NewKafkaPublisher cria um publisher sobre os brokers informados.
// prefix é prefixado aos nomes de tópico (e.g., "prod." -> "prod.catalog.product.created").
func NewKafkaPublisher(brokers []string, prefix string, log logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           publishTimeout,
		MaxAttempts:            3,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, prefix, log)
}

func newKafkaPublisher(w messageWriter, prefix string, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, prefix: prefix, logger: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: p.prefix + topic,
		Key:   []byte(e.AggregateID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "source", Value: []byte(e.Source)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event to %s: %w", msg.Topic, err)
	}

	p.logger.Debug("Evento publicado.", map[string]interface{}{"topic": msg.Topic, "aggregate_id": e.AggregateID})
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher descarta eventos; usado quando KAFKA_BROKERS não está configurado.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, Event) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}

// Emit monta e publica um evento, apenas registrando falhas.
// A publicação tem prazo próprio e não herda o cancelamento da requisição.
func Emit(ctx context.Context, pub Publisher, log logger.Logger, topic, aggregateID string, payload interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	e, err := New(topic, aggregateID, payload)
	if err == nil {
		err = pub.Publish(ctx, topic, e)
	}
	if err != nil {
		log.Warn("Falha ao publicar evento.", map[string]interface{}{"topic": topic, "aggregate_id": aggregateID, "error": err.Error()})
	}
}
