package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Astemirdum/bookstore/pkg/kafka"
	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	TypeSearchSubmitted = "search.submitted"
	TypeReviewSaved     = "review.saved"
)

type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Keyword   string    `json:"keyword,omitempty"`
	BookID    int64     `json:"bookId,omitempty"`
}

func SearchSubmitted(keyword string) Event {
	return Event{ID: uuid.New(), Type: TypeSearchSubmitted, Timestamp: time.Now().UTC(), Keyword: keyword}
}

func ReviewSaved(bookID int64) Event {
	return Event{ID: uuid.New(), Type: TypeReviewSaved, Timestamp: time.Now().UTC(), BookID: bookID}
}

func (e Event) topic() string {
	if e.Type == TypeReviewSaved {
		return kafka.ReviewTopic
	}
	return kafka.SearchTopic
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

func NewPublisher(producer sarama.SyncProducer, log *zap.Logger) Publisher {
	if producer == nil {
		return nopPublisher{}
	}
	return &kafkaPublisher{producer: producer, log: log.Named("events")}
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	log      *zap.Logger
}

func (p *kafkaPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: e.topic(),
		Key:   sarama.StringEncoder(e.ID.String()),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return errors.Wrap(err, "producer.SendMessage")
	}
	p.log.Debug("published", zap.String("type", e.Type), zap.Int32("partition", partition), zap.Int64("offset", offset))
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
func (nopPublisher) Close() error                        { return nil }
