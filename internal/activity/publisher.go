package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Astemirdum/library-client/pkg/kafka"
	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Action string

const (
	ActionLogin  Action = "login"
	ActionBorrow Action = "borrow"
	ActionReturn Action = "return"
	ActionDelete Action = "delete"
)

type Event struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Action   Action    `json:"action"`
	BookID   int       `json:"book_id,omitempty"`
	At       time.Time `json:"at"`
}

func NewEvent(username string, action Action, bookID int) Event {
	return Event{
		ID:       uuid.NewString(),
		Username: username,
		Action:   action,
		BookID:   bookID,
		At:       time.Now().UTC(),
	}
}

// Publisher ships user actions to the stats topic.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

func NewPublisher(producer sarama.SyncProducer, topic string, log *zap.Logger) Publisher {
	if producer == nil {
		return Noop{}
	}
	if topic == "" {
		topic = kafka.ActivityTopic
	}
	return &publisherImpl{
		producer: producer,
		topic:    topic,
		log:      log.Named("activity"),
	}
}

type publisherImpl struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

func (p *publisherImpl) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.Username),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return errors.Wrapf(err, "publish %s", ev.Action)
	}
	p.log.Debug("published", zap.String("action", string(ev.Action)),
		zap.Int32("partition", partition), zap.Int64("offset", offset))
	return nil
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
