package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"cinema-ticketing/internal/models"
)

const (
	TopicBookingCreated  = "cinema.bookings.created"
	TopicBookingRedeemed = "cinema.bookings.redeemed"
)

type Producer struct {
	CreatedWriter  *kafka.Writer
	RedeemedWriter *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		CreatedWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   TopicBookingCreated,
		}),
		RedeemedWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   TopicBookingRedeemed,
		}),
	}
}

// PublishBookingCreated streams the committed booking to Kafka. Messages
// are keyed by showtime so consumers see bookings for one screening in
// order.
func (p *Producer) PublishBookingCreated(b models.Booking) error {
	msgBytes, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return p.CreatedWriter.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(b.ShowtimeID),
			Value: msgBytes,
		},
	)
}

// PublishBookingRedeemed streams the redemption event to Kafka.
func (p *Producer) PublishBookingRedeemed(b models.Booking) error {
	msgBytes, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return p.RedeemedWriter.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(b.ShowtimeID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	if err := p.CreatedWriter.Close(); err != nil {
		return err
	}
	return p.RedeemedWriter.Close()
}
