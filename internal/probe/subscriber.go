package probe

import (
	"log"

	"github.com/nats-io/nats.go"
)

// ReportHandler processes a received counter report.
type ReportHandler func(report *CounterReport)

// Subscriber is responsible for subscribing to a NATS subject and decoding reports.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(natsURL, subject string) (*Subscriber, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", natsURL)
	return &Subscriber{nc: nc, subject: subject}, nil
}

// Start subscribes to the subject and hands every decoded report to handler.
func (s *Subscriber) Start(handler ReportHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		report, err := Decode(msg.Data)
		if err != nil {
			log.Printf("Error decoding counter report: %v", err)
			return
		}
		handler(report)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for counter reports...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
}
