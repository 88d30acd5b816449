package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/romcheg/offline-cards/internal/comm"
)

// Broker publishes collection changes for the notify service.
type Broker struct {
	Conn *nats.Conn
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{Conn: nc}
}

// CardsChanged publishes ev on the cards subject. Failures are logged; the
// mutation that caused the event has already been committed.
func (b *Broker) CardsChanged(ev comm.CardsChanged) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("[CardsChanged] unable to marshal event: %s", err)
		return
	}

	msg := &comm.WSMessage{
		Type: comm.TypeCardsChanged,
		Data: data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	b.Publish(comm.CardsSubject, payload)
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
