package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/romcheg/offline-cards/internal/comm"
)

type Broker struct {
	Conn      *nats.Conn
	Broadcast func(*comm.WSMessage) int
}

func NewBroker(conn *nats.Conn, fncBroadcast func(*comm.WSMessage) int) *Broker {
	return &Broker{
		Conn:      conn,
		Broadcast: fncBroadcast,
	}
}

// Subscribe consumes wallet events from the given subject.
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// handleMessages relays a wallet event to every web client.
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, message); err != nil {
		log.Errorf("Error: malformed event on %s: %s", msgNats.Subject, err)
		return
	}

	switch message.Type {
	case comm.TypeCardsChanged:
		n := b.Broadcast(message)
		log.Debugf("relayed %s to %d sockets", message.Type, n)
	default:
		log.Warnf("unknown message type %q on %s", message.Type, msgNats.Subject)
	}
}
