package comm

import (
	"encoding/json"
	"time"
)

// Subjects shared by the wallet and notify services.
const (
	CardsSubject = "wallet.cards"

	TypeCardsChanged = "cards-changed"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "cards-changed"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
}

// CardsChanged tells list views which card numbers moved in one mutation.
type CardsChanged struct {
	Inserted  []string  `json:"inserted,omitempty"`
	Updated   []string  `json:"updated,omitempty"`
	Deleted   []string  `json:"deleted,omitempty"`
	Erased    bool      `json:"erased,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
