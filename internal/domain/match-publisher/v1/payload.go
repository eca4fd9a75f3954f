package matchpublisherv1

import (
	"encoding/json"

	orderbookv1 "github.com/dizhouwu/QuantBeat/internal/domain/orderbook/v1"
)

// MatchEventPayload is the wire form of one trade on the matches topic.
type MatchEventPayload struct {
	Pair         string           `json:"pair"`
	Sequence     uint64           `json:"sequence"`
	TakerSide    orderbookv1.Side `json:"takerSide"`
	Price        int64            `json:"price"`
	Size         int64            `json:"size"`
	TakerOrderID string           `json:"takerOrderID"`
	MakerOrderID string           `json:"makerOrderID"`
	TakerUserID  string           `json:"takerUserID"`
	MakerUserID  string           `json:"makerUserID"`
	Timestamp    int64            `json:"timestamp"`
}

// FromTrade builds a match event from an executed trade.
func FromTrade(pair string, trade orderbookv1.Trade) *MatchEventPayload {
	return &MatchEventPayload{
		Pair:         pair,
		Sequence:     trade.Sequence,
		TakerSide:    trade.TakerSide,
		Price:        trade.Price,
		Size:         trade.Size,
		TakerOrderID: trade.TakerOrderID,
		MakerOrderID: trade.MakerOrderID,
		TakerUserID:  trade.TakerUserID,
		MakerUserID:  trade.MakerUserID,
		Timestamp:    trade.Timestamp,
	}
}

// ToBytes serializes a match event payload for publication.
func ToBytes(payload *MatchEventPayload) []byte {
	buf, _ := json.Marshal(payload)
	return buf
}
