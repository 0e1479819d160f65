package models

import "time"

const (
	SubscriptionType = "l1-subscription"

	KindLast = "last"
	KindBid  = "bid"
	KindAsk  = "ask"
)

// SubscriptionMessage: исходящий кадр подписки/отписки в стриме.
type SubscriptionMessage struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	InstrumentID string   `json:"instrumentId"`
	Provider     string   `json:"provider"`
	Subscribe    bool     `json:"subscribe"`
	Kinds        []string `json:"kinds"`
}

// LastQuote: поле last входящего тика.
type LastQuote struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"changePct"`
	Volume    float64   `json:"volume"`
}

// Tick: принятое обновление цены по инструменту.
type Tick struct {
	InstrumentID string
	Provider     string
	Last         LastQuote
}

// RealtimeData: последняя цена и её время, то, что видит виджет.
type RealtimeData struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
