package models

import "time"

// Preferences: сохранённое состояние виджета, восстанавливается при старте.
type Preferences struct {
	MarketKind   MarketKind `json:"marketKind"`
	InstrumentID string     `json:"instrumentId"`
	Periodicity  string     `json:"periodicity"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
