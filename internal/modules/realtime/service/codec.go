package service

import (
	"time"

	"github.com/bytedance/sonic"

	"rate_monitor/internal/models"
)

// FrameKind: вариант входящего кадра, определяется один раз на границе соединения.
type FrameKind int

const (
	FrameUnrecognized FrameKind = iota
	FrameAck
	FrameTick
)

func (k FrameKind) String() string {
	switch k {
	case FrameAck:
		return "ack"
	case FrameTick:
		return "tick"
	default:
		return "unrecognized"
	}
}

// Frame: декодированный входящий кадр. Tick заполнен только для FrameTick.
type Frame struct {
	Kind FrameKind
	Tick models.Tick
}

type inboundDto struct {
	InstrumentID string `json:"instrumentId"`
	Provider     string `json:"provider"`
	Type         string `json:"type"`
	Last         *struct {
		Price     *float64  `json:"price"`
		Timestamp time.Time `json:"timestamp"`
		Change    float64   `json:"change"`
		ChangePct float64   `json:"changePct"`
		Volume    float64   `json:"volume"`
	} `json:"last"`
}

// DecodeFrame: тиком считается только объект с полем last, ценой и инструментом.
// Остальные валидные объекты считаются ack, всё прочее unrecognized.
func DecodeFrame(b []byte) Frame {
	var dto inboundDto
	if err := sonic.Unmarshal(b, &dto); err != nil {
		return Frame{Kind: FrameUnrecognized}
	}
	if dto.Last == nil {
		return Frame{Kind: FrameAck}
	}
	if dto.InstrumentID == "" || dto.Last.Price == nil {
		return Frame{Kind: FrameUnrecognized}
	}
	return Frame{
		Kind: FrameTick,
		Tick: models.Tick{
			InstrumentID: dto.InstrumentID,
			Provider:     dto.Provider,
			Last: models.LastQuote{
				Price:     *dto.Last.Price,
				Timestamp: dto.Last.Timestamp,
				Change:    dto.Last.Change,
				ChangePct: dto.Last.ChangePct,
				Volume:    dto.Last.Volume,
			},
		},
	}
}

func EncodeSubscription(msg models.SubscriptionMessage) ([]byte, error) {
	return sonic.Marshal(msg)
}
