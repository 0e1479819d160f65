package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rate_monitor/internal/models"
)

func TestDecodeFrame(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		kind FrameKind
	}{
		{"tick", `{"type":"l1-update","instrumentId":"i1","provider":"simulation","last":{"timestamp":"2024-01-01T10:00:00Z","price":1.0823,"volume":10,"change":0.001,"changePct":0.1}}`, FrameTick},
		{"ack", `{"type":"l1-subscription","id":"1","instrumentId":"i1","provider":"simulation","quote":{}}`, FrameAck},
		{"session frame", `{"type":"session","sessionId":"abc"}`, FrameAck},
		{"tick without price", `{"instrumentId":"i1","last":{"timestamp":"2024-01-01T10:00:00Z"}}`, FrameUnrecognized},
		{"tick without instrument", `{"last":{"timestamp":"2024-01-01T10:00:00Z","price":1}}`, FrameUnrecognized},
		{"not json", `hello`, FrameUnrecognized},
		{"array", `[1,2]`, FrameUnrecognized},
		{"empty", ``, FrameUnrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DecodeFrame([]byte(tt.raw))
			assert.Equal(t, tt.kind, f.Kind, "kind %s", f.Kind)
			if tt.kind != FrameTick {
				assert.Equal(t, models.Tick{}, f.Tick)
			}
		})
	}

	f := DecodeFrame([]byte(tests[0].raw))
	require.Equal(t, FrameTick, f.Kind)
	assert.Equal(t, "i1", f.Tick.InstrumentID)
	assert.Equal(t, "simulation", f.Tick.Provider)
	assert.Equal(t, 1.0823, f.Tick.Last.Price)
	assert.True(t, f.Tick.Last.Timestamp.Equal(ts))
	assert.Equal(t, 10.0, f.Tick.Last.Volume)
}

func TestDecodeFrame_ZeroPriceIsTick(t *testing.T) {
	f := DecodeFrame([]byte(`{"instrumentId":"i1","last":{"timestamp":"2024-01-01T10:00:00Z","price":0}}`))
	assert.Equal(t, FrameTick, f.Kind)
	assert.Zero(t, f.Tick.Last.Price)
}

func TestEncodeSubscription(t *testing.T) {
	b, err := EncodeSubscription(models.SubscriptionMessage{
		ID:           "7",
		Type:         models.SubscriptionType,
		InstrumentID: "i1",
		Provider:     "simulation",
		Subscribe:    false,
		Kinds:        []string{models.KindLast},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7","type":"l1-subscription","instrumentId":"i1","provider":"simulation","subscribe":false,"kinds":["last"]}`, string(b))
}

func TestFrameKindString(t *testing.T) {
	assert.Equal(t, "tick", FrameTick.String())
	assert.Equal(t, "ack", FrameAck.String())
	assert.Equal(t, "unrecognized", FrameUnrecognized.String())
}
