package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rate_monitor/internal/models"
)

func TestMemory_LoadSave(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Load(ctx, "default")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	p := models.Preferences{
		MarketKind:   models.MarketStock,
		InstrumentID: "i7",
		Periodicity:  "day",
		UpdatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, m.Save(ctx, "default", p))

	got, err := m.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = m.Load(ctx, "other")
	assert.True(t, errors.Is(err, ErrNotFound))
}
