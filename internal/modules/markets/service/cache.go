package service

import (
	"context"
	"sync"

	"rate_monitor/internal/models"
	"rate_monitor/pkg/logger"
)

// Cache держит последний каталог каждого рынка. Каталоги обновляет WatchInstruments
// на каждом логине и сбрасывает на logout. Бары идут мимо кэша напрямую в Client.
type Cache struct {
	*Client

	mu    sync.RWMutex
	lists map[models.MarketKind][]models.Instrument

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCache(c *Client) *Cache {
	return &Cache{
		Client: c,
		lists:  map[models.MarketKind][]models.Instrument{},
	}
}

// Start запускает наблюдение за каталогами kinds до Stop.
func (c *Cache) Start(ctx context.Context, kinds ...models.MarketKind) {
	ctx, c.cancel = context.WithCancel(ctx)
	for _, kind := range kinds {
		stream := c.WatchInstruments(ctx, kind)
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for items := range stream {
				c.mu.Lock()
				c.lists[kind] = items
				c.mu.Unlock()
				logger.Debug("[MARKETS] cache %s: %d instruments", kind, len(items))
			}
		}()
	}
}

func (c *Cache) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.wg.Wait()
}

// GetInstruments отдаёт каталог из кэша, а пока его нет: обычную выборку через Client.
func (c *Cache) GetInstruments(ctx context.Context, kind models.MarketKind) []models.Instrument {
	c.mu.RLock()
	items, ok := c.lists[kind]
	c.mu.RUnlock()
	if ok && items != nil {
		return items
	}
	return c.Client.GetInstruments(ctx, kind)
}
