package service

import (
	"context"
	"net/url"
	"time"

	"rate_monitor/internal/models"
	"rate_monitor/pkg/logger"
)

const dateLayout = "2006-01-02"

// GetDateRange: OHLC-бары инструмента за диапазон дат (время суток отбрасывается, UTC).
// Та же политика 401, что у каталога; nil: неудача.
func (c *Client) GetDateRange(ctx context.Context, instrumentID string, start, end time.Time, periodicity string) []models.Bar {
	if instrumentID == "" || periodicity == "" {
		return nil
	}
	if err := c.sess.WaitLoggedIn(ctx); err != nil {
		return nil
	}

	params := url.Values{}
	params.Set("instrumentId", instrumentID)
	params.Set("interval", "1")
	params.Set("periodicity", periodicity)
	params.Set("provider", c.cfg.API.Provider)
	params.Set("startDate", start.UTC().Format(dateLayout))
	params.Set("endDate", end.UTC().Format(dateLayout))

	var resp models.BarsResponseDto
	if err := c.getJSON(ctx, c.cfg.DateRangeURL(), params, &resp); err != nil {
		logger.Error("[MARKETS] bars %s %s: %v", instrumentID, periodicity, err)
		return nil
	}
	if resp.Data == nil {
		return []models.Bar{}
	}
	return resp.Data
}
