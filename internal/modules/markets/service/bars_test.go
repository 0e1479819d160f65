package service

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rate_monitor/internal/models"
)

const barsPath = "/api/bars/v1/bars/date-range"

func okBars(url.Values) (int, any) {
	return http.StatusOK, map[string]any{
		"data": []map[string]any{
			{"o": 1.1, "h": 1.2, "l": 1.0, "c": 1.15, "t": "2024-01-01T10:00:00Z"},
			{"o": 1.15, "h": 1.3, "l": 1.1, "c": 1.25, "t": "2024-01-01T11:00:00Z"},
		},
	}
}

func TestGetDateRangeRequestShape(t *testing.T) {
	v := newFakeVendor(t)
	v.bars = okBars
	c, _ := loggedInClient(t, v)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 23, 59, 59, 999, time.UTC)
	got := c.GetDateRange(context.Background(), "i1", start, end, "hour")

	require.Len(t, got, 2)
	require.Equal(t, 1.15, got[0].Close)
	require.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), got[1].Timestamp.UTC())

	v.mu.Lock()
	defer v.mu.Unlock()
	q := v.queries[0]
	require.Equal(t, "i1", q.Get("instrumentId"))
	require.Equal(t, "1", q.Get("interval"))
	require.Equal(t, "hour", q.Get("periodicity"))
	require.Equal(t, "simulation", q.Get("provider"))
	require.Equal(t, "2024-01-01", q.Get("startDate"))
	require.Equal(t, "2024-01-03", q.Get("endDate"))
	require.Equal(t, "Bearer tok-1", v.authHeaders[0])
}

func TestGetDateRangeDoubleUnauthorizedLogsOut(t *testing.T) {
	v := newFakeVendor(t)
	v.bars = okBars
	c, m := loggedInClient(t, v)
	v.set(func(v *fakeVendor) { v.acceptFrom = 1 << 30 })

	got := c.GetDateRange(context.Background(), "i1", time.Now(), time.Now(), "hour")

	require.Nil(t, got)
	require.Equal(t, 2, v.loginCount(), "exactly one re-login")
	require.Equal(t, 2, v.requestCount(barsPath), "exactly one retry")
	require.False(t, m.LoggedIn())
	require.Equal(t, "", m.Token())
}

func TestGetDateRangeReloginFailureLogsOut(t *testing.T) {
	v := newFakeVendor(t)
	v.bars = okBars
	c, m := loggedInClient(t, v)
	v.set(func(v *fakeVendor) {
		v.acceptFrom = 2
		v.loginStatus = http.StatusUnauthorized
	})

	require.Nil(t, c.GetDateRange(context.Background(), "i1", time.Now(), time.Now(), "hour"))
	require.Equal(t, 1, v.requestCount(barsPath))
	require.False(t, m.LoggedIn())
}

func TestGetDateRangeEmptyData(t *testing.T) {
	v := newFakeVendor(t)
	v.bars = func(url.Values) (int, any) { return http.StatusOK, map[string]any{} }
	c, _ := loggedInClient(t, v)

	got := c.GetDateRange(context.Background(), "i1", time.Now(), time.Now(), "day")
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestGetDateRangeRejectsMissingArgs(t *testing.T) {
	v := newFakeVendor(t)
	c, _ := loggedInClient(t, v)

	require.Nil(t, c.GetDateRange(context.Background(), "", time.Now(), time.Now(), "hour"))
	require.Nil(t, c.GetDateRange(context.Background(), "i1", time.Now(), time.Now(), ""))
	require.Zero(t, v.requestCount(barsPath))
}

func TestChartSeries(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := models.ChartSeries([]models.Bar{{Open: 1, High: 2, Low: 0.5, Close: 1.5, Timestamp: ts}})

	require.Len(t, series, 4)
	require.Equal(t, "O", series[0].Name)
	require.Equal(t, 2.0, series[1].Series[0].Value)
	require.Equal(t, "C", series[3].Name)
	require.Equal(t, ts, series[3].Series[0].Name)
	require.Nil(t, models.ChartSeries(nil))
}
