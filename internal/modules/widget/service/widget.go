package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"rate_monitor/internal/models"
	"rate_monitor/internal/modules/config"
	markets "rate_monitor/internal/modules/markets/service"
	preferences "rate_monitor/internal/modules/preferences/service"
	"rate_monitor/pkg/logger"
)

type Catalog interface {
	GetInstruments(ctx context.Context, kind models.MarketKind) []models.Instrument
	GetDateRange(ctx context.Context, instrumentID string, start, end time.Time, periodicity string) []models.Bar
}

type Selection interface {
	Current() string
	Set(id string) bool
}

type Realtime interface {
	Latest() *models.RealtimeData
	Teardown()
}

// Widget хранит состояние виджета курса: тип рынка, выбранный инструмент, период графика.
// Выбор инструмента хранит Selection, здесь только правила вокруг него.
type Widget struct {
	cfg     *config.Config
	catalog Catalog
	sel     Selection
	rt      Realtime
	store   preferences.Store
	now     func() time.Time

	mu          sync.RWMutex
	kind        models.MarketKind
	periodicity string
}

func NewWidget(cfg *config.Config, catalog Catalog, sel Selection, rt Realtime, store preferences.Store) *Widget {
	kind, ok := models.ParseMarketKind(cfg.Widget.MarketKind)
	if !ok {
		kind = models.MarketKinds[0]
	}
	return &Widget{
		cfg:         cfg,
		catalog:     catalog,
		sel:         sel,
		rt:          rt,
		store:       store,
		now:         time.Now,
		kind:        kind,
		periodicity: cfg.Widget.Periodicity,
	}
}

// Restore поднимает сохранённые настройки профиля. Нет записи: остаются дефолты.
func (w *Widget) Restore(ctx context.Context) error {
	p, err := w.store.Load(ctx, w.cfg.Widget.Profile)
	if err != nil {
		if errors.Is(err, preferences.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "restore preferences")
	}

	w.mu.Lock()
	if kind, ok := models.ParseMarketKind(string(p.MarketKind)); ok {
		w.kind = kind
	}
	if p.Periodicity != "" {
		w.periodicity = p.Periodicity
	}
	w.mu.Unlock()

	w.sel.Set(p.InstrumentID)
	logger.Info("[WIDGET] restored profile %q: kind=%s instrument=%q", w.cfg.Widget.Profile, p.MarketKind, p.InstrumentID)
	return nil
}

func (w *Widget) MarketKind() models.MarketKind {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.kind
}

func (w *Widget) Periodicity() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.periodicity
}

// SetMarketKind переключает рынок и сбрасывает выбор: старый инструмент
// в новом каталоге не встречается.
func (w *Widget) SetMarketKind(ctx context.Context, raw string) error {
	kind, ok := models.ParseMarketKind(raw)
	if !ok {
		return errors.Wrapf(models.ErrUnknownMarketKind, "%q", raw)
	}

	w.mu.Lock()
	if w.kind == kind {
		w.mu.Unlock()
		return nil
	}
	w.kind = kind
	w.mu.Unlock()

	w.sel.Set("")
	w.persist(ctx)
	return nil
}

// Instruments: каталог выбранного (или явно переданного) рынка с фильтром по символу.
// nil: каталог недоступен.
func (w *Widget) Instruments(ctx context.Context, rawKind, filter string) ([]models.Instrument, error) {
	kind := w.MarketKind()
	if rawKind != "" {
		k, ok := models.ParseMarketKind(rawKind)
		if !ok {
			return nil, errors.Wrapf(models.ErrUnknownMarketKind, "%q", rawKind)
		}
		kind = k
	}
	return markets.FilterBySymbol(w.catalog.GetInstruments(ctx, kind), filter), nil
}

func (w *Widget) Selected() string {
	return w.sel.Current()
}

// Select меняет активный инструмент. Пустой id снимает выбор.
func (w *Widget) Select(ctx context.Context, instrumentID string) {
	if w.sel.Set(strings.TrimSpace(instrumentID)) {
		w.persist(ctx)
	}
}

func (w *Widget) Realtime() *models.RealtimeData {
	return w.rt.Latest()
}

func (w *Widget) Teardown() {
	w.rt.Teardown()
}

type BarsRequest struct {
	Start       time.Time
	End         time.Time
	Periodicity string
}

// Bars: история по выбранному инструменту. Диапазон расширяется до целых дней:
// начало в 00:00:00, конец в 23:59:59.999, и должен лежать в последних RangeDays днях.
func (w *Widget) Bars(ctx context.Context, req BarsRequest) ([]models.Bar, error) {
	id := w.sel.Current()
	if id == "" {
		return nil, models.ErrNoSelection
	}
	start, end, err := w.normalizeRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	periodicity := req.Periodicity
	if periodicity == "" {
		periodicity = w.Periodicity()
	} else if periodicity != w.Periodicity() {
		w.mu.Lock()
		w.periodicity = periodicity
		w.mu.Unlock()
		w.persist(ctx)
	}

	bars := w.catalog.GetDateRange(ctx, id, start, end, periodicity)
	if bars == nil {
		return nil, errors.Wrapf(models.ErrRequest, "bars for %s", id)
	}
	return bars, nil
}

func (w *Widget) normalizeRange(start, end time.Time) (time.Time, time.Time, error) {
	today := startOfDay(w.now())
	if start.IsZero() {
		start = today
	}
	if end.IsZero() {
		end = today
	}

	start = startOfDay(start)
	end = startOfDay(end).Add(24*time.Hour - time.Millisecond)

	earliest := today.AddDate(0, 0, -w.cfg.Widget.RangeDays)
	latest := today.Add(24*time.Hour - time.Millisecond)

	switch {
	case start.After(end):
		return time.Time{}, time.Time{}, errors.Wrap(models.ErrInvalidRange, "start after end")
	case start.Before(earliest):
		return time.Time{}, time.Time{}, errors.Wrapf(models.ErrInvalidRange, "start before %s", earliest.Format(time.DateOnly))
	case end.After(latest):
		return time.Time{}, time.Time{}, errors.Wrap(models.ErrInvalidRange, "end in the future")
	}
	return start, end, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (w *Widget) persist(ctx context.Context) {
	w.mu.RLock()
	p := models.Preferences{
		MarketKind:   w.kind,
		InstrumentID: w.sel.Current(),
		Periodicity:  w.periodicity,
		UpdatedAt:    w.now().UTC(),
	}
	w.mu.RUnlock()

	if err := w.store.Save(ctx, w.cfg.Widget.Profile, p); err != nil {
		logger.Warn("[WIDGET] save preferences: %v", err)
	}
}
