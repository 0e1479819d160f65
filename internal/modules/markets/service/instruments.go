package service

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"rate_monitor/internal/models"
	"rate_monitor/pkg/logger"
)

// GetInstruments ждёт логина и возвращает весь каталог рынка.
// nil: неудача (уже залогирована), наружу ошибки не уходят.
func (c *Client) GetInstruments(ctx context.Context, kind models.MarketKind) []models.Instrument {
	if _, ok := models.ParseMarketKind(string(kind)); !ok {
		logger.Warn("[MARKETS] unknown market kind %q", kind)
		return nil
	}
	if err := c.sess.WaitLoggedIn(ctx); err != nil {
		return nil
	}

	res, err := c.fetchInstruments(ctx, kind)
	if err != nil {
		logger.Error("[MARKETS] instruments %s: %v", kind, err)
		return nil
	}
	return res
}

// fetchInstruments: вся цепочка страниц под одной политикой авторизации, чтобы 401
// на нескольких страницах сразу давал один перелогин, а не по одному на страницу.
func (c *Client) fetchInstruments(ctx context.Context, kind models.MarketKind) ([]models.Instrument, error) {
	var res []models.Instrument
	err := c.withRelogin(ctx, c.cfg.InstrumentsURL(), func(ctx context.Context) error {
		var err error
		res, err = c.fetchPages(ctx, kind)
		return err
	})
	return res, err
}

// fetchPages: первая страница, затем 2..N параллельно; склейка в порядке страниц,
// а не в порядке прихода ответов.
func (c *Client) fetchPages(ctx context.Context, kind models.MarketKind) ([]models.Instrument, error) {
	params := func(page int) url.Values {
		v := url.Values{}
		v.Set("kind", string(kind))
		v.Set("provider", c.cfg.API.Provider)
		v.Set("page", strconv.Itoa(page))
		return v
	}

	var first models.InstrumentsResponseDto
	if err := c.fetch(ctx, c.cfg.InstrumentsURL(), params(1), &first); err != nil {
		return nil, err
	}

	dtos := first.Data
	if pages := first.Paging.Pages; pages > 1 {
		rest := make([][]models.InstrumentDto, pages-1)

		g, gctx := errgroup.WithContext(ctx)
		for page := 2; page <= pages; page++ {
			g.Go(func() error {
				var resp models.InstrumentsResponseDto
				if err := c.fetch(gctx, c.cfg.InstrumentsURL(), params(page), &resp); err != nil {
					return err
				}
				rest[page-2] = resp.Data
				return nil
			})
		}
		// первая ошибка errgroup: та, что вызвала отмену, остальные уже context canceled
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, data := range rest {
			dtos = append(dtos, data...)
		}
	}

	logger.Debug("[MARKETS] %s: %d instruments, %d pages", kind, len(dtos), first.Paging.Pages)
	return Normalize(dtos), nil
}

// Normalize сводит DTO к плоским Instrument. company: только у акций,
// markets: ключи mappings (отсортированы).
func Normalize(dtos []models.InstrumentDto) []models.Instrument {
	out := make([]models.Instrument, 0, len(dtos))
	for _, d := range dtos {
		markets := make([]string, 0, len(d.Mappings))
		for k := range d.Mappings {
			markets = append(markets, k)
		}
		sort.Strings(markets)

		inst := models.Instrument{
			ID:           d.ID,
			Symbol:       d.Symbol,
			Kind:         d.Kind,
			Currency:     d.Currency,
			BaseCurrency: d.BaseCurrency,
			Markets:      markets,
		}
		if d.Kind == "stock" {
			inst.Company = d.Profile.Name
		}
		out = append(out, inst)
	}
	return out
}

// FilterBySymbol ищет подстроку в символе без учёта регистра. Пустой запрос возвращает всё.
func FilterBySymbol(list []models.Instrument, query string) []models.Instrument {
	if list == nil {
		return nil
	}
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := make([]models.Instrument, 0, len(list))
	for _, inst := range list {
		if strings.Contains(strings.ToUpper(inst.Symbol), q) {
			out = append(out, inst)
		}
	}
	return out
}

type fetchResult struct {
	gen   int
	items []models.Instrument
}

// WatchInstruments, потоковая форма каталога: новая выборка на каждый переход в логин,
// nil на logout. Незавершённая выборка отменяется при смене состояния. Канал закрывается с ctx.
func (c *Client) WatchInstruments(ctx context.Context, kind models.MarketKind) <-chan []models.Instrument {
	out := make(chan []models.Instrument, 1)
	events := make(chan bool, 16)

	unsubscribe := c.sess.Subscribe(func(loggedIn bool) {
		select {
		case events <- loggedIn:
		case <-ctx.Done():
		}
	})

	go func() {
		defer close(out)
		defer unsubscribe()

		results := make(chan fetchResult)
		cancelFetch := func() {}
		defer func() { cancelFetch() }()

		gen := 0
		started := false
		last := false

		emit := func(items []models.Instrument) bool {
			select {
			case out <- items:
				return true
			case <-ctx.Done():
				return false
			}
		}

		handle := func(loggedIn bool) bool {
			if started && loggedIn == last {
				return true
			}
			started, last = true, loggedIn
			gen++
			cancelFetch()
			cancelFetch = func() {}

			if !loggedIn {
				return emit(nil)
			}
			fctx, cancel := context.WithCancel(ctx)
			cancelFetch = cancel
			go func(g int) {
				items, err := c.fetchInstruments(fctx, kind)
				if err != nil {
					logger.Error("[MARKETS] instruments %s: %v", kind, err)
					items = nil
				}
				select {
				case results <- fetchResult{gen: g, items: items}:
				case <-fctx.Done():
				}
			}(gen)
			return true
		}

		if !handle(c.sess.LoggedIn()) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case v := <-events:
				if !handle(v) {
					return
				}
			case r := <-results:
				if r.gen != gen {
					continue
				}
				if !emit(r.items) {
					return
				}
			}
		}
	}()

	return out
}
