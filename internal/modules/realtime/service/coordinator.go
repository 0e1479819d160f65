package service

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"rate_monitor/internal/models"
	"rate_monitor/internal/modules/config"
	"rate_monitor/pkg/logger"
)

type Session interface {
	Token() string
	LoggedIn() bool
	Subscribe(fn func(loggedIn bool)) (unsubscribe func())
}

type Selection interface {
	Current() string
	Subscribe(fn func(prev, next string)) (unsubscribe func())
}

// Reporter получает состояние стрима для health-эндпоинтов.
type Reporter interface {
	SetWSConnected(v bool)
	SetConnectionID(id string)
	SetActiveInstrument(id string)
	TouchTick(t time.Time)
}

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

type eventKind int

const (
	evLogin eventKind = iota
	evSelect
	evFrame
	evConnClosed
	evTeardown
)

type event struct {
	kind         eventKind
	loggedIn     bool
	instrumentID string
	gen          uint64
	frame        Frame
	err          error
	done         chan struct{}
}

type listener struct {
	id int
	fn func(*models.RealtimeData)
}

// Coordinator владеет единственным стрим-соединением. Все переходы состояния выполняет
// один actor-цикл, он же единственный пишет в соединение и закрывает его.
// Состояния: нет соединения / соединение без подписки / соединение с подпиской на active.
type Coordinator struct {
	cfg      *config.Config
	dialer   Dialer
	sess     Session
	sel      Selection
	reporter Reporter
	n        ServiceNotifier

	events  chan event
	cancel  context.CancelFunc
	stopped chan struct{}
	started atomic.Bool
	unsubs  []func()

	// дальше: только из actor-цикла
	conn      Conn
	connID    string
	gen       uint64
	nextMsgID int
	active    string

	mu        sync.RWMutex
	waiting   bool // freshness gate
	last      *models.RealtimeData
	published *models.RealtimeData
	listeners []listener
	nextLID   int
}

func NewCoordinator(cfg *config.Config, dialer Dialer, sess Session, sel Selection, reporter Reporter, n ServiceNotifier) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		dialer:   dialer,
		sess:     sess,
		sel:      sel,
		reporter: reporter,
		n:        n,
		events:   make(chan event, 256),
		stopped:  make(chan struct{}),
		waiting:  true,
	}
}

// Start запускает actor-цикл и подписывается на логин и выбор инструмента.
func (c *Coordinator) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)

	c.active = c.sel.Current()
	if c.reporter != nil {
		c.reporter.SetActiveInstrument(c.active)
	}
	go c.loop(ctx)

	c.unsubs = append(c.unsubs,
		c.sess.Subscribe(func(loggedIn bool) {
			c.enqueue(event{kind: evLogin, loggedIn: loggedIn})
		}),
		// Set выбора возвращается, только когда рукопожатие уже отправлено и gate выставлен
		c.sel.Subscribe(func(_, next string) {
			c.dispatch(event{kind: evSelect, instrumentID: next})
		}),
	)
	if c.sess.LoggedIn() {
		c.enqueue(event{kind: evLogin, loggedIn: true})
	}
}

// Stop закрывает соединение и останавливает цикл.
func (c *Coordinator) Stop() {
	if !c.started.Load() {
		return
	}
	for _, u := range c.unsubs {
		u()
	}
	c.cancel()
	<-c.stopped
}

// Teardown: явное закрытие стрима со стороны UI. Вернуть его может только новый логин.
func (c *Coordinator) Teardown() {
	if !c.started.Load() {
		return
	}
	c.dispatch(event{kind: evTeardown})
}

// Latest возвращает наблюдаемое значение; nil, пока gate выставлен или тиков не было.
func (c *Coordinator) Latest() *models.RealtimeData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneData(c.observableLocked())
}

// Waiting сообщает, ждём ли первый тик после смены инструмента.
func (c *Coordinator) Waiting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.waiting
}

// Subscribe: слушатель изменений наблюдаемого значения. Вызывается из actor-цикла,
// блокироваться нельзя.
func (c *Coordinator) Subscribe(fn func(*models.RealtimeData)) (unsubscribe func()) {
	c.mu.Lock()
	c.nextLID++
	id := c.nextLID
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Coordinator) enqueue(ev event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.stopped:
		return false
	}
}

// dispatch ставит событие в очередь и ждёт, пока цикл его обработает.
func (c *Coordinator) dispatch(ev event) {
	ev.done = make(chan struct{})
	if !c.enqueue(ev) {
		return
	}
	select {
	case <-ev.done:
	case <-c.stopped:
	}
}

func (c *Coordinator) loop(ctx context.Context) {
	defer close(c.stopped)
	defer c.closeConn("shutdown")

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			c.handle(ctx, ev)
			if ev.done != nil {
				close(ev.done)
			}
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evLogin:
		c.onLogin(ctx, ev.loggedIn)
	case evSelect:
		c.onSelect(ev.instrumentID)
	case evFrame:
		c.onFrame(ev.gen, ev.frame)
	case evConnClosed:
		if ev.gen != c.gen || c.conn == nil {
			return
		}
		logger.Warn("[WS] connection %s lost: %v", c.connID, ev.err)
		if c.n != nil {
			c.n.SendService(ctx, "⚠️ realtime stream lost: %v", ev.err)
		}
		c.closeConn("remote closed")
	case evTeardown:
		c.closeConn("teardown")
	}
}

// onLogin: любая публикация логина заменяет соединение; при true открываем новое
// с текущим токеном и сразу подписываем выбранный инструмент.
func (c *Coordinator) onLogin(ctx context.Context, loggedIn bool) {
	c.closeConn("session changed")
	if !loggedIn {
		return
	}

	u, err := streamURL(c.cfg.API.StreamURL, c.sess.Token())
	if err != nil {
		logger.Error("[WS] %v", err)
		return
	}
	conn, err := c.dialer.Dial(ctx, u)
	if err != nil {
		// без автоматических повторов: вернуть стрим может только новый логин
		logger.Error("[WS] connect failed: %v", err)
		c.notify(ctx, "⚠️ realtime stream connect failed: %v", err)
		return
	}

	c.gen++
	c.conn = conn
	c.connID = uuid.NewString()
	c.nextMsgID = 1
	logger.Info("[WS] connected %s", c.connID)
	if c.reporter != nil {
		c.reporter.SetWSConnected(true)
		c.reporter.SetConnectionID(c.connID)
	}
	go c.read(conn, c.gen)

	if c.active != "" {
		c.setWaiting()
		c.send(c.active, true)
	}
}

func (c *Coordinator) onSelect(next string) {
	prev := c.active
	if prev == next {
		return
	}
	c.active = next
	if c.reporter != nil {
		c.reporter.SetActiveInstrument(next)
	}
	c.setWaiting()

	if c.conn == nil {
		return
	}
	// отписка от старого строго раньше подписки на новый
	if prev != "" && !c.send(prev, false) {
		return
	}
	if next != "" {
		c.send(next, true)
	}
}

func (c *Coordinator) onFrame(gen uint64, f Frame) {
	if gen != c.gen || c.conn == nil || f.Kind != FrameTick {
		return
	}
	if f.Tick.InstrumentID != c.active {
		logger.Debug("[WS] drop tick for %s, active %q", f.Tick.InstrumentID, c.active)
		return
	}

	c.mu.Lock()
	c.waiting = false
	c.last = &models.RealtimeData{Price: f.Tick.Last.Price, Timestamp: f.Tick.Last.Timestamp}
	c.mu.Unlock()

	if c.reporter != nil {
		c.reporter.TouchTick(f.Tick.Last.Timestamp)
	}
	c.publish()
}

// send пишет кадр подписки со следующим id. false: соединение закрыто из-за ошибки записи.
func (c *Coordinator) send(instrumentID string, subscribe bool) bool {
	msg := models.SubscriptionMessage{
		ID:           strconv.Itoa(c.nextMsgID),
		Type:         models.SubscriptionType,
		InstrumentID: instrumentID,
		Provider:     c.cfg.API.Provider,
		Subscribe:    subscribe,
		Kinds:        []string{models.KindLast},
	}
	c.nextMsgID++

	b, err := EncodeSubscription(msg)
	if err != nil {
		logger.Error("[WS] encode subscription: %v", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Error("[WS] write %s subscribe=%v: %v", instrumentID, subscribe, err)
		c.closeConn("write failed")
		return false
	}
	logger.Debug("[WS] sent id=%s %s subscribe=%v", msg.ID, instrumentID, subscribe)
	return true
}

func (c *Coordinator) read(conn Conn, gen uint64) {
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			c.enqueue(event{kind: evConnClosed, gen: gen, err: err})
			return
		}
		f := DecodeFrame(b)
		if f.Kind != FrameTick {
			continue // ack или мусор
		}
		if !c.enqueue(event{kind: evFrame, gen: gen, frame: f}) {
			return
		}
	}
}

// closeConn закрывает соединение и сбрасывает опубликованный тик. Кадры старого
// поколения после этого отбрасываются.
func (c *Coordinator) closeConn(reason string) {
	if c.conn == nil {
		return
	}
	_ = c.conn.Close()
	logger.Info("[WS] closed %s: %s", c.connID, reason)

	c.conn = nil
	c.connID = ""
	c.gen++
	if c.reporter != nil {
		c.reporter.SetWSConnected(false)
		c.reporter.SetConnectionID("")
	}

	c.mu.Lock()
	c.last = nil
	c.mu.Unlock()
	c.publish()
}

// notify уходит в отдельную горутину: медленный нотификатор не должен держать actor-цикл.
func (c *Coordinator) notify(ctx context.Context, format string, args ...any) {
	if c.n == nil {
		return
	}
	go c.n.SendService(ctx, format, args...)
}

func (c *Coordinator) setWaiting() {
	c.mu.Lock()
	c.waiting = true
	c.mu.Unlock()
	c.publish()
}

func (c *Coordinator) observableLocked() *models.RealtimeData {
	if c.waiting {
		return nil
	}
	return c.last
}

// publish оповещает слушателей, если наблюдаемое значение изменилось.
func (c *Coordinator) publish() {
	c.mu.Lock()
	cur := c.observableLocked()
	if sameData(cur, c.published) {
		c.mu.Unlock()
		return
	}
	c.published = cur
	ls := make([]listener, len(c.listeners))
	copy(ls, c.listeners)
	c.mu.Unlock()

	for _, l := range ls {
		l.fn(cloneData(cur))
	}
}

func sameData(a, b *models.RealtimeData) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Price == b.Price && a.Timestamp.Equal(b.Timestamp)
}

func cloneData(d *models.RealtimeData) *models.RealtimeData {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}
