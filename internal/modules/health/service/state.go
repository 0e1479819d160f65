package service

import (
	"sync"
	"sync/atomic"
	"time"
)

// State: то, что отдают /readyz и /healthz. Пишут сессия и стрим, читают хендлеры.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected  atomic.Bool
	lastTickNano atomic.Int64

	mu           sync.RWMutex
	connectionID string
	active       string
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) SetConnectionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectionID = id
}

func (s *State) ConnectionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectionID
}

func (s *State) SetActiveInstrument(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = id
}

func (s *State) ActiveInstrument() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *State) TouchTick(t time.Time) {
	if t.IsZero() {
		t = time.Now()
	}
	s.lastTickNano.Store(t.UnixNano())
}

func (s *State) LastTick() time.Time {
	u := s.lastTickNano.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(0, u).UTC()
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

// Snapshot: JSON для /healthz.
type Snapshot struct {
	Ready            bool   `json:"ready"`
	WSConnected      bool   `json:"wsConnected"`
	ConnectionID     string `json:"connectionId,omitempty"`
	ActiveInstrument string `json:"activeInstrument,omitempty"`
	LastTickUnix     int64  `json:"lastTickUnix"`
	UptimeSec        int64  `json:"uptimeSec"`
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Ready:            s.Ready(),
		WSConnected:      s.WSConnected(),
		ConnectionID:     s.ConnectionID(),
		ActiveInstrument: s.ActiveInstrument(),
		UptimeSec:        int64(s.Uptime().Seconds()),
	}
	if t := s.LastTick(); !t.IsZero() {
		snap.LastTickUnix = t.Unix()
	}
	return snap
}
