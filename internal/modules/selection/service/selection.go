package service

import "sync"

type listener struct {
	id int
	fn func(prev, next string)
}

// State: единственный источник правды о выбранном инструменте. Пустая строка означает, что ничего не выбрано.
type State struct {
	setMu sync.Mutex // сериализует Set вместе с оповещением слушателей

	mu        sync.RWMutex
	current   string
	listeners []listener
	nextID    int
}

func NewState() *State {
	return &State{}
}

func (s *State) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set меняет активный инструмент и синхронно оповещает слушателей в порядке регистрации.
// Повторная установка того же id ничего не делает. Возвращает true, если значение изменилось.
func (s *State) Set(id string) bool {
	s.setMu.Lock()
	defer s.setMu.Unlock()

	s.mu.Lock()
	prev := s.current
	if prev == id {
		s.mu.Unlock()
		return false
	}
	s.current = id
	ls := make([]listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()

	for _, l := range ls {
		l.fn(prev, id)
	}
	return true
}

func (s *State) Subscribe(fn func(prev, next string)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}
