package models

import "github.com/pkg/errors"

var (
	// ErrAuth: обмен логина/пароля на токен не удался.
	ErrAuth = errors.New("auth failed")
	// ErrUnauthorized: ресурс ответил 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRequest: сеть, 5xx и прочие ответы не-2xx.
	ErrRequest = errors.New("request failed")
	// ErrNotLoggedIn: операция требует сессии.
	ErrNotLoggedIn = errors.New("not logged in")
)

var (
	// ErrNoSelection: инструмент не выбран.
	ErrNoSelection = errors.New("no instrument selected")
	// ErrInvalidRange: диапазон графика вне допустимого окна.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrUnknownMarketKind: тип рынка не из MarketKinds.
	ErrUnknownMarketKind = errors.New("unknown market kind")
)
