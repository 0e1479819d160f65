package models

// MarketKind: тип рынка, по которому запрашивается каталог.
type MarketKind string

const (
	MarketForex MarketKind = "Forex"
	MarketStock MarketKind = "Stock"
)

// MarketKinds в порядке отображения в виджете; первый: дефолтный.
var MarketKinds = []MarketKind{MarketForex, MarketStock}

func ParseMarketKind(s string) (MarketKind, bool) {
	for _, k := range MarketKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Instrument: плоская проекция вендорского инструмента для виджета и подписок.
type Instrument struct {
	ID           string   `json:"id"`
	Symbol       string   `json:"symbol"`
	Kind         string   `json:"kind"`
	Currency     string   `json:"currency"`
	BaseCurrency string   `json:"baseCurrency"`
	Company      string   `json:"company,omitempty"` // только для kind == "stock"
	Markets      []string `json:"markets"`
}

// ===== vendor DTO =====

type MarketSourceDto struct {
	Symbol           string  `json:"symbol"`
	Exchange         string  `json:"exchange"`
	DefaultOrderSize float64 `json:"defaultOrderSize"`
	TradingHours     struct {
		RegularStart    string `json:"regularStart"`
		RegularEnd      string `json:"regularEnd"`
		ElectronicStart string `json:"electronicStart"`
		ElectronicEnd   string `json:"electronicEnd"`
	} `json:"tradingHours"`
}

type InstrumentDto struct {
	ID           string                     `json:"id"`
	Symbol       string                     `json:"symbol"`
	Kind         string                     `json:"kind"`
	Description  string                     `json:"description"`
	TickSize     float64                    `json:"tickSize"`
	Currency     string                     `json:"currency"`
	BaseCurrency string                     `json:"baseCurrency"`
	Mappings     map[string]MarketSourceDto `json:"mappings"`
	Profile      struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type Paging struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Items int `json:"items"`
}

type InstrumentsResponseDto struct {
	Paging Paging          `json:"paging"`
	Data   []InstrumentDto `json:"data"`
}
