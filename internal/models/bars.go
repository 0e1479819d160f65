package models

import "time"

// Bar: одна OHLC-свеча исторического ряда.
type Bar struct {
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Timestamp time.Time `json:"t"`
}

type BarsResponseDto struct {
	Data []Bar `json:"data"`
}

// SeriesPoint / Series: представление ряда для графика, по линии на O, H, L, C.
type SeriesPoint struct {
	Value float64   `json:"value"`
	Name  time.Time `json:"name"`
}

type Series struct {
	Name   string        `json:"name"`
	Series []SeriesPoint `json:"series"`
}

// ChartSeries раскладывает бары на четыре линии O/H/L/C, порядок баров сохраняется.
func ChartSeries(bars []Bar) []Series {
	if bars == nil {
		return nil
	}
	pick := []struct {
		name string
		get  func(Bar) float64
	}{
		{"O", func(b Bar) float64 { return b.Open }},
		{"H", func(b Bar) float64 { return b.High }},
		{"L", func(b Bar) float64 { return b.Low }},
		{"C", func(b Bar) float64 { return b.Close }},
	}

	out := make([]Series, 0, len(pick))
	for _, p := range pick {
		s := Series{Name: p.name, Series: make([]SeriesPoint, 0, len(bars))}
		for _, b := range bars {
			s.Series = append(s.Series, SeriesPoint{Value: p.get(b), Name: b.Timestamp})
		}
		out = append(out, s)
	}
	return out
}
