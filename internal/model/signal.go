package model

import (
	"encoding/json"
	"time"
)

// Signal is a discrete trading decision for one bar.
type Signal int8

const (
	SignalSell Signal = -1
	SignalHold Signal = 0
	SignalBuy  Signal = 1
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// SignalSeries is aligned index-for-index with the candle series it was
// derived from. Every element is one of SignalSell, SignalHold, SignalBuy.
type SignalSeries []Signal

// Counts returns the number of buy and sell entries.
func (s SignalSeries) Counts() (buys, sells int) {
	for _, v := range s {
		switch v {
		case SignalBuy:
			buys++
		case SignalSell:
			sells++
		}
	}
	return buys, sells
}

// Nonzero returns the indices that carry a buy or sell.
func (s SignalSeries) Nonzero() []int {
	var idx []int
	for i, v := range s {
		if v != SignalHold {
			idx = append(idx, i)
		}
	}
	return idx
}

// SignalEvent is a single non-hold signal tied back to its candle.
type SignalEvent struct {
	Strategy  string    `json:"strategy"`
	Indicator string    `json:"indicator"`
	Symbol    string    `json:"symbol"`
	Index     int       `json:"index"`
	TS        time.Time `json:"ts"`
	Action    string    `json:"action"` // BUY, SELL
	Close     float64   `json:"close"`
}

// JSON returns the JSON-encoded event.
func (e *SignalEvent) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// Events pairs every non-hold signal with its candle. The signal series
// must be aligned with the candle series; extra entries are ignored.
func Events(series Series, signals SignalSeries, strategy, indicator string) []SignalEvent {
	var events []SignalEvent
	for _, i := range signals.Nonzero() {
		if i >= len(series.Candles) {
			break
		}
		c := series.Candles[i]
		events = append(events, SignalEvent{
			Strategy:  strategy,
			Indicator: indicator,
			Symbol:    series.Symbol,
			Index:     i,
			TS:        c.TS,
			Action:    signals[i].String(),
			Close:     c.Close,
		})
	}
	return events
}
