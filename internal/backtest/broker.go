package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Fill is one simulated execution.
type Fill struct {
	Index int             `json:"index"`
	TS    time.Time       `json:"ts"`
	Side  Side            `json:"side"`
	Open  bool            `json:"open"` // true when the fill opens a position
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
	Fee   decimal.Decimal `json:"fee"`
}

// Trade is a closed round trip.
type Trade struct {
	Side       Side            `json:"side"`
	Size       decimal.Decimal `json:"size"`
	EntryIndex int             `json:"entry_index"`
	ExitIndex  int             `json:"exit_index"`
	EntryTime  time.Time       `json:"entry_time"`
	ExitTime   time.Time       `json:"exit_time"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	Fees       decimal.Decimal `json:"fees"`
	PnL        decimal.Decimal `json:"pnl"`
	ReturnPct  float64         `json:"return_pct"`
}

// position is the single open position, if any.
type position struct {
	side  Side
	size  decimal.Decimal
	price decimal.Decimal
	fee   decimal.Decimal
	index int
	ts    time.Time
}

// broker simulates fills against a cash account. It holds at most one
// position and always sizes entries with all available equity.
type broker struct {
	cash       decimal.Decimal
	commission decimal.Decimal
	pos        *position
	fills      []Fill
	trades     []Trade
}

// sizePrecision is the number of decimal places kept on position size.
const sizePrecision = 8

func newBroker(cash, commission decimal.Decimal) *broker {
	return &broker{
		cash:       cash,
		commission: commission,
		fills:      make([]Fill, 0, 64),
	}
}

// equity marks the account to price. A short position is a liability.
func (b *broker) equity(price decimal.Decimal) decimal.Decimal {
	if b.pos == nil {
		return b.cash
	}
	value := b.pos.size.Mul(price)
	if b.pos.side == SideShort {
		return b.cash.Sub(value)
	}
	return b.cash.Add(value)
}

func (b *broker) flat() bool { return b.pos == nil }

func (b *broker) holding(side Side) bool { return b.pos != nil && b.pos.side == side }

// open enters a position of the given side using all equity at price.
// Returns false when equity cannot buy a positive size.
func (b *broker) open(side Side, idx int, ts time.Time, price decimal.Decimal) (bool, error) {
	if b.pos != nil {
		return false, fmt.Errorf("open %s at bar %d: position already open", side, idx)
	}
	if !price.IsPositive() {
		return false, nil
	}
	unit := price.Mul(decimal.NewFromInt(1).Add(b.commission))
	size := b.cash.Div(unit).Truncate(sizePrecision)
	if !size.IsPositive() {
		return false, nil
	}
	notional := size.Mul(price)
	fee := notional.Mul(b.commission)
	if side == SideLong {
		b.cash = b.cash.Sub(notional).Sub(fee)
	} else {
		b.cash = b.cash.Add(notional).Sub(fee)
	}
	b.pos = &position{side: side, size: size, price: price, fee: fee, index: idx, ts: ts}
	b.fills = append(b.fills, Fill{Index: idx, TS: ts, Side: side, Open: true, Price: price, Size: size, Fee: fee})
	return true, nil
}

// close exits the open position at price and records the round trip.
func (b *broker) close(idx int, ts time.Time, price decimal.Decimal) (Trade, bool) {
	if b.pos == nil {
		return Trade{}, false
	}
	p := b.pos
	notional := p.size.Mul(price)
	fee := notional.Mul(b.commission)
	var gross decimal.Decimal
	if p.side == SideLong {
		b.cash = b.cash.Add(notional).Sub(fee)
		gross = price.Sub(p.price).Mul(p.size)
	} else {
		b.cash = b.cash.Sub(notional).Sub(fee)
		gross = p.price.Sub(price).Mul(p.size)
	}
	fees := p.fee.Add(fee)
	pnl := gross.Sub(fees)

	cost := p.price.Mul(p.size)
	ret := 0.0
	if cost.IsPositive() {
		ret, _ = pnl.Div(cost).Mul(decimal.NewFromInt(100)).Float64()
	}
	t := Trade{
		Side:       p.side,
		Size:       p.size,
		EntryIndex: p.index,
		ExitIndex:  idx,
		EntryTime:  p.ts,
		ExitTime:   ts,
		EntryPrice: p.price,
		ExitPrice:  price,
		Fees:       fees,
		PnL:        pnl,
		ReturnPct:  ret,
	}
	b.fills = append(b.fills, Fill{Index: idx, TS: ts, Side: p.side, Price: price, Size: p.size, Fee: fee})
	b.trades = append(b.trades, t)
	b.pos = nil
	return t, true
}
