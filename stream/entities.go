package stream

import "time"

// Message is a market data message. It is one of Trade, Quote, Bar, DailyBar,
// UpdatedBar or TradingStatus.
type Message interface {
	messageType() string
}

// Trade is a trade
type Trade struct {
	ID         int64
	Symbol     string
	Exchange   string
	Price      float64
	Size       float64
	Timestamp  time.Time
	Conditions []string
	Tape       string
	// TakerSide is only set for crypto trades
	TakerSide string
}

// Quote is a quote
type Quote struct {
	Symbol      string
	BidExchange string
	BidPrice    float64
	BidSize     float64
	AskExchange string
	AskPrice    float64
	AskSize     float64
	Timestamp   time.Time
	Conditions  []string
	Tape        string
}

// Bar is an aggregate
type Bar struct {
	Symbol     string
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	Timestamp  time.Time
	TradeCount uint64
	VWAP       float64
}

// DailyBar is the daily aggregate of the current trading day, resent whenever it changes
type DailyBar Bar

// UpdatedBar is a minute bar corrected after late trades
type UpdatedBar Bar

// TradingStatus is a trading halt or resume of a symbol
type TradingStatus struct {
	Symbol     string
	StatusCode string
	StatusMsg  string
	ReasonCode string
	ReasonMsg  string
	Timestamp  time.Time
	Tape       string
}

const (
	// TakerSideBuy is the taker side of trades where the taker was the buyer
	TakerSideBuy = "B"
	// TakerSideSell is the taker side of trades where the taker was the seller
	TakerSideSell = "S"
	// TakerSideUnknown is the taker side of trades of unknown side
	TakerSideUnknown = "-"
)

const (
	msgTypeTrade         = "t"
	msgTypeQuote         = "q"
	msgTypeBar           = "b"
	msgTypeDailyBar      = "d"
	msgTypeUpdatedBar    = "u"
	msgTypeTradingStatus = "s"
)

func (Trade) messageType() string         { return msgTypeTrade }
func (Quote) messageType() string         { return msgTypeQuote }
func (Bar) messageType() string           { return msgTypeBar }
func (DailyBar) messageType() string      { return msgTypeDailyBar }
func (UpdatedBar) messageType() string    { return msgTypeUpdatedBar }
func (TradingStatus) messageType() string { return msgTypeTradingStatus }
