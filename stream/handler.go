package stream

import "github.com/alpacahq/alpaca-api-client-go/alpaca"

// MessageHandler is called synchronously with every market data message, in the
// order the server sent them. The next frame is not read until it returns.
type MessageHandler interface {
	HandleMessage(msg Message)
}

// MessageHandlerFunc adapts a function to MessageHandler
type MessageHandlerFunc func(msg Message)

func (f MessageHandlerFunc) HandleMessage(msg Message) {
	f(msg)
}

func isNilMessageHandler(h MessageHandler) bool {
	f, ok := h.(MessageHandlerFunc)
	return h == nil || ok && f == nil
}

// TradeUpdateHandler is called synchronously with every trade update
type TradeUpdateHandler interface {
	HandleTradeUpdate(tu alpaca.TradeUpdate)
}

// TradeUpdateHandlerFunc adapts a function to TradeUpdateHandler
type TradeUpdateHandlerFunc func(tu alpaca.TradeUpdate)

func (f TradeUpdateHandlerFunc) HandleTradeUpdate(tu alpaca.TradeUpdate) {
	f(tu)
}

func isNilTradeUpdateHandler(h TradeUpdateHandler) bool {
	f, ok := h.(TradeUpdateHandlerFunc)
	return h == nil || ok && f == nil
}
