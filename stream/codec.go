package stream

import (
	"bytes"
	"fmt"
	"time"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"

	"github.com/alpacahq/alpaca-api-client-go/alpaca"
)

const (
	tradeUpdatesStream  = "trade_updates"
	authorizationStream = "authorization"
)

type authRequest struct {
	key    string
	secret string
}

func (r authRequest) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"action":"auth","key":`)
	w.String(r.key)
	w.RawString(`,"secret":`)
	w.String(r.secret)
	w.RawByte('}')
}

type subscribeRequest subscriptions

func (r subscribeRequest) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"action":"subscribe","trades":`)
	writeStrings(w, r.trades)
	w.RawString(`,"quotes":`)
	writeStrings(w, r.quotes)
	w.RawString(`,"bars":`)
	writeStrings(w, r.bars)
	w.RawString(`,"dailyBars":`)
	writeStrings(w, r.dailyBars)
	w.RawString(`,"updatedBars":`)
	writeStrings(w, r.updatedBars)
	w.RawByte('}')
}

type tradeUpdatesAuthRequest struct {
	keyID     string
	secretKey string
}

func (r tradeUpdatesAuthRequest) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"action":"authenticate","data":{"key_id":`)
	w.String(r.keyID)
	w.RawString(`,"secret_key":`)
	w.String(r.secretKey)
	w.RawString(`}}`)
}

type listenRequest struct {
	streams []string
}

func (r listenRequest) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"action":"listen","data":{"streams":`)
	writeStrings(w, r.streams)
	w.RawString(`}}`)
}

// writeStrings writes ss as a JSON array, nil included
func writeStrings(w *jwriter.Writer, ss []string) {
	w.RawByte('[')
	for i, s := range ss {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(s)
	}
	w.RawByte(']')
}

// decodeMessages decodes a market data frame. Control messages and elements of unknown
// type are dropped. If any element fails to decode, no message is returned.
func decodeMessages(b []byte) ([]Message, error) {
	in := jlexer.Lexer{Data: b}
	var msgs []Message
	in.Delim('[')
	for !in.IsDelim(']') {
		raw := in.Raw()
		if !in.Ok() {
			break
		}
		msg, err := decodeMessage(raw)
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		if msg != nil {
			msgs = append(msgs, msg)
		}
		in.WantComma()
	}
	in.Delim(']')
	in.Consumed()
	if err := in.Error(); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return msgs, nil
}

func decodeMessage(raw []byte) (Message, error) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}
	t, err := messageTypeOf(raw)
	if err != nil {
		return nil, err
	}

	in := jlexer.Lexer{Data: raw}
	var msg Message
	switch t {
	case msgTypeTrade:
		msg = decodeTrade(&in)
	case msgTypeQuote:
		msg = decodeQuote(&in)
	case msgTypeBar:
		msg = decodeBar(&in)
	case msgTypeDailyBar:
		msg = DailyBar(decodeBar(&in))
	case msgTypeUpdatedBar:
		msg = UpdatedBar(decodeBar(&in))
	case msgTypeTradingStatus:
		msg = decodeTradingStatus(&in)
	default:
		// success, error and subscription messages belong to the handshake
		return nil, nil
	}
	if err := in.Error(); err != nil {
		return nil, fmt.Errorf("message of type %q: %w", t, err)
	}
	return msg, nil
}

// messageTypeOf returns the T field of an object, or "" if it has none
func messageTypeOf(raw []byte) (string, error) {
	in := jlexer.Lexer{Data: raw}
	var t string
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if key == "T" {
			t, _ = in.Interface().(string)
		} else {
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	return t, in.Error()
}

type requiredFields struct {
	names []string
	seen  uint32
}

func newRequiredFields(names ...string) requiredFields {
	return requiredFields{names: names}
}

func (r *requiredFields) mark(key string) {
	for i, name := range r.names {
		if name == key {
			r.seen |= 1 << i
			return
		}
	}
}

func (r *requiredFields) check(in *jlexer.Lexer) {
	if !in.Ok() {
		return
	}
	for i, name := range r.names {
		if r.seen&(1<<i) == 0 {
			in.AddError(fmt.Errorf("missing field %q", name))
			return
		}
	}
}

// forEachField calls fn with every non-null field of the object. Null fields count as missing.
func forEachField(in *jlexer.Lexer, fn func(key string), req *requiredFields) {
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		fn(key)
		req.mark(key)
		in.WantComma()
	}
	in.Delim('}')
	req.check(in)
}

func decodeTrade(in *jlexer.Lexer) Trade {
	var trade Trade
	req := newRequiredFields("S", "p", "s", "t")
	forEachField(in, func(key string) {
		switch key {
		case "S":
			trade.Symbol = in.String()
		case "i":
			trade.ID = in.Int64()
		case "x":
			trade.Exchange = in.String()
		case "p":
			trade.Price = in.Float64()
		case "s":
			trade.Size = in.Float64()
		case "t":
			trade.Timestamp = decodeTime(in)
		case "c":
			trade.Conditions = decodeStrings(in)
		case "z":
			trade.Tape = in.String()
		case "tks":
			trade.TakerSide = in.String()
		default:
			in.SkipRecursive()
		}
	}, &req)
	return trade
}

func decodeQuote(in *jlexer.Lexer) Quote {
	var quote Quote
	req := newRequiredFields("S", "bp", "bs", "ap", "as", "t")
	forEachField(in, func(key string) {
		switch key {
		case "S":
			quote.Symbol = in.String()
		case "bx":
			quote.BidExchange = in.String()
		case "bp":
			quote.BidPrice = in.Float64()
		case "bs":
			quote.BidSize = in.Float64()
		case "ax":
			quote.AskExchange = in.String()
		case "ap":
			quote.AskPrice = in.Float64()
		case "as":
			quote.AskSize = in.Float64()
		case "t":
			quote.Timestamp = decodeTime(in)
		case "c":
			quote.Conditions = decodeStrings(in)
		case "z":
			quote.Tape = in.String()
		default:
			in.SkipRecursive()
		}
	}, &req)
	return quote
}

func decodeBar(in *jlexer.Lexer) Bar {
	var bar Bar
	req := newRequiredFields("S", "o", "h", "l", "c", "v", "t", "n", "vw")
	forEachField(in, func(key string) {
		switch key {
		case "S":
			bar.Symbol = in.String()
		case "o":
			bar.Open = in.Float64()
		case "h":
			bar.High = in.Float64()
		case "l":
			bar.Low = in.Float64()
		case "c":
			bar.Close = in.Float64()
		case "v":
			bar.Volume = in.Float64()
		case "t":
			bar.Timestamp = decodeTime(in)
		case "n":
			bar.TradeCount = in.Uint64()
		case "vw":
			bar.VWAP = in.Float64()
		default:
			in.SkipRecursive()
		}
	}, &req)
	return bar
}

func decodeTradingStatus(in *jlexer.Lexer) TradingStatus {
	var ts TradingStatus
	req := newRequiredFields("S", "t")
	forEachField(in, func(key string) {
		switch key {
		case "S":
			ts.Symbol = in.String()
		case "sc":
			ts.StatusCode = in.String()
		case "sm":
			ts.StatusMsg = in.String()
		case "rc":
			ts.ReasonCode = in.String()
		case "rm":
			ts.ReasonMsg = in.String()
		case "t":
			ts.Timestamp = decodeTime(in)
		case "z":
			ts.Tape = in.String()
		default:
			in.SkipRecursive()
		}
	}, &req)
	return ts
}

func decodeTime(in *jlexer.Lexer) time.Time {
	s := in.String()
	if !in.Ok() {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		in.AddError(err)
	}
	return t
}

func decodeStrings(in *jlexer.Lexer) []string {
	res := []string{}
	in.Delim('[')
	for !in.IsDelim(']') {
		res = append(res, in.String())
		in.WantComma()
	}
	in.Delim(']')
	return res
}

// isMarketDataAuthenticated reports whether the first element of the auth reply is
// {"T":"success","msg":"authenticated"}
func isMarketDataAuthenticated(b []byte) bool {
	in := jlexer.Lexer{Data: b}
	in.Delim('[')
	if in.IsDelim(']') {
		return false
	}
	var t, msg string
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "T":
			t, _ = in.Interface().(string)
		case "msg":
			msg, _ = in.Interface().(string)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.WantComma()
	for !in.IsDelim(']') {
		in.SkipRecursive()
		in.WantComma()
	}
	in.Delim(']')
	in.Consumed()
	return in.Ok() && t == "success" && msg == "authenticated"
}

// isTradeUpdatesAuthorized reports whether the auth reply is
// {"stream":"authorization","data":{"status":"authorized",...}}
func isTradeUpdatesAuthorized(b []byte) bool {
	if !isObject(b) {
		return false
	}
	in := jlexer.Lexer{Data: b}
	var stream, status string
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "stream":
			stream, _ = in.Interface().(string)
		case "data":
			status = decodeAuthorizationStatus(&in)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()
	return in.Ok() && stream == authorizationStream && status == "authorized"
}

func decodeAuthorizationStatus(in *jlexer.Lexer) string {
	if in.IsNull() {
		in.Skip()
		return ""
	}
	var status string
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if key == "status" {
			status, _ = in.Interface().(string)
		} else {
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	return status
}

// decodeTradeUpdate decodes a frame of the trading stream. ok is false for frames
// that are not trade updates, those are valid JSON but ignored.
func decodeTradeUpdate(b []byte) (tu alpaca.TradeUpdate, ok bool, err error) {
	in := jlexer.Lexer{Data: b}
	if !isObject(b) {
		in.SkipRecursive()
		in.Consumed()
		if err := in.Error(); err != nil {
			return tu, false, &DecodeError{Err: err}
		}
		return tu, false, nil
	}

	var stream string
	var data []byte
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "stream":
			stream, _ = in.Interface().(string)
		case "data":
			data = in.Raw()
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()
	if err := in.Error(); err != nil {
		return tu, false, &DecodeError{Err: err}
	}

	if stream != tradeUpdatesStream || len(data) == 0 || string(data) == "null" {
		return tu, false, nil
	}
	if err := easyjson.Unmarshal(data, &tu); err != nil {
		return tu, false, &DecodeError{Err: err}
	}
	return tu, true, nil
}

func isObject(b []byte) bool {
	b = bytes.TrimLeft(b, " \t\r\n")
	return len(b) > 0 && b[0] == '{'
}
