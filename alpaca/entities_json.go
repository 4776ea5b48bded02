package alpaca

import (
	"fmt"
	"time"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/shopspring/decimal"
)

var (
	_ easyjson.Unmarshaler = (*Order)(nil)
	_ easyjson.Unmarshaler = (*TradeUpdate)(nil)
)

// UnmarshalJSON supports json.Unmarshaler interface
func (v *TradeUpdate) UnmarshalJSON(data []byte) error {
	r := jlexer.Lexer{Data: data}
	v.UnmarshalEasyJSON(&r)
	return r.Error()
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler interface.
// The event and the order are required.
func (v *TradeUpdate) UnmarshalEasyJSON(in *jlexer.Lexer) {
	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}
	var hasEvent, hasOrder bool
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "at":
			decodeTime(in, &v.At)
		case "event":
			v.Event = in.String()
			hasEvent = true
		case "event_id":
			v.EventID = in.String()
		case "execution_id":
			v.ExecutionID = in.String()
		case "order":
			v.Order.UnmarshalEasyJSON(in)
			hasOrder = true
		case "position_qty":
			v.PositionQty = decodeDecimalPtr(in)
		case "price":
			v.Price = decodeDecimalPtr(in)
		case "qty":
			v.Qty = decodeDecimalPtr(in)
		case "timestamp":
			v.Timestamp = decodeTimePtr(in)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	if !hasEvent {
		in.AddError(missingField("event"))
	} else if !hasOrder {
		in.AddError(missingField("order"))
	}
	if isTopLevel {
		in.Consumed()
	}
}

// UnmarshalJSON supports json.Unmarshaler interface
func (v *Order) UnmarshalJSON(data []byte) error {
	r := jlexer.Lexer{Data: data}
	v.UnmarshalEasyJSON(&r)
	return r.Error()
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler interface.
// The id and the symbol are required.
func (v *Order) UnmarshalEasyJSON(in *jlexer.Lexer) {
	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}
	var hasID, hasSymbol bool
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "id":
			v.ID = in.String()
			hasID = true
		case "client_order_id":
			v.ClientOrderID = in.String()
		case "created_at":
			decodeTime(in, &v.CreatedAt)
		case "updated_at":
			decodeTime(in, &v.UpdatedAt)
		case "submitted_at":
			decodeTime(in, &v.SubmittedAt)
		case "filled_at":
			v.FilledAt = decodeTimePtr(in)
		case "expired_at":
			v.ExpiredAt = decodeTimePtr(in)
		case "canceled_at":
			v.CanceledAt = decodeTimePtr(in)
		case "failed_at":
			v.FailedAt = decodeTimePtr(in)
		case "replaced_at":
			v.ReplacedAt = decodeTimePtr(in)
		case "replaced_by":
			v.ReplacedBy = decodeStringPtr(in)
		case "replaces":
			v.Replaces = decodeStringPtr(in)
		case "asset_id":
			v.AssetID = in.String()
		case "symbol":
			v.Symbol = in.String()
			hasSymbol = true
		case "asset_class":
			v.AssetClass = AssetClass(in.String())
		case "order_class":
			v.OrderClass = OrderClass(in.String())
		case "type":
			v.Type = OrderType(in.String())
		case "side":
			v.Side = Side(in.String())
		case "position_intent":
			v.PositionIntent = PositionIntent(in.String())
		case "time_in_force":
			v.TimeInForce = TimeInForce(in.String())
		case "status":
			v.Status = in.String()
		case "notional":
			v.Notional = decodeDecimalPtr(in)
		case "qty":
			v.Qty = decodeDecimalPtr(in)
		case "filled_qty":
			if data := in.Raw(); in.Ok() {
				in.AddError(v.FilledQty.UnmarshalJSON(data))
			}
		case "filled_avg_price":
			v.FilledAvgPrice = decodeDecimalPtr(in)
		case "limit_price":
			v.LimitPrice = decodeDecimalPtr(in)
		case "stop_price":
			v.StopPrice = decodeDecimalPtr(in)
		case "trail_price":
			v.TrailPrice = decodeDecimalPtr(in)
		case "trail_percent":
			v.TrailPercent = decodeDecimalPtr(in)
		case "hwm":
			v.HWM = decodeDecimalPtr(in)
		case "extended_hours":
			v.ExtendedHours = in.Bool()
		case "legs":
			in.Delim('[')
			if v.Legs == nil {
				v.Legs = make([]Order, 0, 2)
			}
			for !in.IsDelim(']') {
				var leg Order
				leg.UnmarshalEasyJSON(in)
				v.Legs = append(v.Legs, leg)
				in.WantComma()
			}
			in.Delim(']')
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	if !hasID {
		in.AddError(missingField("id"))
	} else if !hasSymbol {
		in.AddError(missingField("symbol"))
	}
	if isTopLevel {
		in.Consumed()
	}
}

func missingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}

func decodeTime(in *jlexer.Lexer, t *time.Time) {
	if data := in.Raw(); in.Ok() {
		in.AddError(t.UnmarshalJSON(data))
	}
}

func decodeTimePtr(in *jlexer.Lexer) *time.Time {
	t := new(time.Time)
	decodeTime(in, t)
	return t
}

func decodeDecimalPtr(in *jlexer.Lexer) *decimal.Decimal {
	d := new(decimal.Decimal)
	if data := in.Raw(); in.Ok() {
		in.AddError(d.UnmarshalJSON(data))
	}
	return d
}

func decodeStringPtr(in *jlexer.Lexer) *string {
	s := in.String()
	return &s
}
