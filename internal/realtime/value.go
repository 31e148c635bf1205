package realtime

import (
	"encoding/json"
	"fmt"
)

// Kind tells a plain value apart from a directive resolved by the server.
type Kind uint8

const (
	KindLiteral Kind = iota
	KindServerTimestamp
	KindIncrement
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindServerTimestamp:
		return "server-timestamp"
	case KindIncrement:
		return "increment"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a tagged variant written through Set, Update or a transaction.
// Directives marshal to the service's ".sv" sentinel objects.
type Value struct {
	kind    Kind
	literal any
	delta   float64
}

// Literal wraps an ordinary value. A nil literal deletes the node on write.
func Literal(v any) Value {
	return Value{kind: KindLiteral, literal: v}
}

// ServerTimestamp returns a directive the server replaces with its clock
// value, in milliseconds since the Unix epoch, at write time.
func ServerTimestamp() Value {
	return Value{kind: KindServerTimestamp}
}

// Increment returns a directive the server resolves into an atomic add of
// delta to the current numeric value (a missing node counts as zero).
func Increment(delta float64) Value {
	return Value{kind: KindIncrement, delta: delta}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind {
	return v.kind
}

// IsServerValue reports whether v is resolved by the server.
func (v Value) IsServerValue() bool {
	return v.kind != KindLiteral
}

// Unwrap returns the wrapped literal.
func (v Value) Unwrap() (any, bool) {
	if v.kind != KindLiteral {
		return nil, false
	}
	return v.literal, true
}

// Delta returns the increment amount.
func (v Value) Delta() (float64, bool) {
	if v.kind != KindIncrement {
		return 0, false
	}
	return v.delta, true
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindLiteral:
		return json.Marshal(v.literal)
	case KindServerTimestamp:
		return json.Marshal(map[string]string{".sv": "timestamp"})
	case KindIncrement:
		return json.Marshal(map[string]map[string]float64{".sv": {"increment": v.delta}})
	default:
		return nil, fmt.Errorf("realtime: unknown value kind %d", v.kind)
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindLiteral:
		return fmt.Sprintf("%v", v.literal)
	case KindIncrement:
		return fmt.Sprintf("increment(%g)", v.delta)
	default:
		return v.kind.String()
	}
}
