package venus

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TypedValue is a decoded metric value. Kind selects which field is
// meaningful.
type TypedValue struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Enum  EnumValue
}

// Value returns the dynamically typed form, suitable for JSON output.
func (v TypedValue) Value() any {
	switch v.Kind {
	case ValueInt, ValueIntZero:
		return v.Int
	case ValueFloat:
		return v.Float
	case ValueString:
		return v.Str
	case ValueBool:
		return v.Bool
	case ValueEnum:
		return v.Enum.Label
	}
	return nil
}

func (v TypedValue) String() string {
	switch v.Kind {
	case ValueInt, ValueIntZero:
		return strconv.FormatInt(v.Int, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case ValueString:
		return v.Str
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueEnum:
		return v.Enum.Label
	}
	return ""
}

// payloadEnvelope is the broker's JSON wrapper around every value.
type payloadEnvelope struct {
	Value json.RawMessage `json:"value"`
}

// unwrapPayload extracts the scalar text from a payload. Venus OS
// publishes `{"value": <scalar>}`; bare scalar text is accepted too.
// The second result is false for JSON null or empty text.
func unwrapPayload(payload []byte) (string, bool) {
	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(text, "{") {
		var env payloadEnvelope
		if err := json.Unmarshal([]byte(text), &env); err == nil {
			if env.Value == nil || string(env.Value) == "null" {
				return "", false
			}
			var s string
			if err := json.Unmarshal(env.Value, &s); err == nil {
				return s, true
			}
			return strings.TrimSpace(string(env.Value)), true
		}
	}
	if text == "" || text == "null" {
		return "", false
	}
	if len(text) >= 2 && strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal([]byte(text), &s); err == nil {
			return s, true
		}
	}
	return text, true
}

// roundTo rounds half away from zero at the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	shift := math.Pow(10, float64(decimals))
	return math.Round(v*shift) / shift
}

func parseIntText(text string) (int64, error) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	// Venus OS occasionally publishes integral floats like "3.0".
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", text)
	}
	return int64(f), nil
}

// Decode interprets a raw payload according to the descriptor's value
// kind. Empty or null payloads are an error for every kind except
// int_default_0, which decodes to zero.
func Decode(d *TopicDescriptor, payload []byte) (TypedValue, error) {
	text, ok := unwrapPayload(payload)
	if !ok {
		if d.ValueType == ValueIntZero {
			return TypedValue{Kind: ValueIntZero, Int: 0}, nil
		}
		return TypedValue{}, fmt.Errorf("%s: %w", d.ShortID, ErrEmptyPayload)
	}
	switch d.ValueType {
	case ValueInt, ValueIntZero:
		i, err := parseIntText(text)
		if err != nil {
			return TypedValue{}, fmt.Errorf("%s: bad int %q", d.ShortID, text)
		}
		return TypedValue{Kind: d.ValueType, Int: i}, nil
	case ValueFloat:
		// ParseFloat accepts "NaN" and "Inf"; neither is a usable reading.
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return TypedValue{}, fmt.Errorf("%s: bad float %q", d.ShortID, text)
		}
		return TypedValue{Kind: ValueFloat, Float: roundTo(f, d.Precision)}, nil
	case ValueString:
		return TypedValue{Kind: ValueString, Str: text}, nil
	case ValueBool:
		switch strings.ToLower(text) {
		case "1", "true":
			return TypedValue{Kind: ValueBool, Bool: true}, nil
		case "0", "false":
			return TypedValue{Kind: ValueBool, Bool: false}, nil
		}
		return TypedValue{}, fmt.Errorf("%s: bad bool %q", d.ShortID, text)
	case ValueEnum:
		if d.Enum == nil {
			return TypedValue{}, fmt.Errorf("%s: enum descriptor without table", d.ShortID)
		}
		code, err := parseIntText(text)
		if err != nil {
			return TypedValue{}, fmt.Errorf("%s: bad enum code %q", d.ShortID, text)
		}
		ev, found := d.Enum.ByCode(int(code))
		if !found {
			return TypedValue{}, &UnknownEnumCodeError{Table: d.Enum.Name, Code: int(code)}
		}
		return TypedValue{Kind: ValueEnum, Enum: ev}, nil
	}
	return TypedValue{}, fmt.Errorf("%s: unsupported value kind %q", d.ShortID, d.ValueType)
}

// Encode builds the wire payload for an outgoing write. Numbers are
// validated against the descriptor bounds; enum values may be given as
// a label, a code, or an EnumValue.
func Encode(d *TopicDescriptor, value any) ([]byte, error) {
	switch d.ValueType {
	case ValueInt, ValueIntZero:
		i, err := coerceInt(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.ShortID, err)
		}
		if err := checkRange(d, float64(i)); err != nil {
			return nil, err
		}
		return wrapPayload(i)
	case ValueFloat:
		f, err := coerceFloat(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.ShortID, err)
		}
		if err := checkRange(d, f); err != nil {
			return nil, err
		}
		return wrapPayload(roundTo(f, d.Precision))
	case ValueString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected string, got %T", d.ShortID, value)
		}
		return wrapPayload(s)
	case ValueBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%s: expected bool, got %T", d.ShortID, value)
		}
		code := 0
		if b {
			code = 1
		}
		return wrapPayload(code)
	case ValueEnum:
		if d.Enum == nil {
			return nil, fmt.Errorf("%s: enum descriptor without table", d.ShortID)
		}
		ev, err := coerceEnum(d.Enum, value)
		if err != nil {
			return nil, err
		}
		return wrapPayload(ev.Code)
	}
	return nil, fmt.Errorf("%s: unsupported value kind %q", d.ShortID, d.ValueType)
}

func wrapPayload(v any) ([]byte, error) {
	return json.Marshal(map[string]any{"value": v})
}

func checkRange(d *TopicDescriptor, v float64) error {
	if (d.Min != nil && v < *d.Min) || (d.Max != nil && v > *d.Max) {
		return &RangeError{ShortID: d.ShortID, Value: v, Min: d.Min, Max: d.Max}
	}
	return nil
}

func coerceInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected integer, got %g", v)
		}
		return int64(v), nil
	case string:
		return parseIntText(v)
	}
	return 0, fmt.Errorf("expected integer, got %T", value)
}

func coerceFloat(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("expected number, got %T", value)
}

func coerceEnum(table *EnumTable, value any) (EnumValue, error) {
	switch v := value.(type) {
	case EnumValue:
		if ev, ok := table.ByCode(v.Code); ok {
			return ev, nil
		}
		return EnumValue{}, &UnknownEnumCodeError{Table: table.Name, Code: v.Code}
	case string:
		if ev, ok := table.ByLabel(v); ok {
			return ev, nil
		}
		return EnumValue{}, fmt.Errorf("unknown %s enum label %q", table.Name, v)
	case int:
		if ev, ok := table.ByCode(v); ok {
			return ev, nil
		}
		return EnumValue{}, &UnknownEnumCodeError{Table: table.Name, Code: v}
	case int64:
		if ev, ok := table.ByCode(int(v)); ok {
			return ev, nil
		}
		return EnumValue{}, &UnknownEnumCodeError{Table: table.Name, Code: int(v)}
	case float64:
		return coerceEnum(table, int(v))
	}
	return EnumValue{}, fmt.Errorf("cannot use %T as %s enum value", value, table.Name)
}
