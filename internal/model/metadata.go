package model

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// MetaKind discriminates the variants a metadata value can take.
type MetaKind int

const (
	MetaNull MetaKind = iota
	MetaString
	MetaNumber
	MetaBool
	MetaTime
	MetaList
)

// MetaValue is a sum-typed metadata value: platforms may attach arbitrary
// fields to a record (calories, confidence, device id, ...), but merge and
// collision handling stay statically checkable against a closed set of
// variants instead of an untyped map.
type MetaValue struct {
	kind MetaKind

	str  string
	num  float64
	boo  bool
	tim  time.Time
	list []MetaValue
}

func StringValue(s string) MetaValue    { return MetaValue{kind: MetaString, str: s} }
func NumberValue(n float64) MetaValue   { return MetaValue{kind: MetaNumber, num: n} }
func BoolValue(b bool) MetaValue        { return MetaValue{kind: MetaBool, boo: b} }
func TimeValue(t time.Time) MetaValue   { return MetaValue{kind: MetaTime, tim: t} }
func ListValue(l []MetaValue) MetaValue { return MetaValue{kind: MetaList, list: l} }

func (v MetaValue) Kind() MetaKind { return v.kind }

func (v MetaValue) String() (string, bool)    { return v.str, v.kind == MetaString }
func (v MetaValue) Number() (float64, bool)   { return v.num, v.kind == MetaNumber }
func (v MetaValue) Bool() (bool, bool)        { return v.boo, v.kind == MetaBool }
func (v MetaValue) Time() (time.Time, bool)   { return v.tim, v.kind == MetaTime }
func (v MetaValue) List() ([]MetaValue, bool) { return v.list, v.kind == MetaList }

func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case MetaString:
		return json.Marshal(v.str)
	case MetaNumber:
		return json.Marshal(v.num)
	case MetaBool:
		return json.Marshal(v.boo)
	case MetaTime:
		return json.Marshal(v.tim.Format(time.RFC3339Nano))
	case MetaList:
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "metadata value")
	}
	switch t := raw.(type) {
	case nil:
		*v = MetaValue{}
	case bool:
		*v = BoolValue(t)
	case float64:
		*v = NumberValue(t)
	case string:
		// timestamps round-trip as RFC 3339 strings
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			*v = TimeValue(ts)
		} else {
			*v = StringValue(t)
		}
	case []any:
		list := make([]MetaValue, 0, len(t))
		for _, el := range t {
			b, err := json.Marshal(el)
			if err != nil {
				return errors.Wrap(err, "metadata list element")
			}
			var mv MetaValue
			if err := mv.UnmarshalJSON(b); err != nil {
				return err
			}
			list = append(list, mv)
		}
		*v = ListValue(list)
	default:
		return errors.Errorf("metadata value: unsupported JSON type %T", raw)
	}
	return nil
}

// Metadata is the open-ended key/value bag attached to an activity record.
// Persisted as a jsonb column.
type Metadata map[string]MetaValue

func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m Metadata) GetNumber(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return v.Number()
}

func (m Metadata) GetString(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return v.String()
}

func (m Metadata) GetBool(key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	return v.Bool()
}
