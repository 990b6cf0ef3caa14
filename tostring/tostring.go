// Package tostring converts arbitrary Go values into a string
// representation while detecting NULL-equivalent values. Codecs use it for
// consistent serialization of row values.
package tostring

import (
	"fmt"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// String is a rendered value plus a flag marking it as NULL. When IsNULL is
// true the value should be treated as absent and String is empty.
type String struct {
	String string
	IsNULL bool
}

// Null is the NULL-equivalent result.
var Null = String{IsNULL: true}

// ToString renders v. nil and the zero time render as NULL; primitives use
// strconv; everything else falls back to fmt.Stringer, then JSON marshaling,
// then fmt formatting. JSON results of "null", "[]" and "{}" count as NULL.
func ToString(v any) String {
	if v == nil {
		return Null
	}
	switch v := v.(type) {
	case string:
		return String{String: v}
	case []byte:
		return String{String: string(v)}
	case bool:
		return String{String: strconv.FormatBool(v)}
	case int:
		return String{String: strconv.Itoa(v)}
	case int8:
		return String{String: strconv.FormatInt(int64(v), 10)}
	case int16:
		return String{String: strconv.FormatInt(int64(v), 10)}
	case int32:
		return String{String: strconv.FormatInt(int64(v), 10)}
	case int64:
		return String{String: strconv.FormatInt(v, 10)}
	case uint:
		return String{String: strconv.FormatUint(uint64(v), 10)}
	case uint8:
		return String{String: strconv.FormatUint(uint64(v), 10)}
	case uint16:
		return String{String: strconv.FormatUint(uint64(v), 10)}
	case uint32:
		return String{String: strconv.FormatUint(uint64(v), 10)}
	case uint64:
		return String{String: strconv.FormatUint(v, 10)}
	case float32:
		return String{String: strconv.FormatFloat(float64(v), 'f', -1, 32)}
	case float64:
		return String{String: strconv.FormatFloat(v, 'f', -1, 64)}
	case time.Time:
		if v.IsZero() {
			return Null
		}
		return String{String: v.Format(time.RFC3339Nano)}
	}
	if stringer, ok := v.(fmt.Stringer); ok {
		return String{String: stringer.String()}
	}
	if data, err := json.Marshal(v); err == nil {
		return fromJSON(data)
	}
	return String{String: fmt.Sprintf("%v", v)}
}

func fromJSON(data []byte) String {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	switch s {
	case "null", "[]", "{}":
		return Null
	}
	return String{String: s}
}
