package sanitize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericText accepts plain decimals and comma-grouped thousands, with an optional leading dollar sign.
var numericText = regexp.MustCompile(`^[+-]?\$?(\d+|\d{1,3}(,\d{3})+)(\.\d+)?$`)

func toNumber(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		s := strings.TrimSpace(v)
		if !numericText.MatchString(s) {
			return 0, false
		}
		s = strings.ReplaceAll(strings.Replace(s, "$", "", 1), ",", "")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
	}
	return false, false
}

// toEnum accepts strings only and leaves them untouched, so a code is kept
// only when it is an exact member of the vocabulary.
func toEnum(raw any) (string, bool) {
	s, ok := raw.(string)
	return s, ok && s != ""
}

// toString accepts strings and numbers. Surrounding whitespace is removed and
// an empty result is rejected.
func toString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return trimmed(v)
	case json.Number:
		return trimmed(v.String())
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}
