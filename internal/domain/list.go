package domain

import (
	"encoding/json"
	"strings"
)

// StringList is a sequence of short labels (tags, music genres). Upstream
// serializes it as a JSON array, as a JSON array encoded inside a string, or
// as a comma-separated string; all of them decode to the same list.
type StringList []string

// UnmarshalJSON never fails: input that cannot be read as a list decodes to
// an empty list.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = StringList{}
		return nil
	}

	*l = NormalizeList(raw)
	return nil
}

// NormalizeList tries, in order: a native sequence, a JSON-encoded sequence,
// a comma-separated string. Non-string entries are dropped, entries are
// trimmed and empty entries removed. NormalizeList(NormalizeList(x)) equals
// NormalizeList(x).
func NormalizeList(v any) StringList {
	switch t := v.(type) {
	case nil:
		return StringList{}
	case StringList:
		return cleanStrings(t)
	case []string:
		return cleanStrings(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return cleanStrings(out)
	case string:
		return normalizeString(t)
	default:
		return StringList{}
	}
}

func normalizeString(s string) StringList {
	s = strings.TrimSpace(s)
	if s == "" {
		return StringList{}
	}

	if strings.ContainsAny(s[:1], `[{"`) {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			switch d := decoded.(type) {
			case []any:
				return NormalizeList(d)
			case string:
				return splitComma(d)
			default:
				return StringList{}
			}
		}
	}

	return splitComma(s)
}

func splitComma(s string) StringList {
	return cleanStrings(strings.Split(s, ","))
}

func cleanStrings(in []string) StringList {
	out := make(StringList, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
