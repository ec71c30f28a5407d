package job

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Raw is one upstream record as decoded JSON. Numbers are json.Number.
type Raw map[string]any

// Lookup resolves a dotted path inside the record.
//
// Segments:
//   - name       selects a key of an object
//   - 0, 1, ...  indexes a list
//   - [key=val]  selects the first list element whose key equals val
//
// found is false when any segment is missing; a present JSON null yields
// (nil, true).
func (r Raw) Lookup(path string) (v any, found bool) {
	var cur any = map[string]any(r)
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			cur, found = node[seg]
			if !found {
				return nil, false
			}
		case Raw:
			cur, found = node[seg]
			if !found {
				return nil, false
			}
		case []any:
			next, ok := index(node, seg)
			if !ok {
				return nil, false
			}
			cur = next
		default:
			return nil, false
		}
	}
	return cur, true
}

func index(list []any, seg string) (any, bool) {
	if strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]") {
		key, want, ok := strings.Cut(seg[1:len(seg)-1], "=")
		if !ok {
			return nil, false
		}
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if v, ok := obj[key]; ok && stringify(v) == want {
				return obj, true
			}
		}
		return nil, false
	}

	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= len(list) {
		return nil, false
	}
	return list[i], true
}

// truthy mirrors the upstream client's fallback rule: empty strings, zero,
// false and null count as missing.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v any) int {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(t)
	case int:
		return t
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return i
		}
	}
	return 0
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime accepts RFC3339 with or without a zone; anything else is the zero time.
func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
