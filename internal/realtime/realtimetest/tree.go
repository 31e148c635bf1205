package realtimetest

import (
	"encoding/json"
	"time"
)

// normalize round-trips v through JSON so stored values are plain maps,
// slices, strings, float64s, bools and nil.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// resolve replaces ".sv" directives in v, using existing as the value
// currently stored at the same location.
func resolve(v any, existing any, now time.Time) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if sv, ok := m[".sv"]; ok && len(m) == 1 {
		switch d := sv.(type) {
		case string:
			if d == "timestamp" {
				return float64(now.UnixMilli())
			}
		case map[string]any:
			if delta, ok := d["increment"].(float64); ok {
				if cur, ok := existing.(float64); ok {
					return cur + delta
				}
				return delta
			}
		}
		return v
	}

	existingMap, _ := existing.(map[string]any)
	out := make(map[string]any, len(m))
	for k, child := range m {
		if r := resolve(child, existingMap[k], now); !isEmpty(r) {
			out[k] = r
		}
	}
	return out
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	m, ok := v.(map[string]any)
	return ok && len(m) == 0
}

func lookup(root any, segs []string) any {
	cur := root
	for _, s := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[s]
	}
	return cur
}

func store(root any, segs []string, v any) any {
	if len(segs) == 0 {
		return v
	}
	m, ok := root.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	m[segs[0]] = store(m[segs[0]], segs[1:], v)
	return m
}

func remove(root any, segs []string) any {
	if len(segs) == 0 {
		return nil
	}
	m, ok := root.(map[string]any)
	if !ok {
		return root
	}
	child := remove(m[segs[0]], segs[1:])
	if isEmpty(child) {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
