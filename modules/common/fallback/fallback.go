package fallback

import (
	"encoding/json"
	"strconv"
	"strings"
)

// job_input_data는 JSONB라서 숫자/문자열 형태가 섞여 들어온다.
// 아래 헬퍼들은 안전한 기본값으로 정규화한다.

// SafeString returns a trimmed string or the provided fallback.
func SafeString(value interface{}, fb string) string {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s != "" {
			return s
		}
	}
	return fb
}

// SafeInt converts common number shapes into int with a fallback.
func SafeInt(value interface{}, fb int) int {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case float32:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return int(v)
		}
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil && n > 0 {
			return n
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return fb
}

// SafeFloat converts common number shapes into float64 with a fallback.
// Durations arrive as float64 from JSON but as strings from some clients.
func SafeFloat(value interface{}, fb float64) float64 {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return v
		}
	case float32:
		if v > 0 {
			return float64(v)
		}
	case int:
		if v > 0 {
			return float64(v)
		}
	case json.Number:
		if f, err := v.Float64(); err == nil && f > 0 {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			return f
		}
	}
	return fb
}

// SafeAspectRatio provides a sane default aspect ratio.
func SafeAspectRatio(value interface{}) string {
	return SafeString(value, "16:9")
}

// SafeStringSlice extracts a []string, dropping empty entries.
func SafeStringSlice(value interface{}) []string {
	out := []string{}
	if list, ok := value.([]interface{}); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// SafeImage extracts a {data, mime_type} map into its two parts.
func SafeImage(value interface{}) (data string, mimeType string, ok bool) {
	m, isMap := value.(map[string]interface{})
	if !isMap {
		return "", "", false
	}
	data = SafeString(m["data"], "")
	mimeType = SafeString(m["mime_type"], SafeString(m["mimeType"], "image/png"))
	if data == "" {
		return "", "", false
	}
	return data, mimeType, true
}
