package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	dataURLRegex    = regexp.MustCompile(`(?i)(data:[^;,"]+;base64,)([A-Za-z0-9+/]{100,}={0,2})`)
	bareBase64Regex = regexp.MustCompile(`"([A-Za-z0-9+/]{100,}={0,2})"`)
)

// sensitiveKeys are compared case-insensitively against map keys.
var sensitiveKeys = map[string]bool{
	"apikey":        true,
	"api_key":       true,
	"api-key":       true,
	"authorization": true,
	"password":      true,
	"secret":        true,
	"token":         true,
}

// MaskMarker replaces the hidden part of a masked secret
const MaskMarker = "***MASKED***"

// MaskSecret keeps the first and last two characters of a secret.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return MaskMarker
	}
	return s[:2] + MaskMarker + s[len(s)-2:]
}

// MaskSensitiveData returns a copy of data with values under sensitive keys masked.
// Only the generic JSON shapes (maps, slices, strings) are walked.
func MaskSensitiveData(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if sensitiveKeys[strings.ToLower(key)] {
				if s, ok := value.(string); ok {
					out[key] = MaskSecret(s)
					continue
				}
			}
			out[key] = MaskSensitiveData(value)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, value := range v {
			if sensitiveKeys[strings.ToLower(key)] {
				out[key] = MaskSecret(value)
			} else {
				out[key] = value
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = MaskSensitiveData(item)
		}
		return out
	default:
		return data
	}
}

// TruncateBase64InData truncates base64 payloads in data URLs and JSON content for logging
func TruncateBase64InData(data interface{}) interface{} {
	switch v := data.(type) {
	case string:
		return truncateBase64String(v)
	case []byte:
		return truncateBase64String(string(v))
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			out[key] = TruncateBase64InData(value)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, value := range v {
			out[key] = truncateBase64String(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = TruncateBase64InData(item)
		}
		return out
	default:
		return data
	}
}

func truncateBase64String(s string) string {
	s = dataURLRegex.ReplaceAllStringFunc(s, func(match string) string {
		sub := dataURLRegex.FindStringSubmatch(match)
		if len(sub) != 3 {
			return match
		}
		return sub[1] + truncatePayload(sub[2])
	})

	return bareBase64Regex.ReplaceAllStringFunc(s, func(match string) string {
		return `"` + truncatePayload(match[1:len(match)-1]) + `"`
	})
}

func truncatePayload(payload string) string {
	if len(payload) <= 100 {
		return payload
	}
	return payload[:50] + "...[" + fmt.Sprintf("%d chars truncated", len(payload)-100) + "]..." + payload[len(payload)-50:]
}
