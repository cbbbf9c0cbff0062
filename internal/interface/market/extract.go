package market

import (
	"strconv"
	"strings"
	"time"
)

// priceKeys is the closed vocabulary of field names treated as price values
// during the recursive payload walk. Matching is case-insensitive and exact.
var priceKeys = map[string]struct{}{
	"price":         {},
	"min_price":     {},
	"max_price":     {},
	"average_price": {},
	"avg_price":     {},
	"value":         {},
	"amount":        {},
	"total_price":   {},
}

// timestampHints are substrings that mark a key as a freshness timestamp.
var timestampHints = []string{"updated", "update", "fetched", "timestamp", "expires", "as_of"}

const maxPlausiblePrice = 50000

// plausiblePrice filters non-positive and absurd values.
func plausiblePrice(value float64) bool {
	return value > 0 && value <= maxPlausiblePrice
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// ExtractPrices walks an arbitrarily nested decoded JSON value and collects
// every plausible number whose key matches the price vocabulary.
func ExtractPrices(node interface{}) []float64 {
	var prices []float64
	switch typed := node.(type) {
	case map[string]interface{}:
		for key, value := range typed {
			if _, ok := priceKeys[strings.ToLower(key)]; ok {
				if amount, ok := asFloat(value); ok && plausiblePrice(amount) {
					prices = append(prices, amount)
					continue
				}
			}
			switch value.(type) {
			case map[string]interface{}, []interface{}:
				prices = append(prices, ExtractPrices(value)...)
			}
		}
	case []interface{}:
		for _, item := range typed {
			prices = append(prices, ExtractPrices(item)...)
		}
	}
	return prices
}

// ExtractDestinationPrices scopes the walk to the destination's entry in a
// payload's "data" map when present, falling back to the whole payload.
// Destination-scoped values below 20 are discarded as noise.
func ExtractDestinationPrices(payload map[string]interface{}, destinationCode, destinationCity string) []float64 {
	probes := []string{
		destinationCode,
		strings.ToUpper(destinationCode),
		destinationCity,
		strings.ToUpper(destinationCity),
		strings.ToLower(destinationCity),
	}

	var collected []float64
	if data, ok := payload["data"].(map[string]interface{}); ok {
		seen := map[string]struct{}{}
		for _, probe := range probes {
			if probe == "" {
				continue
			}
			if _, dup := seen[probe]; dup {
				continue
			}
			seen[probe] = struct{}{}
			if node, ok := data[probe]; ok {
				collected = append(collected, ExtractPrices(node)...)
			}
		}
	}
	if len(collected) == 0 {
		collected = ExtractPrices(payload)
	}

	filtered := collected[:0]
	for _, price := range collected {
		if price >= 20 {
			filtered = append(filtered, price)
		}
	}
	return filtered
}

// ExtractTimestamps walks a decoded payload collecting parseable timestamps
// under keys that contain a freshness hint.
func ExtractTimestamps(node interface{}) []time.Time {
	var stamps []time.Time
	switch typed := node.(type) {
	case map[string]interface{}:
		for key, value := range typed {
			lowered := strings.ToLower(key)
			for _, hint := range timestampHints {
				if strings.Contains(lowered, hint) {
					if parsed, ok := parseTimestamp(value); ok {
						stamps = append(stamps, parsed)
					}
					break
				}
			}
			switch value.(type) {
			case map[string]interface{}, []interface{}:
				stamps = append(stamps, ExtractTimestamps(value)...)
			}
		}
	case []interface{}:
		for _, item := range typed {
			stamps = append(stamps, ExtractTimestamps(item)...)
		}
	}
	return stamps
}

func parseTimestamp(value interface{}) (time.Time, bool) {
	raw, ok := value.(string)
	if !ok {
		return time.Time{}, false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// LatestTimestamp returns the most recent of the collected timestamps.
func LatestTimestamp(stamps []time.Time) (time.Time, bool) {
	if len(stamps) == 0 {
		return time.Time{}, false
	}
	latest := stamps[0]
	for _, stamp := range stamps[1:] {
		if stamp.After(latest) {
			latest = stamp
		}
	}
	return latest, true
}
