package scoring

import (
	"strconv"
	"strings"
)

// Defaults applied when a prediction line cannot be parsed. A malformed row
// degrades to a neutral score instead of poisoning the batch.
const (
	DefaultWinProbability  = 0.5
	DefaultNextBestProduct = "general-portfolio"
)

// ParsePrediction reads the serving endpoint's free-text prediction format,
// "win_probability=0.91; next_best_product=premium-support". Unknown keys
// are ignored; missing or malformed values fall back to defaults. The
// probability is clamped into [0, 1].
func ParsePrediction(text string) (float64, string) {
	prob := DefaultWinProbability
	product := DefaultNextBestProduct

	for _, part := range strings.Split(text, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "win_probability":
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				prob = clamp01(parsed)
			}
		case "next_best_product":
			if value != "" {
				product = value
			}
		}
	}
	return prob, product
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
