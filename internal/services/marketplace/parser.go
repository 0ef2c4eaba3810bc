package marketplace

import (
	"regexp"
	"strconv"
	"strings"
)

// soldMarker is the Thai phrase preceding a listing's units-sold figure.
const soldMarker = "ขายแล้ว"

var (
	priceCharRe = regexp.MustCompile(`[^0-9.,]`)
	soldTokenRe = regexp.MustCompile(`([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k|K|m|M|พัน|หมื่น|แสน|ล้าน)?`)
)

// soldMultipliers maps unit suffixes to their numeric scale. The Thai words
// are thousand, ten-thousand, hundred-thousand and million.
var soldMultipliers = map[string]float64{
	"k":      1_000,
	"K":      1_000,
	"m":      1_000_000,
	"M":      1_000_000,
	"พัน":    1_000,
	"หมื่น":  10_000,
	"แสน":    100_000,
	"ล้าน":   1_000_000,
}

// ParsePrice extracts a price from localized text such as "฿1,234.50".
// Commas are treated as thousands separators. Empty or unparsable text
// yields nil, meaning "no price", which is distinct from zero.
func ParsePrice(text string) *float64 {
	cleaned := priceCharRe.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return nil
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &value
}

// ParseSold extracts a units-sold count from text containing the Thai
// "sold already" marker, e.g. "ขายแล้ว 2.5k+" or "ขายแล้ว 1 หมื่น". The
// numeric token may carry a unit suffix; the result is truncated to an
// integer. Absence of the marker or an unparsable number yields nil.
func ParseSold(text string) *int64 {
	idx := strings.Index(text, soldMarker)
	if idx < 0 {
		return nil
	}

	tail := text[idx+len(soldMarker):]
	match := soldTokenRe.FindStringSubmatch(tail)
	if match == nil {
		return nil
	}

	number := strings.ReplaceAll(match[1], ",", "")
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return nil
	}

	if multiplier, ok := soldMultipliers[match[2]]; ok {
		value *= multiplier
	}

	sold := int64(value)
	return &sold
}
