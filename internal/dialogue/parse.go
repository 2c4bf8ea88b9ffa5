package dialogue

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`.*?([0-9]+(?:\.[0-9]+)?)`)

// ParsePrice reads the first number out of a price string such as "USD83.10".
func ParsePrice(raw string) (float64, error) {
	m := numberPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("no number in %q", raw)
	}
	return strconv.ParseFloat(m[1], 64)
}

func ParseNumber(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

// Parser looks up a named parse function.
func Parser(name string) (ParseFunc, error) {
	switch name {
	case "", "number":
		return ParseNumber, nil
	case "price":
		return ParsePrice, nil
	default:
		return nil, fmt.Errorf("unknown parser %q", name)
	}
}
