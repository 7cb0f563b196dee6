package worker

import (
	"regexp"
	"strings"
)

var (
	tickerPattern = regexp.MustCompile(`\$?\b[A-Z]{1,5}(?:\.[A-Z]{1,2})?\b`)

	// upper-case words that show up in financial questions but are not symbols
	notTickers = map[string]struct{}{
		"I": {}, "A": {}, "AN": {}, "OK": {}, "Q": {},
		"CEO": {}, "CFO": {}, "EPS": {}, "FY": {}, "YOY": {}, "QOQ": {},
		"USD": {}, "EUR": {}, "GAAP": {}, "TTM": {}, "API": {},
	}
)

// ExtractTicker returns the first token of text that looks like a ticker
// symbol, e.g. "AAPL" or "BRK.B".
func ExtractTicker(text string) (string, bool) {
	for _, m := range tickerPattern.FindAllString(text, -1) {
		m = strings.TrimPrefix(m, "$")
		if _, skip := notTickers[m]; skip {
			continue
		}
		return m, true
	}
	return "", false
}
