package news

import (
	"regexp"
	"sort"
)

// Ticker candidate patterns: $AAPL, bare 2-5 capital letters, (NASDAQ:AAPL).
var tickerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$([A-Z]{1,5})\b`),
	regexp.MustCompile(`\b([A-Z]{2,5})\b`),
	regexp.MustCompile(`\(([A-Z]+):([A-Z]{1,5})\)`),
}

// Uppercase words that match the bare-ticker pattern but are never symbols.
var tickerStopWords = map[string]bool{
	"NYSE": true, "NASDAQ": true, "CEO": true, "CFO": true, "IPO": true,
	"ETF": true, "SEC": true, "FDA": true, "AI": true, "AR": true,
	"VR": true, "IT": true, "US": true, "UK": true,
}

// ExtractTickers pulls candidate ticker symbols out of free text using the
// heuristic patterns above. The result is deduplicated and sorted.
func ExtractTickers(text string) []string {
	seen := make(map[string]bool)
	for _, pattern := range tickerPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			ticker := match[1]
			if len(match) > 2 && match[2] != "" {
				ticker = match[2]
			}
			if ticker == "" || tickerStopWords[ticker] {
				continue
			}
			if len(ticker) < 2 || len(ticker) > 5 {
				continue
			}
			seen[ticker] = true
		}
	}

	tickers := make([]string, 0, len(seen))
	for ticker := range seen {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}
