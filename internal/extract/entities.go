package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/keywatch/internal/model"
)

var (
	symbolPattern  = regexp.MustCompile(`(?i)\b(BTC|ETH|USDT|USDC|BNB|XRP|ADA|SOL|DOGE|AVAX|DOT|MATIC|LINK|UNI|LTC|ALGO)\b`)
	tickerPattern  = regexp.MustCompile(`\$[A-Za-z][A-Za-z0-9]{1,9}\b`)
	addressPattern = regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`)
	urlPattern     = regexp.MustCompile(`https?://[^\s<>"')\]]+`)
	hashtagPattern = regexp.MustCompile(`#[A-Za-z0-9_]+`)
	mentionPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9_.])(@[A-Za-z0-9_]+)`)
)

// Entities finds crypto symbols, contract addresses, URLs, hashtags and
// mentions in content. Symbols are upper-cased; every list keeps first
// occurrence order without duplicates.
func Entities(content string) *model.Entities {
	e := &model.Entities{}

	for _, s := range symbolPattern.FindAllString(content, -1) {
		e.Symbols = appendUnique(e.Symbols, strings.ToUpper(s))
	}
	for _, s := range tickerPattern.FindAllString(content, -1) {
		e.Symbols = appendUnique(e.Symbols, strings.ToUpper(s[1:]))
	}
	for _, a := range addressPattern.FindAllString(content, -1) {
		e.Addresses = appendUnique(e.Addresses, a)
	}
	for _, u := range urlPattern.FindAllString(content, -1) {
		e.URLs = appendUnique(e.URLs, strings.TrimRight(u, ".,;:!?"))
	}
	for _, h := range hashtagPattern.FindAllString(content, -1) {
		e.Hashtags = appendUnique(e.Hashtags, h)
	}
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		e.Mentions = appendUnique(e.Mentions, m[1])
	}
	return e
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
