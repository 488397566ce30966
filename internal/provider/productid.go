package provider

import (
	"regexp"
	"strings"
)

// productIDTokens are the path markers that precede a marketplace item id, in match order.
var productIDTokens = []string{"/dp/", "/gp/product/", "/product/"}

var productIDPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// ExtractProductID returns the marketplace item id embedded in productURL, or "" when none is present.
func ExtractProductID(productURL string) string {
	for _, token := range productIDTokens {
		idx := strings.Index(productURL, token)
		if idx < 0 {
			continue
		}

		rest := productURL[idx+len(token):]
		if end := strings.IndexAny(rest, "/?#"); end >= 0 {
			rest = rest[:end]
		}
		if productIDPattern.MatchString(rest) {
			return rest
		}
	}
	return ""
}
