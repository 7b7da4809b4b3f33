package content

import "strings"

// junkImagePatterns match URLs of non-content assets: logos, tracking pixels, icons, avatars, placeholders
var junkImagePatterns = []string{
	"scorecardresearch.com",
	"doubleclick.net",
	"pixel",
	"1x1",
	"tracking",
	"beacon",
	"analytics",
	"logo",
	"icon",
	"avatar",
	"gravatar",
	"placeholder",
	"spacer",
	"blank.",
	"sprite",
	"data:image",
	".gif",
	".svg",
}

// IsJunkImage reports whether the URL is empty or looks like a non-content asset
func IsJunkImage(imageURL string) bool {
	u := strings.ToLower(strings.TrimSpace(imageURL))
	if u == "" {
		return true
	}
	for _, p := range junkImagePatterns {
		if strings.Contains(u, p) {
			return true
		}
	}
	return false
}
