package llm

import (
	"fmt"
	"regexp"
	"strings"
)

const defaultSystemPrompt = `You are the editor of "Collective Monologue", a Korean-language magazine covering American theater and film.
Write for Korean readers who follow Broadway and Hollywood closely. Stay factual, never invent events or quotes.
Always answer with a single JSON object and nothing else.`

const reactionHeading = "[현지 팬들의 시선: POSITIVE & NEGATIVE]"

// buildPrompt makes the user message for a single article
func (e *Enricher) buildPrompt(title, body, reaction string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Original title: %s\n\n", title))
	sb.WriteString("Article text:\n")
	sb.WriteString(body)
	sb.WriteString("\n\n")

	if strings.TrimSpace(reaction) != "" {
		sb.WriteString("Comments of local fans about this story:\n")
		sb.WriteString(reaction)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Write in Korean:\n")
	sb.WriteString("1. title_kr - a natural Korean headline.\n")
	sb.WriteString("2. summary_kr - a 2-3 sentence summary of the core news.\n")
	sb.WriteString("3. content_kr - an article in HTML using only <p>, <h3>, <blockquote>, <ul>, <li> tags: the core news, ")
	sb.WriteString("background on the people, productions, theaters and awards mentioned, and an editor's perspective for Korean readers.\n")
	if strings.TrimSpace(reaction) != "" {
		sb.WriteString(fmt.Sprintf("   End content_kr with an <h3>%s</h3> section.\n", reactionHeading))
		sb.WriteString("4. reddit_reaction_kr - a short synthesis of the fans' positive and negative views. ")
		sb.WriteString("Call them local fans or the local community, never name the website they come from.\n")
	} else {
		sb.WriteString("4. reddit_reaction_kr - empty string.\n")
	}
	sb.WriteString("5. keywords - 3 to 6 English names of people, productions or venues from the story.\n\n")
	sb.WriteString(`Respond with JSON: {"title_kr": "...", "summary_kr": "...", "content_kr": "...", "reddit_reaction_kr": "...", "keywords": ["..."]}`)

	return sb.String()
}

// platform mentions rewritten in published text, order matters
var platformScrubs = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)reddit\s*\(레딧\)`), "현지 커뮤니티"},
	{regexp.MustCompile(`(?i)\(reddit 등\)`), "(현지 커뮤니티 등)"},
	{regexp.MustCompile(`(?i)레딧\s*\(reddit\)`), "현지 온라인 커뮤니티"},
	{regexp.MustCompile(`레딧의 팬들`), "현지 커뮤니티의 팬들"},
	{regexp.MustCompile(`레딧`), "현지 커뮤니티"},
	{regexp.MustCompile(`(?i)\breddit\b`), "현지 커뮤니티"},
	{regexp.MustCompile(`(?i)\bwikipedia\b|위키피디아`), "사전적 의미"},
}

// ScrubPlatformNames replaces names of the sites used as sources with neutral Korean terms
func ScrubPlatformNames(s string) string {
	for _, p := range platformScrubs {
		s = p.re.ReplaceAllString(s, p.repl)
	}
	return s
}
