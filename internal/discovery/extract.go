package discovery

import (
	"net/url"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// role accounts nobody reads personally
var blockedLocalParts = map[string]bool{
	"noreply":       true,
	"no-reply":      true,
	"no_reply":      true,
	"donotreply":    true,
	"do-not-reply":  true,
	"admin":         true,
	"administrator": true,
	"support":       true,
	"webmaster":     true,
	"postmaster":    true,
	"hostmaster":    true,
	"mailer-daemon": true,
	"abuse":         true,
	"privacy":       true,
	"example":       true,
	"user":          true,
	"username":      true,
	"name":          true,
	"email":         true,
	"your":          true,
	"yourname":      true,
}

// placeholder and tracking domains that show up in scraped snippets
var blockedDomains = map[string]bool{
	"example.com":    true,
	"example.net":    true,
	"domain.com":     true,
	"yourdomain.com": true,
	"email.com":      true,
	"mail.com":       true,
	"test.com":       true,
	"yoursite.com":   true,
	"website.com":    true,
	"sentry.io":      true,
	"wixpress.com":   true,
}

// asset names like logo@2x.png match the email pattern
var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js"}

// ExtractEmails returns the usable addresses in text, lower-cased and in
// first-seen order without duplicates.
func ExtractEmails(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range emailPattern.FindAllString(text, -1) {
		email := strings.ToLower(strings.Trim(raw, ".-_"))
		if seen[email] || !usable(email) {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out
}

func usable(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	local, domain := email[:at], email[at+1:]
	if blockedLocalParts[local] || blockedDomains[domain] {
		return false
	}
	for _, s := range assetSuffixes {
		if strings.HasSuffix(domain, s) {
			return false
		}
	}
	return !strings.Contains(domain, "..")
}

// BuildQueries returns the search queries for an organization, most specific
// first: a site-restricted query when the website is known, then name-based ones.
func BuildQueries(name, website string) []string {
	name = strings.TrimSpace(name)
	var queries []string
	if host := hostOf(website); host != "" {
		queries = append(queries, "site:"+host+" contact email")
	}
	if name == "" {
		return queries
	}
	quoted := `"` + name + `"`
	return append(queries,
		quoted+" contact email",
		quoted+" pastor email",
		quoted+" church office email address",
		quoted+" email",
	)
}

func hostOf(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
