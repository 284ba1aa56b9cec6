package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEmailsFiltersRoleAccounts(t *testing.T) {
	text := "Write to pastor@example.org or noreply@example.org. Admin: admin@grace.org"
	assert.Equal(t, []string{"pastor@example.org"}, ExtractEmails(text))
}

func TestExtractEmailsDedupesCaseInsensitive(t *testing.T) {
	text := "Office@Grace.org, office@grace.org; OFFICE@GRACE.ORG and youth@grace.org."
	assert.Equal(t, []string{"office@grace.org", "youth@grace.org"}, ExtractEmails(text))
}

func TestExtractEmailsDropsPlaceholders(t *testing.T) {
	text := "john@example.com logo@2x.png info@yourdomain.com 1a2b@sentry.io real@hope.church"
	assert.Equal(t, []string{"real@hope.church"}, ExtractEmails(text))
}

func TestBuildQueries(t *testing.T) {
	q := BuildQueries("Grace Chapel", "https://www.gracechapel.org/about")
	assert.Equal(t, "site:gracechapel.org contact email", q[0])
	assert.Equal(t, `"Grace Chapel" contact email`, q[1])
	assert.Len(t, q, 5)

	q = BuildQueries("Grace Chapel", "")
	assert.Equal(t, `"Grace Chapel" contact email`, q[0])
	assert.Len(t, q, 4)

	assert.Equal(t, []string{"site:hope.church contact email"}, BuildQueries("", "hope.church"))
}
