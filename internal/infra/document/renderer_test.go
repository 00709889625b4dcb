package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/studio-funnel/internal/entity"
)

func testLead() *entity.Lead {
	return &entity.Lead{
		ID:       "page-1",
		Category: entity.FormSiteBuild,
		Name:     "O&#39;Brien",
		Email:    "ob@example.com",
		Company:  "Acme &amp; Co",
		Answers: map[string]entity.Answer{
			"budget":       entity.TextAnswer("$30k"),
			"pageCount":    entity.TextAnswer("12"),
			"needsLogo":    entity.BoolAnswer(true),
			"integrations": entity.ListAnswer("Stripe", "<script>"),
		},
	}
}

func newTestRenderer() *Renderer {
	r := NewRenderer("North Studio", "hello@example.com")
	r.Now = func() time.Time { return time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC) }
	return r
}

func TestRenderer_HTML(t *testing.T) {
	out, err := newTestRenderer().HTML(testLead())
	require.NoError(t, err)

	doc := string(out)
	assert.Contains(t, doc, "Site Build brief")
	assert.Contains(t, doc, "March 4, 2025")
	assert.Contains(t, doc, "O&#39;Brien")
	assert.Contains(t, doc, "Acme &amp; Co")
	assert.Contains(t, doc, "Page count")
	assert.Contains(t, doc, "Stripe, &lt;script&gt;")
	assert.NotContains(t, doc, "<script>")
}

func TestRenderer_PDF(t *testing.T) {
	out, err := newTestRenderer().PDF(testLead())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 500)
}

func TestRenderer_SplitsOverviewAndRequirements(t *testing.T) {
	v := newTestRenderer().view(testLead())

	require.Len(t, v.Overview, 1)
	assert.Equal(t, "Budget", v.Overview[0].Label)
	assert.Len(t, v.Requirements, 3)
	assert.Equal(t, "O'Brien", v.Name)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Project type", humanize("projectType"))
	assert.Equal(t, "Launch date", humanize("launch_date"))
	assert.Equal(t, "Budget", humanize("budget"))
}
