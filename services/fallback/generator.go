// Package fallback composes offline news briefings from static phrase
// pools. It is the last resort when every provider has failed and it
// performs no I/O.
package fallback

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/upb/news-gateway/models"
	"github.com/upb/news-gateway/services/prompt"
)

const bulletCount = 4

var headlines = []string{
	"Major %[2]s Developments Reported in %[1]s",
	"%[1]s Announces New %[2]s Initiatives",
	"%[2]s Landscape Evolving in %[1]s",
	"International Focus on %[1]s's %[2]s Progress",
	"%[1]s Leads Regional %[2]s Advancements",
}

// summary templates take region, lowercased subject, region group
var summaries = []string{
	"Observers report significant movement in %[2]s across %[1]s, pointing to positive trends and new opportunities throughout %[3]s.",
	"As %[1]s continues to shape its %[2]s agenda, recent developments suggest a promising path for regional cooperation and growth.",
	"A fresh look at %[2]s in %[1]s shows both persistent challenges and notable achievements, marking an important phase for the country.",
}

var bullets = []string{
	"New collaborative agreements signed with international partners",
	"Economic indicators show upward movement in key sectors",
	"Technological adoption reaching new record levels",
	"Policy reforms creating a more favorable investment climate",
	"Community engagement and participation exceeding expectations",
	"Infrastructure development projects advancing on schedule",
	"Educational and training programs expanding rapidly",
	"Environmental sustainability measures being implemented",
}

// Generator builds fallback briefings. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// Option configures a Generator
type Option func(*Generator)

// WithSeed makes the phrase selection reproducible
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a Generator seeded from the current time
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a complete briefing for region and subject.
// Blank inputs fall back to the request defaults.
func (g *Generator) Generate(region, subject string) models.GeneratedContent {
	if strings.TrimSpace(region) == "" {
		region = models.DefaultRegion
	}
	if strings.TrimSpace(subject) == "" {
		subject = models.DefaultSubject
	}
	info := prompt.LookupRegion(region)
	topic := strings.ToLower(subject)

	g.mu.Lock()
	headline := headlines[g.rng.Intn(len(headlines))]
	summary := summaries[g.rng.Intn(len(summaries))]
	picks := g.rng.Perm(len(bullets))[:bulletCount]
	g.mu.Unlock()

	now := g.now()

	var b strings.Builder
	fmt.Fprintf(&b, "HEADLINE: "+headline+"\n\n", info.Name, subject)
	fmt.Fprintf(&b, "SUMMARY: "+summary+"\n\n", info.Name, topic, info.Group)
	b.WriteString("KEY DEVELOPMENTS:\n")
	for _, idx := range picks {
		fmt.Fprintf(&b, "• %s\n", bullets[idx])
	}
	fmt.Fprintf(&b, "\nCONTEXT: This briefing covers recent %s developments in %s, with attention to %s and the wider %s. It weighs achievements against ongoing challenges.\n\n",
		topic, info.Name, info.Capital, info.Group)
	fmt.Fprintf(&b, "REGIONAL IMPACT: Developments in %s are shaping broader trends across %s, with implications for international cooperation and economic partnerships.\n\n",
		info.Name, info.Group)
	fmt.Fprintf(&b, "FUTURE OUTLOOK: Analysts expect continued momentum in %s as %s carries out its strategic plans and strengthens regional partnerships.\n\n",
		topic, info.Name)
	fmt.Fprintf(&b, "GENERATED: %s\n", now.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "AI NEWS ASSISTANT | Country: %s | Topic: %s | Language: English", info.Name, subject)

	return models.GeneratedContent{
		Text:           b.String(),
		SourceProvider: models.FallbackProvider,
		GeneratedAt:    now,
	}
}
