package feed

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zivkovicn/vestnik/internal/models"
)

func makeFeed(host string, n int) Feed {
	items := make([]models.NormalizedItem, 0, n)
	for i := 0; i < n; i++ {
		link := fmt.Sprintf("https://%s/vesti/%d", host, i)
		items = append(items, models.NormalizedItem{
			Title:         fmt.Sprintf("Vest %d sa %s", i, host),
			Link:          link,
			CanonicalLink: link,
			SourceHost:    host,
			FeedURL:       "https://" + host + "/rss",
		})
	}
	return Feed{URL: "https://" + host + "/rss", Items: items}
}

func countByHost(groups []models.Group) map[string]int {
	counts := make(map[string]int)
	for _, g := range groups {
		for _, item := range g.Items {
			counts[item.SourceHost]++
		}
	}
	return counts
}

func TestSelectGroupsPerSourceCap(t *testing.T) {
	feeds := []Feed{
		makeFeed("a.example.rs", 10),
		makeFeed("b.example.rs", 10),
		makeFeed("c.example.rs", 10),
	}

	// Limit below the combined cap: the first pass alone can satisfy it, so
	// no host may exceed the cap.
	groups := SelectGroups(feeds, 6, 2, rand.New(rand.NewSource(42)))

	total := 0
	for host, count := range countByHost(groups) {
		assert.LessOrEqual(t, count, 2, host)
		total += count
	}
	assert.Equal(t, 6, total)
}

func TestSelectGroupsRoundRobinTopUp(t *testing.T) {
	feeds := []Feed{
		makeFeed("a.example.rs", 10),
		makeFeed("b.example.rs", 10),
	}

	// Limit above what the cap allows (2 hosts x cap 2 = 4): the top-up
	// pass must ignore the cap and fill the batch.
	groups := SelectGroups(feeds, 8, 2, rand.New(rand.NewSource(42)))

	total := 0
	for _, count := range countByHost(groups) {
		total += count
	}
	assert.Equal(t, 8, total)
}

func TestSelectGroupsExhaustsSmallPools(t *testing.T) {
	feeds := []Feed{
		makeFeed("a.example.rs", 2),
		makeFeed("b.example.rs", 1),
	}

	groups := SelectGroups(feeds, 25, 2, rand.New(rand.NewSource(7)))

	total := 0
	for _, g := range groups {
		total += len(g.Items)
	}
	assert.Equal(t, 3, total)
}

func TestSelectGroupsMergesSyndicatedItems(t *testing.T) {
	shared := "https://original.example.rs/vesti/zemljotres"
	feedA := Feed{URL: "https://a.example.rs/rss", Items: []models.NormalizedItem{
		{Title: "Zemljotres pogodio region", Link: shared + "?utm_source=a", CanonicalLink: shared, SourceHost: "a.example.rs"},
	}}
	feedB := Feed{URL: "https://b.example.rs/rss", Items: []models.NormalizedItem{
		{Title: "Zemljotres pogodio region, ima štete", Link: shared + "?utm_source=b", CanonicalLink: shared, SourceHost: "b.example.rs"},
	}}

	groups := SelectGroups([]Feed{feedA, feedB}, 12, 2, rand.New(rand.NewSource(1)))

	require.Len(t, groups, 1)
	assert.Equal(t, shared, groups[0].CanonicalLink)
	assert.Len(t, groups[0].Items, 2)
}

func TestSelectGroupsDeterministicWithSeed(t *testing.T) {
	feeds := []Feed{
		makeFeed("a.example.rs", 5),
		makeFeed("b.example.rs", 5),
		makeFeed("c.example.rs", 5),
	}

	first := SelectGroups(feeds, 6, 2, rand.New(rand.NewSource(99)))
	second := SelectGroups(feeds, 6, 2, rand.New(rand.NewSource(99)))

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].CanonicalLink, second[i].CanonicalLink)
	}
}

func TestSelectGroupsZeroLimit(t *testing.T) {
	assert.Nil(t, SelectGroups([]Feed{makeFeed("a.example.rs", 3)}, 0, 2, rand.New(rand.NewSource(1))))
}
