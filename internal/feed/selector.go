package feed

import (
	"math/rand"

	"github.com/zivkovicn/vestnik/internal/models"
)

// SelectGroups assembles up to limit items across feeds without letting any
// single source dominate, then groups them by canonical link.
//
// First pass: feeds and their items are shuffled, then each hostname may
// contribute at most perSourceCap items. Second pass: if the cap left the
// batch short, remaining items are drained round-robin, one per feed per
// round, with no cap. The rand source is injected so tests can seed it.
func SelectGroups(feeds []Feed, limit, perSourceCap int, rng *rand.Rand) []models.Group {
	if limit <= 0 || len(feeds) == 0 {
		return nil
	}

	pools := make([][]models.NormalizedItem, len(feeds))
	for i, fd := range feeds {
		pool := make([]models.NormalizedItem, len(fd.Items))
		copy(pool, fd.Items)
		rng.Shuffle(len(pool), func(a, b int) { pool[a], pool[b] = pool[b], pool[a] })
		pools[i] = pool
	}
	rng.Shuffle(len(pools), func(a, b int) { pools[a], pools[b] = pools[b], pools[a] })

	selected := make([]models.NormalizedItem, 0, limit)
	perHost := make(map[string]int)
	leftovers := make([][]models.NormalizedItem, len(pools))

	// First pass: respect the per-source cap.
	for i, pool := range pools {
		for _, item := range pool {
			if len(selected) >= limit {
				leftovers[i] = append(leftovers[i], item)
				continue
			}
			if perHost[item.SourceHost] >= perSourceCap {
				leftovers[i] = append(leftovers[i], item)
				continue
			}
			perHost[item.SourceHost]++
			selected = append(selected, item)
		}
	}

	// Second pass: round-robin top-up ignoring the cap.
	for len(selected) < limit {
		drained := true
		for i := range leftovers {
			if len(leftovers[i]) == 0 {
				continue
			}
			drained = false
			selected = append(selected, leftovers[i][0])
			leftovers[i] = leftovers[i][1:]
			if len(selected) >= limit {
				break
			}
		}
		if drained {
			break
		}
	}

	return groupByCanonicalLink(selected)
}

// groupByCanonicalLink merges items that refer to the same underlying
// article. The group's first item is the one encountered first; items whose
// link cannot be canonicalized fall back to the raw link as the key.
func groupByCanonicalLink(items []models.NormalizedItem) []models.Group {
	var groups []models.Group
	index := make(map[string]int)

	for _, item := range items {
		key := item.CanonicalLink
		if key == "" {
			key = item.Link
		}
		if i, ok := index[key]; ok {
			groups[i].Items = append(groups[i].Items, item)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, models.Group{
			CanonicalLink: key,
			Items:         []models.NormalizedItem{item},
		})
	}

	return groups
}
