// Package classify assigns one category from the fixed enumeration to an
// article, using an ordered cascade of named heuristic rules. The evaluation
// order is load-bearing: entertainment-show coverage shares vocabulary with
// sport, and breaking-news crime coverage shares names with politics, so the
// guards and priorities below correct for those known confusions.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/zivkovicn/vestnik/internal/models"
)

// guardPhrases short-circuit to kultura before any scoring. These are
// entertainment formats whose coverage otherwise leaks into sport.
var guardPhrases = compile(
	`zadruga`,
	`elita`,
	`zvezde granda`,
	`farma`,
	`parovi`,
	`survivor`,
	`evrovizij`,
	`rijaliti`,
)

// pathHint maps a URL path segment to a category. Hints take priority over
// keyword scoring, and in particular over sport.
type pathHint struct {
	segment  string
	category models.Category
}

var pathHints = []pathHint{
	{"/politika/", models.CategoryPolitika},
	{"/izbori/", models.CategoryPolitika},
	{"/hronika/", models.CategoryHronika},
	{"/crna-hronika/", models.CategoryHronika},
	{"/tehnologija/", models.CategoryTehnologija},
	{"/tech/", models.CategoryTehnologija},
}

type keywordRule struct {
	name     string
	category models.Category
	weight   float64
	patterns []*regexp.Regexp
}

var keywordRules = []keywordRule{
	{
		name:     "culture",
		category: models.CategoryKultura,
		weight:   1,
		patterns: compile(
			`\bfilm`, `glumac`, `glumic`, `pevač`, `pevac`, `pevačic`, `koncert`,
			`festival`, `\balbum`, `serij[aeu]`, `pozorišt`, `pozorist`, `estrad`,
			`izložb`, `izlozb`, `roman\b`, `knjig`,
		),
	},
	{
		name:     "lifestyle",
		category: models.CategoryKultura, // lifestyle feeds the culture bucket at half weight
		weight:   0.5,
		patterns: compile(
			`\bmod[ae]\b`, `recept`, `horoskop`, `\bsavet`, `lepot`, `putovanj`,
			`\bbrak\b`, `\bvez[ae]\b`, `ishran`, `\bdijet`,
		),
	},
	{
		name:     "politics",
		category: models.CategoryPolitika,
		weight:   1,
		patterns: compile(
			`vlada`, `skupštin`, `skupstin`, `ministar`, `ministr`, `predsednik`,
			`predsednic`, `izbor`, `strank`, `premijer`, `zakon`, `parlament`,
			`opozicij`, `koalicij`, `budžet`, `budzet`, `diplomat`, `rezolucij`,
		),
	},
	{
		name:     "crime",
		category: models.CategoryHronika,
		weight:   1,
		patterns: compile(
			`uhapšen`, `uhapsen`, `hapšenj`, `hapsenj`, `ubistv`, `ubic`, `policij`,
			`nesreć`, `nesrec`, `pucnjav`, `suđenj`, `sudjenj`, `pljačk`, `pljack`,
			`\bdrog[aeu]`, `nestao`, `nestal`, `požar`, `pozar`, `\budes\b`, `tragedij`,
			`osumnjičen`, `osumnjicen`,
		),
	},
	{
		name:     "sport",
		category: models.CategorySport,
		weight:   1,
		patterns: compile(
			`fudbal`, `košark`, `kosark`, `\btenis`, `zvezda`, `partizan`,
			`reprezentacij`, `utakmic`, `\bliga\b`, `\bgol\b`, `trener`, `\bnovak\b`,
			`đoković`, `djokovic`, `olimpij`, `\bmeč`, `\bmec\b`, `turnir`, `derbi`,
		),
	},
	{
		name:     "health",
		category: models.CategoryZdravlje,
		weight:   1,
		patterns: compile(
			`zdravlj`, `lekar`, `bolnic`, `virus`, `vakcin`, `simptom`, `bolest`,
			`terapij`, `pacijent`, `epidemij`,
		),
	},
	{
		name:     "curiosities",
		category: models.CategoryZanimljivosti,
		weight:   1,
		patterns: compile(
			`neverovatn`, `bizarn`, `šokantn`, `sokantn`, `otkrić`, `otkric`,
			`misterij`, `rekord`, `viral`, `fenomen`,
		),
	},
	{
		name:     "world",
		category: models.CategorySvet,
		weight:   1,
		patterns: compile(
			`amerik`, `\bsad\b`, `rusij`, `\bkin[ae]\b`, `evrop`, `nemačk`, `nemack`,
			`francusk`, `ukrajin`, `bliski istok`, `\bnato\b`, `\beu\b`, `izrael`,
			`\bun\b`, `brisel`,
		),
	},
	{
		name:     "economy",
		category: models.CategoryEkonomija,
		weight:   1,
		patterns: compile(
			`ekonomij`, `inflacij`, `\bcen[ae]\b`, `dinar`, `\bevr[ao]\b`, `plat[ae]`,
			`penzij`, `kredit`, `berz`, `investicij`, `privred`, `izvoz`, `uvoz`,
		),
	},
	{
		name:     "tech",
		category: models.CategoryTehnologija,
		weight:   1,
		patterns: compile(
			`tehnologij`, `telefon`, `aplikacij`, `veštačk[ae] inteligencij`,
			`vestack[ae] inteligencij`, `softver`, `robot`, `iphone`, `android`,
			`čip\b`, `cip\b`, `internet`,
		),
	},
}

// Classify maps a title plus a link (or any textual hint) to exactly one
// category. It is pure and total: identical inputs always give the same
// answer and the answer is always a member of the fixed set.
func Classify(title, linkOrHint string) models.Category {
	text := strings.ToLower(title)
	hint := strings.ToLower(linkOrHint)

	for _, re := range guardPhrases {
		if re.MatchString(text) || re.MatchString(hint) {
			return models.CategoryKultura
		}
	}

	for _, h := range pathHints {
		if strings.Contains(hint, h.segment) {
			return h.category
		}
	}

	scores := make(map[models.Category]float64)
	haystack := text + " " + hint
	for _, rule := range keywordRules {
		for _, re := range rule.patterns {
			if re.MatchString(haystack) {
				scores[rule.category] += rule.weight
			}
		}
	}

	// Tie-break order. Culture (incl. half-weight lifestyle hits) wins
	// outright at >=1, politics beats crime on ties, sport is only
	// considered once both are ruled out.
	if scores[models.CategoryKultura] >= 1 {
		return models.CategoryKultura
	}
	if scores[models.CategoryPolitika] > 0 || scores[models.CategoryHronika] > 0 {
		if scores[models.CategoryHronika] > scores[models.CategoryPolitika] {
			return models.CategoryHronika
		}
		return models.CategoryPolitika
	}
	if scores[models.CategorySport] > 0 {
		return models.CategorySport
	}

	rest := []models.Category{
		models.CategoryZdravlje,
		models.CategoryZanimljivosti,
		models.CategorySvet,
		models.CategoryEkonomija,
		models.CategoryTehnologija,
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return scores[rest[i]] > scores[rest[j]]
	})
	if scores[rest[0]] > 0 {
		return rest[0]
	}

	return models.CategoryUnknown
}

func compile(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)` + w)
	}
	return out
}
