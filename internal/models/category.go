package models

// Category is the closed set of topical tags an article can carry.
// The classifier never produces a value outside this set.
type Category string

const (
	CategoryPolitika      Category = "politika"
	CategoryHronika       Category = "hronika"
	CategorySport         Category = "sport"
	CategoryEkonomija     Category = "ekonomija"
	CategoryTehnologija   Category = "tehnologija"
	CategoryKultura       Category = "kultura"
	CategoryZdravlje      Category = "zdravlje"
	CategoryZanimljivosti Category = "zanimljivosti"
	CategorySvet          Category = "svet"
	CategoryDrustvo       Category = "drustvo"
	CategoryLifestyle     Category = "lifestyle"
	CategoryUnknown       Category = "unknown"
)

// AllCategories lists every valid category, unknown included.
var AllCategories = []Category{
	CategoryPolitika,
	CategoryHronika,
	CategorySport,
	CategoryEkonomija,
	CategoryTehnologija,
	CategoryKultura,
	CategoryZdravlje,
	CategoryZanimljivosti,
	CategorySvet,
	CategoryDrustvo,
	CategoryLifestyle,
	CategoryUnknown,
}

// Valid reports whether c is part of the fixed enumeration.
func (c Category) Valid() bool {
	for _, v := range AllCategories {
		if c == v {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }
