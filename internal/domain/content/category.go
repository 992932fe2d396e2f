package content

// Category enum. Order of Categories is the definition order used for
// tie-breaks.
type Category string

const (
	CategoryContestGame    Category = "contest_game"
	CategoryPromotional    Category = "promotional"
	CategoryEducational    Category = "educational"
	CategoryBrandCommunity Category = "brand_community"
	CategoryOther          Category = "other"
)

var Categories = []Category{
	CategoryContestGame,
	CategoryPromotional,
	CategoryEducational,
	CategoryBrandCommunity,
	CategoryOther,
}

// Label returns a human readable name used in report text.
func (c Category) Label() string {
	switch c {
	case CategoryContestGame:
		return "interactive games/contests"
	case CategoryPromotional:
		return "promotions/sales"
	case CategoryEducational:
		return "educational content"
	case CategoryBrandCommunity:
		return "brand/community"
	case CategoryOther:
		return "other"
	}
	return string(c)
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}
