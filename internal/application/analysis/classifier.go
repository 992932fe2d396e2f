package analysis

import (
	"strings"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
)

const minCategoryConfidence = 0.1

type categoryKeywords struct {
	category content.Category
	arabic   []string
	english  []string
}

// categoryTable is in definition order; the first category wins a tie.
var categoryTable = []categoryKeywords{
	{
		category: content.CategoryContestGame,
		arabic:   []string{"مسابقة", "لعبة", "تحدي", "جائزة", "فوز", "ربح", "مشاركة"},
		english:  []string{"contest", "game", "challenge", "prize", "win", "competition", "participate"},
	},
	{
		category: content.CategoryPromotional,
		arabic:   []string{"خصم", "عرض", "تخفيض", "سعر", "شراء", "بيع", "تسويق", "إعلان"},
		english:  []string{"discount", "offer", "sale", "price", "buy", "purchase", "promotion", "deal"},
	},
	{
		category: content.CategoryEducational,
		arabic:   []string{"تعليم", "تعلم", "درس", "معلومة", "تربية", "تطوير", "مهارة", "معرفة"},
		english:  []string{"education", "learning", "lesson", "information", "teaching", "development", "skill", "knowledge"},
	},
	{
		category: content.CategoryBrandCommunity,
		arabic:   []string{"مجتمع", "أسرة", "تواصل", "علاقة", "دعم", "مبادرة", "فعالية"},
		english:  []string{"community", "family", "connection", "relationship", "support", "initiative", "event"},
	},
}

// Classify assigns a caption to a category by keyword substring matching.
// Confidence is the matched share of the category's keywords, in [0,1].
func Classify(caption string) (content.Category, float64) {
	if strings.TrimSpace(caption) == "" {
		return content.CategoryOther, 0
	}
	text := strings.ToLower(caption)

	best := content.CategoryOther
	bestScore := 0.0
	for _, ck := range categoryTable {
		matched := 0
		for _, kw := range ck.arabic {
			if strings.Contains(text, kw) {
				matched++
			}
		}
		for _, kw := range ck.english {
			if strings.Contains(text, kw) {
				matched++
			}
		}
		score := float64(matched) / float64(len(ck.arabic)+len(ck.english))
		if score > bestScore {
			best, bestScore = ck.category, score
		}
	}

	if bestScore > minCategoryConfidence {
		return best, bestScore
	}
	return content.CategoryOther, 0
}
