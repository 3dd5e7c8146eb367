package services

import (
	"strings"
	"time"

	"bankfeed/internal/models"
)

// similarityThreshold is the score a keyword group must exceed for the
// similarity stage to resolve a transaction.
const similarityThreshold = 0.78

// keywordGroup ties a named cluster of co-occurring terms to a category.
// Score is the fraction of the group's keywords found in the description, so
// groups are kept small and cohesive: a group should read like one merchant
// or bill string.
type keywordGroup struct {
	name     string
	category string
	keywords []string
}

type keywordMatcher struct {
	groups []keywordGroup
}

// NewKeywordMatcher creates the similarity stage with the fixed group set.
func NewKeywordMatcher() KeywordMatcherInterface {
	return &keywordMatcher{groups: defaultKeywordGroups()}
}

func (m *keywordMatcher) Match(txn *models.Transaction) *models.CategorizationResult {
	start := time.Now()

	tokens := strings.Fields(strings.ToLower(txn.Description))
	if len(tokens) == 0 {
		return nil
	}

	var best *keywordGroup
	bestScore := 0.0

	for i := range m.groups {
		group := &m.groups[i]
		score := groupScore(group, tokens)
		if score > bestScore {
			best, bestScore = group, score
		}
	}

	if best == nil || bestScore <= similarityThreshold {
		return nil
	}

	return &models.CategorizationResult{
		Category:   best.category,
		Confidence: bestScore,
		Source:     models.SourceSimilarity,
		Explanation: &models.Explanation{
			Stage:        models.SourceSimilarity,
			KeywordGroup: best.name,
			Score:        bestScore,
			Elapsed:      time.Since(start),
		},
	}
}

// groupScore counts keywords textually contained in, or containing, any
// description token, divided by the group size.
func groupScore(group *keywordGroup, tokens []string) float64 {
	matched := 0
	for _, keyword := range group.keywords {
		for _, token := range tokens {
			if strings.Contains(token, keyword) || strings.Contains(keyword, token) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(group.keywords))
}

// defaultKeywordGroups is the fixed similarity vocabulary. Multi-keyword
// groups only fire when their terms co-occur, which keeps false positives
// down at the cost of recall; recall is the model stage's job.
func defaultKeywordGroups() []keywordGroup {
	return []keywordGroup{
		{name: "coffee", category: models.CategoryCoffeeShops, keywords: []string{"coffee"}},
		{name: "espresso-bar", category: models.CategoryCoffeeShops, keywords: []string{"espresso"}},
		{name: "grocery", category: models.CategoryGroceries, keywords: []string{"grocery"}},
		{name: "supermarket", category: models.CategoryGroceries, keywords: []string{"supermarket"}},
		{name: "farmers-market", category: models.CategoryGroceries, keywords: []string{"farmers", "market"}},
		{name: "restaurant", category: models.CategoryDining, keywords: []string{"restaurant"}},
		{name: "pizzeria", category: models.CategoryDining, keywords: []string{"pizza"}},
		{name: "fast-food", category: models.CategoryDining, keywords: []string{"burger"}},
		{name: "gas-station", category: models.CategoryTransportation, keywords: []string{"gas", "station"}},
		{name: "parking", category: models.CategoryTransportation, keywords: []string{"parking"}},
		{name: "transit", category: models.CategoryTransportation, keywords: []string{"transit"}},
		{name: "cinema", category: models.CategoryEntertainment, keywords: []string{"cinema"}},
		{name: "theatre", category: models.CategoryEntertainment, keywords: []string{"theatre"}},
		{name: "utility-electric", category: models.CategoryBillsUtilities, keywords: []string{"electric"}},
		{name: "utility-water", category: models.CategoryBillsUtilities, keywords: []string{"water", "utility"}},
		{name: "telecom", category: models.CategoryBillsUtilities, keywords: []string{"wireless"}},
		{name: "insurance", category: models.CategoryBillsUtilities, keywords: []string{"insurance"}},
		{name: "clinic", category: models.CategoryHealthcare, keywords: []string{"clinic"}},
		{name: "dental", category: models.CategoryHealthcare, keywords: []string{"dental"}},
		{name: "hotel", category: models.CategoryTravel, keywords: []string{"hotel"}},
		{name: "airline", category: models.CategoryTravel, keywords: []string{"airlines"}},
		{name: "refund", category: models.CategoryIncome, keywords: []string{"refund"}},
		{name: "interest-paid", category: models.CategoryIncome, keywords: []string{"interest", "paid"}},
		{name: "overdraft", category: models.CategoryFees, keywords: []string{"overdraft"}},
		{name: "wire-transfer", category: models.CategoryTransfers, keywords: []string{"wire", "transfer"}},
		{name: "online-retail", category: models.CategoryShopping, keywords: []string{"amazon"}},
		{name: "department-store", category: models.CategoryShopping, keywords: []string{"target"}},
	}
}
