package models

// Spending categories assignable by the pipeline.
const (
	CategoryGroceries      = "Groceries"
	CategoryDining         = "Dining"
	CategoryCoffeeShops    = "Coffee Shops"
	CategoryTransportation = "Transportation"
	CategoryEntertainment  = "Entertainment"
	CategoryShopping       = "Shopping"
	CategoryBillsUtilities = "Bills & Utilities"
	CategoryHealthcare     = "Healthcare"
	CategoryIncome         = "Income"
	CategoryFees           = "Fees"
	CategoryTransfers      = "Transfers"
	CategoryTravel         = "Travel"
	CategoryUncategorized  = "Uncategorized"
)

// AllCategories returns the full category vocabulary, in the order it is
// presented to the external model.
func AllCategories() []string {
	return []string{
		CategoryGroceries,
		CategoryDining,
		CategoryCoffeeShops,
		CategoryTransportation,
		CategoryEntertainment,
		CategoryShopping,
		CategoryBillsUtilities,
		CategoryHealthcare,
		CategoryIncome,
		CategoryFees,
		CategoryTransfers,
		CategoryTravel,
		CategoryUncategorized,
	}
}

// IsValidCategory checks if a category string is part of the vocabulary
func IsValidCategory(category string) bool {
	for _, valid := range AllCategories() {
		if category == valid {
			return true
		}
	}
	return false
}

// CategorizationResult is the ephemeral value returned by a pipeline stage.
// It is immediately folded into its Transaction and never persisted.
type CategorizationResult struct {
	Category    string       `json:"category"`
	Confidence  float64      `json:"confidence"`
	Source      string       `json:"source"`
	Explanation *Explanation `json:"explanation,omitempty"`
}
