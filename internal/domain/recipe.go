// Package domain defines the core types and interfaces for the cooking
// assistant. All other packages depend on domain; domain depends on nothing.
package domain

// Recipe represents a complete cooking recipe.
type Recipe struct {
	ID           string
	Name         string
	Description  string
	Servings     int
	TotalMinutes int
	Ingredients  []Ingredient
	Instructions []Instruction
	Tags         []string
}

// RecipeSummary is a lightweight view of a recipe for listing.
type RecipeSummary struct {
	ID           string
	Name         string
	Description  string
	TotalMinutes int
	Tags         []string
}

// Ingredient represents a single ingredient with human-style quantities.
type Ingredient struct {
	Name     string
	Quantity float64
	Unit     string // "cup", "tablespoon", "gram", "" for countables
}

// Instruction is one step of a recipe as authored, before a session
// turns it into a tracked CookingStep.
type Instruction struct {
	Text             string
	EstimatedMinutes int // 0 if untimed
}
