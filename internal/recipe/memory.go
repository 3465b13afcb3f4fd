// Package recipe provides recipe source implementations.
package recipe

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

// Compile-time interface check.
var _ domain.RecipeSource = (*MemorySource)(nil)

// MemorySource holds recipes in memory. Safe for concurrent use.
type MemorySource struct {
	mu      sync.RWMutex
	recipes map[string]*domain.Recipe
	log     *logger.Logger
}

// NewMemorySource creates a recipe source preloaded with built-in
// recipes.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := &MemorySource{
		recipes: make(map[string]*domain.Recipe),
		log:     log.Named("recipe"),
	}
	src.seed()
	return src
}

// List returns summaries of all available recipes, sorted by name.
func (s *MemorySource) List(ctx context.Context) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("listing all recipes, count=%d", len(s.recipes))

	out := make([]domain.RecipeSummary, 0, len(s.recipes))
	for _, r := range s.recipes {
		out = append(out, summarize(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns a copy of a recipe by ID, so callers can scale or
// annotate it without touching the source.
func (s *MemorySource) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		s.log.Debug("recipe not found: %s", id)
		return nil, domain.ErrNotFound
	}
	cp := *r
	cp.Ingredients = append([]domain.Ingredient(nil), r.Ingredients...)
	cp.Instructions = append([]domain.Instruction(nil), r.Instructions...)
	cp.Tags = append([]string(nil), r.Tags...)
	return &cp, nil
}

// Add registers a recipe. An existing recipe with the same ID is
// replaced.
func (s *MemorySource) Add(recipe *domain.Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recipes[recipe.ID] = recipe
	s.log.Info("recipe added: %s", recipe.Name)
}

// Search returns recipes whose name, description or tags contain the
// query string, case-insensitively.
func (s *MemorySource) Search(ctx context.Context, query string) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	s.log.Debug("searching recipes for: %s", q)

	var out []domain.RecipeSummary
	for _, r := range s.recipes {
		if s.matches(r, q) {
			out = append(out, summarize(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemorySource) matches(r *domain.Recipe, query string) bool {
	if strings.Contains(strings.ToLower(r.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(r.Description), query) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func summarize(r *domain.Recipe) domain.RecipeSummary {
	return domain.RecipeSummary{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		TotalMinutes: r.TotalMinutes,
		Tags:         r.Tags,
	}
}

// seed populates the source with built-in recipes.
func (s *MemorySource) seed() {
	recipes := []*domain.Recipe{
		garlicButterSalmon(),
		weeknightRamen(),
		overnightOats(),
	}
	for _, r := range recipes {
		s.recipes[r.ID] = r
	}
	s.log.Debug("seeded %d recipes", len(recipes))
}

func garlicButterSalmon() *domain.Recipe {
	return &domain.Recipe{
		ID:           "garlic-butter-salmon",
		Name:         "Garlic Butter Salmon",
		Description:  "Crispy-skinned salmon basted in garlic butter, with blistered asparagus on the side. Restaurant dinner, weeknight effort.",
		Servings:     2,
		TotalMinutes: 25,
		Tags:         []string{"fish", "quick", "one-pan", "dinner"},
		Ingredients: []domain.Ingredient{
			{Name: "salmon fillets", Quantity: 2, Unit: "pieces"},
			{Name: "butter", Quantity: 3, Unit: "tablespoons"},
			{Name: "garlic", Quantity: 4, Unit: "cloves"},
			{Name: "asparagus", Quantity: 450, Unit: "grams"},
			{Name: "olive oil", Quantity: 1, Unit: "tablespoon"},
			{Name: "lemon", Quantity: 1, Unit: "pieces"},
			{Name: "honey", Quantity: 1, Unit: "teaspoon"},
		},
		Instructions: []domain.Instruction{
			{Text: "Pat the salmon completely dry and season both sides with salt. Dry skin is the whole secret to crispy skin -- don't skip this.", EstimatedMinutes: 0},
			{Text: "Heat olive oil in a heavy skillet over medium-high. Lay the fillets in skin-side down and press gently for the first 20 seconds so the skin doesn't curl. Leave them alone for 4 minutes.", EstimatedMinutes: 4},
			{Text: "Flip the fillets. Add the butter and smashed garlic cloves. Tilt the pan and spoon the foaming butter over the fish for 2 minutes, then move the salmon to a plate to rest.", EstimatedMinutes: 2},
			{Text: "Throw the asparagus into the same pan. Toss it through the garlic butter and let it blister for 5 minutes, shaking occasionally.", EstimatedMinutes: 5},
			{Text: "Squeeze in the lemon, stir in the honey, and let the pan sauce bubble for 1 minute.", EstimatedMinutes: 1},
			{Text: "Plate the asparagus, set the salmon on top, and pour the pan sauce over everything. Serve immediately.", EstimatedMinutes: 0},
		},
	}
}

func weeknightRamen() *domain.Recipe {
	return &domain.Recipe{
		ID:           "weeknight-ramen",
		Name:         "Weeknight Ramen",
		Description:  "Instant noodles upgraded with a jammy egg, garlic-chili broth and whatever greens are in the fridge. Ready before delivery would even confirm.",
		Servings:     2,
		TotalMinutes: 20,
		Tags:         []string{"noodles", "quick", "comfort", "vegetarian-option"},
		Ingredients: []domain.Ingredient{
			{Name: "ramen noodles", Quantity: 2, Unit: "pieces"},
			{Name: "eggs", Quantity: 2, Unit: "pieces"},
			{Name: "chicken stock", Quantity: 4, Unit: "cups"},
			{Name: "garlic", Quantity: 3, Unit: "cloves"},
			{Name: "soy sauce", Quantity: 2, Unit: "tablespoons"},
			{Name: "chili oil", Quantity: 1, Unit: "tablespoon"},
			{Name: "baby spinach", Quantity: 2, Unit: "cups"},
			{Name: "scallions", Quantity: 2, Unit: "pieces"},
		},
		Instructions: []domain.Instruction{
			{Text: "Bring a small pot of water to a boil and lower in the eggs. 7 minutes for jammy yolks -- set a timer, this one is unforgiving.", EstimatedMinutes: 7},
			{Text: "While the eggs cook, slice the scallions and mince the garlic. Drop the cooked eggs straight into cold water.", EstimatedMinutes: 0},
			{Text: "In your soup pot, sizzle the garlic in chili oil for 30 seconds, then pour in the stock and soy sauce. Bring to a simmer.", EstimatedMinutes: 4},
			{Text: "Add the noodles to the simmering broth and cook for 3 minutes. Stir in the spinach for the last 30 seconds -- it wilts almost instantly.", EstimatedMinutes: 3},
			{Text: "Peel and halve the eggs. Ladle noodles and broth into bowls, top with egg halves and scallions, and finish with more chili oil if you're brave.", EstimatedMinutes: 0},
		},
	}
}

func overnightOats() *domain.Recipe {
	return &domain.Recipe{
		ID:           "overnight-oats",
		Name:         "Overnight Oats",
		Description:  "Five minutes tonight, breakfast tomorrow. The fridge does all the work.",
		Servings:     1,
		TotalMinutes: 5,
		Tags:         []string{"breakfast", "no-cook", "make-ahead", "vegetarian"},
		Ingredients: []domain.Ingredient{
			{Name: "rolled oats", Quantity: 0.5, Unit: "cup"},
			{Name: "milk", Quantity: 0.5, Unit: "cup"},
			{Name: "yogurt", Quantity: 0.25, Unit: "cup"},
			{Name: "maple syrup", Quantity: 1, Unit: "tablespoon"},
			{Name: "chia seeds", Quantity: 1, Unit: "teaspoon"},
			{Name: "frozen berries", Quantity: 0.5, Unit: "cup"},
		},
		Instructions: []domain.Instruction{
			{Text: "Stir the oats, milk, yogurt, maple syrup and chia seeds together in a jar. It will look too liquid -- that's correct.", EstimatedMinutes: 0},
			{Text: "Drop the frozen berries on top. Don't stir them in; they'll bleed into the top layer overnight and look great.", EstimatedMinutes: 0},
			{Text: "Lid on, fridge, walk away. Eat within three days, stirred or layered, cold from the jar.", EstimatedMinutes: 0},
		},
	}
}
