package recipe

import (
	"context"
	"testing"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

func TestMemorySourceList(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	recipes, err := src.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recipes) < 3 {
		t.Fatalf("expected at least 3 recipes, got %d", len(recipes))
	}
	for i := 1; i < len(recipes); i++ {
		if recipes[i-1].Name > recipes[i].Name {
			t.Fatalf("list not sorted by name: %q before %q", recipes[i-1].Name, recipes[i].Name)
		}
	}
}

func TestMemorySourceGet(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	tests := []struct {
		id      string
		wantErr error
	}{
		{"garlic-butter-salmon", nil},
		{"weeknight-ramen", nil},
		{"overnight-oats", nil},
		{"nonexistent", domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, err := src.Get(ctx, tt.id)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.ID != tt.id {
				t.Fatalf("expected ID %s, got %s", tt.id, r.ID)
			}
			if len(r.Instructions) == 0 {
				t.Fatal("recipe has no instructions")
			}
			if len(r.Ingredients) == 0 {
				t.Fatal("recipe has no ingredients")
			}
			if r.Servings <= 0 {
				t.Fatal("recipe has no serving count")
			}
		})
	}
}

func TestMemorySourceGetReturnsCopy(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	r, err := src.Get(ctx, "weeknight-ramen")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	r.Ingredients[0].Quantity = 999
	r.Name = "Ruined Ramen"

	fresh, _ := src.Get(ctx, "weeknight-ramen")
	if fresh.Ingredients[0].Quantity == 999 || fresh.Name == "Ruined Ramen" {
		t.Fatal("mutating a returned recipe changed the source")
	}
}

func TestMemorySourceAdd(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	src.Add(&domain.Recipe{
		ID:       "toast",
		Name:     "Toast",
		Servings: 1,
		Instructions: []domain.Instruction{
			{Text: "Toast the bread.", EstimatedMinutes: 3},
		},
		Ingredients: []domain.Ingredient{{Name: "bread", Quantity: 1, Unit: "pieces"}},
	})

	r, err := src.Get(ctx, "toast")
	if err != nil {
		t.Fatalf("get added recipe: %v", err)
	}
	if r.Name != "Toast" {
		t.Fatalf("got %q", r.Name)
	}
}

func TestMemorySourceSearch(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	tests := []struct {
		query    string
		minCount int
	}{
		{"salmon", 1},
		{"noodles", 1},
		{"breakfast", 1},
		{"QUICK", 2},
		{"nonexistent-query-xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := src.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(results) < tt.minCount {
				t.Fatalf("query=%q: expected at least %d results, got %d", tt.query, tt.minCount, len(results))
			}
		})
	}
}
