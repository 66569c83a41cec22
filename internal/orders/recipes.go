package orders

import (
	_ "embed"
	"fmt"
	"math/rand"

	"gopkg.in/yaml.v3"

	"kitchenrush/internal/models"
)

//go:embed recipes.yaml
var defaultRecipes []byte

// RecipeBook holds the dishes orders can be drawn from
type RecipeBook struct {
	recipes []models.Recipe
	byID    map[string]int
}

type recipeFile struct {
	Recipes []models.Recipe `yaml:"recipes"`
}

// LoadRecipes parses a yaml recipe list
func LoadRecipes(data []byte) (*RecipeBook, error) {
	var f recipeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse recipes: %w", err)
	}
	return NewRecipeBook(f.Recipes)
}

// DefaultRecipes returns the built-in menu
func DefaultRecipes() (*RecipeBook, error) {
	return LoadRecipes(defaultRecipes)
}

// NewRecipeBook validates and indexes recipes
func NewRecipeBook(recipes []models.Recipe) (*RecipeBook, error) {
	if len(recipes) == 0 {
		return nil, fmt.Errorf("recipe book is empty")
	}
	b := &RecipeBook{byID: make(map[string]int, len(recipes))}
	for _, r := range recipes {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := b.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate recipe id: %s", r.ID)
		}
		b.byID[r.ID] = len(b.recipes)
		b.recipes = append(b.recipes, r)
	}
	return b, nil
}

// Get looks up a recipe by id
func (b *RecipeBook) Get(id string) (models.Recipe, bool) {
	i, ok := b.byID[id]
	if !ok {
		return models.Recipe{}, false
	}
	return b.recipes[i], true
}

// Random picks a recipe using rng
func (b *RecipeBook) Random(rng *rand.Rand) models.Recipe {
	return b.recipes[rng.Intn(len(b.recipes))]
}

// All returns a copy of every recipe
func (b *RecipeBook) All() []models.Recipe {
	out := make([]models.Recipe, len(b.recipes))
	copy(out, b.recipes)
	return out
}

// Len returns the number of recipes
func (b *RecipeBook) Len() int {
	return len(b.recipes)
}
