package cooking

import (
	"fmt"
	"strings"
)

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name     string
	Quantity string
	Unit     string
}

// RecipeContext is an immutable snapshot of the recipe a session is cooking.
// It is built once at session start and rendered into the system prompt.
type RecipeContext struct {
	RecipeName  string
	Description string
	Cuisine     string
	Category    string
	PrepTime    int
	CookTime    int
	Servings    int
	Ingredients []Ingredient
	Steps       []string
}

// Format renders the recipe as markdown for the assistant's context.
// Structure matters here: headers, quantities on every ingredient line and
// numbered steps give the model stable anchors to reference.
func (rc RecipeContext) Format() string {
	lines := []string{
		fmt.Sprintf("# %s", rc.RecipeName),
		"",
		fmt.Sprintf("**Description:** %s", orDefault(rc.Description, "No description")),
		fmt.Sprintf("**Cuisine:** %s", orDefault(rc.Cuisine, "Not specified")),
		fmt.Sprintf("**Category:** %s", orDefault(rc.Category, "Not specified")),
		fmt.Sprintf("**Prep Time:** %s minutes", orUnknown(rc.PrepTime)),
		fmt.Sprintf("**Cook Time:** %s minutes", orUnknown(rc.CookTime)),
		fmt.Sprintf("**Servings:** %s", orUnknown(rc.Servings)),
		"",
		"## Ingredients",
	}

	for _, ing := range rc.Ingredients {
		line := strings.TrimSpace(fmt.Sprintf("- %s %s %s", ing.Quantity, ing.Unit, ing.Name))
		lines = append(lines, line)
	}

	lines = append(lines, "", "## Steps")
	for i, step := range rc.Steps {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, step))
	}

	return strings.Join(lines, "\n")
}

const systemPromptTemplate = `You are a friendly, helpful cooking assistant guiding someone through a recipe.
You have the complete recipe loaded and are helping them cook it step by step.

Your personality:
- Warm and encouraging, like a friend who loves cooking
- Patient with questions and mistakes
- Concise - they're cooking with messy hands, keep responses brief
- Practical - offer substitutions, timing tips, and troubleshooting

Your capabilities:
- Guide through steps one at a time
- Answer questions about ingredients, techniques, or substitutions
- Help with timing ("how much longer?", "is it done yet?")
- Offer encouragement and tips
- Adapt if they want to skip steps or modify the recipe

Keep responses SHORT (1-3 sentences) unless they ask for detail.
When they're ready for the next step, give just that step clearly.

Here is the recipe you're helping with:

%s
`

// SystemPrompt builds the full system message content for this recipe.
func (rc RecipeContext) SystemPrompt() string {
	return fmt.Sprintf(systemPromptTemplate, rc.Format())
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func orUnknown(n int) string {
	if n <= 0 {
		return "?"
	}
	return fmt.Sprintf("%d", n)
}
