package core

// CategoryConfig describes how a category is displayed.
type CategoryConfig struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// CategoryOther is the fallback bucket for anything that fits nowhere else.
const CategoryOther = "Other"

var categories = []CategoryConfig{
	{Name: "Food", Color: "#f97316", Icon: "utensils"},
	{Name: "Transport", Color: "#3b82f6", Icon: "car"},
	{Name: "Shopping", Color: "#ec4899", Icon: "shopping-bag"},
	{Name: "Entertainment", Color: "#8b5cf6", Icon: "film"},
	{Name: "Bills", Color: "#ef4444", Icon: "receipt"},
	{Name: "Health", Color: "#10b981", Icon: "heart-pulse"},
	{Name: "Education", Color: "#eab308", Icon: "graduation-cap"},
	{Name: CategoryOther, Color: "#6b7280", Icon: "circle-ellipsis"},
}

var categoryIndex = func() map[string]int {
	idx := make(map[string]int, len(categories))
	for i, c := range categories {
		idx[c.Name] = i
	}
	return idx
}()

// Categories returns the registry in display order.
func Categories() []CategoryConfig {
	return append([]CategoryConfig(nil), categories...)
}

// CategoryNames returns the valid category names in display order.
func CategoryNames() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// LookupCategory returns the display configuration for name.
func LookupCategory(name string) (CategoryConfig, bool) {
	i, ok := categoryIndex[name]
	if !ok {
		return CategoryConfig{}, false
	}
	return categories[i], true
}

func IsValidCategory(name string) bool {
	_, ok := categoryIndex[name]
	return ok
}

// categoryRank orders categories by registry position; unknown names sort last.
func categoryRank(name string) int {
	if i, ok := categoryIndex[name]; ok {
		return i
	}
	return len(categories)
}
