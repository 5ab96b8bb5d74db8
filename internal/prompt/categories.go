package prompt

// CategoryDirector is the reserved pseudo-category for user-directed
// generation. It has no template of its own and is never cached.
const CategoryDirector = "director"

// Category describes one suggestion category.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Tooltip string `json:"tooltip"`
	Builtin bool   `json:"builtin"`
	NSFW    bool   `json:"nsfw,omitempty"`
	Genre   bool   `json:"genre,omitempty"`
}

// MainCategories are the primary builtin categories.
var MainCategories = []Category{
	{ID: "context", Name: "Context-Aware", Icon: "fa-compass", Tooltip: "Context-based suggestions", Builtin: true},
	{ID: "twist", Name: "Plot Twist", Icon: "fa-shuffle", Tooltip: "Unexpected plot twists", Builtin: true},
	{ID: "character", Name: "New Character", Icon: "fa-user-plus", Tooltip: "Introduce characters", Builtin: true},
	{ID: "explicit", Name: "Explicit", Icon: "fa-fire", Tooltip: "NSFW content", Builtin: true, NSFW: true},
}

// GenreCategories are the builtin genre categories.
var GenreCategories = []Category{
	{ID: "action", Name: "Action", Icon: "fa-person-running", Tooltip: "High energy and combat", Builtin: true, Genre: true},
	{ID: "comedy", Name: "Comedy", Icon: "fa-masks-theater", Tooltip: "Humor and levity", Builtin: true, Genre: true},
	{ID: "fantasy", Name: "Fantasy", Icon: "fa-hat-wizard", Tooltip: "Magic and wonder", Builtin: true, Genre: true},
	{ID: "horror", Name: "Horror", Icon: "fa-ghost", Tooltip: "Fear and dread", Builtin: true, Genre: true},
	{ID: "mystery", Name: "Mystery", Icon: "fa-magnifying-glass", Tooltip: "Puzzles and secrets", Builtin: true, Genre: true},
	{ID: "noir", Name: "Noir", Icon: "fa-user-secret", Tooltip: "Shadows and intrigue", Builtin: true, Genre: true},
	{ID: "romance", Name: "Romance", Icon: "fa-heart", Tooltip: "Love and affection", Builtin: true, Genre: true},
	{ID: "sci-fi", Name: "Sci-Fi", Icon: "fa-rocket", Tooltip: "Futurism and tech", Builtin: true, Genre: true},
	{ID: "thriller", Name: "Thriller", Icon: "fa-stopwatch", Tooltip: "Suspense and pressure", Builtin: true, Genre: true},
}

// Builtin reports whether id names a builtin category.
func Builtin(id string) bool {
	for _, c := range MainCategories {
		if c.ID == id {
			return true
		}
	}
	for _, c := range GenreCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// BuiltinCategories returns the builtin category list. NSFW categories
// are dropped unless showExplicit is set.
func BuiltinCategories(showExplicit bool) []Category {
	cats := make([]Category, 0, len(MainCategories)+len(GenreCategories))
	for _, c := range MainCategories {
		if c.NSFW && !showExplicit {
			continue
		}
		cats = append(cats, c)
	}
	cats = append(cats, GenreCategories...)
	return cats
}
