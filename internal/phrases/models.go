package phrases

// Phrase is a saved quick-response phrase for one user.
//
// JSON field names follow the public API contract (camelCase), which the
// browser clients already depend on.
type Phrase struct {
	ID       string `json:"id" db:"id"`
	UserID   int    `json:"userId" db:"user_id"`
	Text     string `json:"text" db:"text"`
	Category string `json:"category" db:"category"`
}

// Categories a phrase may be filed under.
var Categories = []string{
	"general",
	"greetings",
	"questions",
	"responses",
	"emergencies",
	"custom",
}

// ValidCategory reports whether v is one of the known phrase categories.
func ValidCategory(v string) bool {
	for _, c := range Categories {
		if c == v {
			return true
		}
	}
	return false
}
