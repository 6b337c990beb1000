package models

// ManifestPath is the fixed content store key of a package's manifest.
const ManifestPath = "manifest.json"

// PageRef is one entry of the manifest's page ordering.
type PageRef struct {
	ID         string `json:"id" validate:"required"`
	Title      string `json:"title"`
	ConfigFile string `json:"configFile" validate:"required,relative_path"`
}

// Manifest is the top-level descriptor of a quiz package.
type Manifest struct {
	Name            string    `json:"name" validate:"required"`
	Description     string    `json:"description,omitempty"`
	TotalPages      int       `json:"totalPages" validate:"gte=0"`
	TotalQuestions  int       `json:"totalQuestions" validate:"gte=0"`
	GlobalTimeLimit *int      `json:"globalTimeLimit,omitempty" validate:"omitempty,gte=0"`
	PageTimeLimit   *int      `json:"pageTimeLimit,omitempty" validate:"omitempty,gte=0"`
	PageOrder       []PageRef `json:"pageOrder" validate:"required,min=1,unique=ID,dive"`
}

// TimeLimit resolves the countdown for a session. A global limit wins over a
// per-page limit; zero means the quiz is untimed.
func (m *Manifest) TimeLimit() (seconds int, perPage bool) {
	if m.GlobalTimeLimit != nil && *m.GlobalTimeLimit > 0 {
		return *m.GlobalTimeLimit, false
	}
	if m.PageTimeLimit != nil && *m.PageTimeLimit > 0 {
		return *m.PageTimeLimit, true
	}
	return 0, false
}

// PageIndex returns the position of the page with the given id, or -1.
func (m *Manifest) PageIndex(id string) int {
	for i, ref := range m.PageOrder {
		if ref.ID == id {
			return i
		}
	}
	return -1
}
