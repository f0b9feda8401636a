package dto

// SearchRequest is the global search query.
type SearchRequest struct {
	Query string `query:"q" validate:"max=100"`
}

// SearchResult is one hit. Type is user, subject, department or portion.
type SearchResult struct {
	Type     string `json:"type"`
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// SearchResponse lists hits grouped by type in a fixed order: users,
// subjects, departments, portions.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}
