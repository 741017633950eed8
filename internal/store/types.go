package store

type LoadStats struct {
	Entities int `json:"entities"`
	Triples  int `json:"triples"`
}

// SearchResult is a text-valued triple matching a full-text search.
type SearchResult struct {
	Subject  string  `json:"subject"`
	Relation string  `json:"relation"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet"`
}
