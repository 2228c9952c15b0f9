package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultNote    ResultType = "note"
	ResultRoutine ResultType = "routine"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	Day     string     `json:"day,omitempty"`
	Kind    string     `json:"kind,omitempty"`
}

// Query describes a search request. UserID is mandatory: results are
// always scoped to their owner.
type Query struct {
	Text       string
	UserID     string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// NoteRecord is the data we index for a note.
type NoteRecord struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Day         string `json:"day"`
	Kind        string `json:"kind"`
}

// RoutineRecord is the data we index for a routine.
type RoutineRecord struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Description string `json:"description"`
}
