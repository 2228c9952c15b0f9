package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across notes and routines using
// plainto_tsquery and ts_rank, with ts_headline for snippets. The user_id
// filter is mandatory on every sub-query.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	if q.UserID == "" {
		return nil, 0, fmt.Errorf("search without user scope")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('portuguese', $1)"
	args := []any{q.Text, q.UserID}

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultNote {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'note'::text AS type, n.id, n.title,
				ts_headline('portuguese', coalesce(n.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				TO_CHAR(n.day, 'YYYY-MM-DD') AS day, n.kind,
				ts_rank(n.fts, %s) AS rank
			FROM notes n
			WHERE n.fts @@ %s AND n.user_id = $2`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultRoutine {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'routine'::text AS type, r.id, r.description AS title,
				ts_headline('portuguese', coalesce(r.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS day, ''::text AS kind,
				ts_rank(r.fts, %s) AS rank
			FROM routines r
			WHERE r.fts @@ %s AND r.user_id = $2`, tsQuery, tsQuery, tsQuery))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, day, kind
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.Day, &r.Kind); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]NoteRecord, []RoutineRecord, error) {
	noteRows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, TO_CHAR(day, 'YYYY-MM-DD'), kind
		FROM notes
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load notes: %w", err)
	}
	defer noteRows.Close()

	notes := make([]NoteRecord, 0)
	for noteRows.Next() {
		var n NoteRecord
		if err := noteRows.Scan(&n.ID, &n.UserID, &n.Title, &n.Description, &n.Day, &n.Kind); err != nil {
			return nil, nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := noteRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate notes: %w", err)
	}

	routineRows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, description
		FROM routines
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load routines: %w", err)
	}
	defer routineRows.Close()

	routines := make([]RoutineRecord, 0)
	for routineRows.Next() {
		var r RoutineRecord
		if err := routineRows.Scan(&r.ID, &r.UserID, &r.Description); err != nil {
			return nil, nil, fmt.Errorf("scan routine: %w", err)
		}
		routines = append(routines, r)
	}
	if err := routineRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate routines: %w", err)
	}

	return notes, routines, nil
}
