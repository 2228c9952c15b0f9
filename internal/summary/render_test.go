package summary

import (
	"strings"
	"testing"
	"time"

	"agenda/api/internal/store"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	date, err := time.Parse(DayFormat, value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return date
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"concluído", StatusDone},
		{"Concluído com atraso", StatusDone},
		{"em andamento", StatusInProgress},
		{"Em Andamento", StatusInProgress},
		{"não realizado", StatusNotDone},
		{"NÃO REALIZADO", StatusNotDone},
		{"", StatusPending},
		{"aguardando", StatusPending},
	}
	for _, tt := range tests {
		if got := ClassifyStatus(tt.status); got != tt.want {
			t.Errorf("ClassifyStatus(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		priority string
		want     string
	}{
		{"urgente", PriorityUrgent},
		{"muito urgente", PriorityUrgent},
		{"Alta", PriorityHigh},
		{"média", PriorityMedium},
		{"Baixa", PriorityLow},
		{"", ""},
		{"normal", ""},
	}
	for _, tt := range tests {
		if got := ClassifyPriority(tt.priority); got != tt.want {
			t.Errorf("ClassifyPriority(%q) = %q, want %q", tt.priority, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total int
		wantPercent int
		wantFilled  int
	}{
		{0, 0, 0, 0},
		{0, 4, 0, 0},
		{4, 4, 100, 20},
		{2, 4, 50, 10},
		{1, 3, 35, 7},  // 33.3% -> 7 cells -> 35%
		{2, 3, 65, 13}, // 66.7% -> 13 cells -> 65%
		{1, 40, 5, 1},  // 2.5% rounds up to one cell
	}
	for _, tt := range tests {
		bar, percent := ProgressBar(tt.done, tt.total)
		if len([]rune(bar)) != 20 {
			t.Errorf("ProgressBar(%d,%d): bar length %d, want 20", tt.done, tt.total, len([]rune(bar)))
		}
		filled := strings.Count(bar, "█")
		if filled != tt.wantFilled {
			t.Errorf("ProgressBar(%d,%d): filled = %d, want %d", tt.done, tt.total, filled, tt.wantFilled)
		}
		if tt.total > 0 && percent != filled*5 {
			t.Errorf("ProgressBar(%d,%d): percent %d inconsistent with %d cells", tt.done, tt.total, percent, filled)
		}
	}
}

func TestRenderEmptyDay(t *testing.T) {
	doc := Render(nil, nil, mustDate(t, "2025-03-10"))
	if !strings.Contains(doc, "# Resumo do dia 10/03/2025") {
		t.Errorf("missing header:\n%s", doc)
	}
	if !strings.Contains(doc, "Segunda-feira") {
		t.Errorf("missing weekday:\n%s", doc)
	}
	if !strings.Contains(doc, "Nenhuma anotação registrada neste dia.") {
		t.Errorf("missing empty-day line:\n%s", doc)
	}
	if !strings.Contains(doc, "## Progresso") {
		t.Errorf("missing progress section:\n%s", doc)
	}
	if !strings.Contains(doc, "`"+strings.Repeat("░", 20)+"` 0%") {
		t.Errorf("missing empty progress bar:\n%s", doc)
	}
	if !strings.Contains(doc, "- Total de anotações: 0") {
		t.Errorf("missing zero totals:\n%s", doc)
	}
}

func TestRenderBucketsAndStatuses(t *testing.T) {
	notes := []store.Note{
		{Title: "Revisar relatório", Time: "05:30", Status: "concluído", Kind: store.NoteKindNote},
		{Title: "Reunião de equipe", Time: "09:00", Status: "em andamento", Priority: "alta", Kind: store.NoteKindNote},
		{Title: "Almoço com cliente", Time: "12:00", Status: "não realizado", Priority: "urgente", Kind: store.NoteKindNote},
		{Title: "Academia", Time: "19:00", Status: "", Priority: "baixa", Kind: store.NoteKindNote},
	}
	doc := Render(notes, nil, mustDate(t, "2025-03-11"))

	for _, section := range []string{"## Madrugada", "## Manhã", "## Tarde", "## Noite"} {
		if !strings.Contains(doc, section) {
			t.Errorf("missing section %q:\n%s", section, doc)
		}
	}
	if !strings.Contains(doc, "- [x] 05:30 — Revisar relatório") {
		t.Errorf("done marker wrong:\n%s", doc)
	}
	if !strings.Contains(doc, "- [~] 09:00 — Reunião de equipe _(alta)_") {
		t.Errorf("in-progress marker wrong:\n%s", doc)
	}
	if !strings.Contains(doc, "- [!] 12:00 — Almoço com cliente _(urgente)_") {
		t.Errorf("not-done marker wrong:\n%s", doc)
	}
	if !strings.Contains(doc, "- [ ] 19:00 — Academia _(baixa)_") {
		t.Errorf("pending marker wrong:\n%s", doc)
	}

	// noon belongs to Tarde, not Manhã
	manha := doc[strings.Index(doc, "## Manhã"):strings.Index(doc, "## Tarde")]
	if strings.Contains(manha, "Almoço") {
		t.Errorf("12:00 note rendered in Manhã:\n%s", manha)
	}

	// 1 of 4 done -> 25%
	if !strings.Contains(doc, "` 25%") {
		t.Errorf("expected 25%% completion:\n%s", doc)
	}
	if !strings.Contains(doc, "| Urgente | 1 |") || !strings.Contains(doc, "| Alta | 1 |") ||
		!strings.Contains(doc, "| Média | 0 |") || !strings.Contains(doc, "| Baixa | 1 |") {
		t.Errorf("priority table wrong:\n%s", doc)
	}
}

func TestRenderSkipsSummaryNotes(t *testing.T) {
	notes := []store.Note{
		{Title: "Resumo do dia 10/03/2025", Kind: store.NoteKindSummary, Status: "concluído"},
		{Title: "Tarefa real", Time: "10:00", Status: "concluído", Kind: store.NoteKindNote},
	}
	doc := Render(notes, nil, mustDate(t, "2025-03-10"))
	if !strings.Contains(doc, "Total de anotações: 1") {
		t.Errorf("summary note was counted:\n%s", doc)
	}
	if strings.Contains(doc, "- [x] Resumo do dia") {
		t.Errorf("summary note was listed:\n%s", doc)
	}
}

func TestRenderUntimedNotes(t *testing.T) {
	notes := []store.Note{
		{Title: "Comprar presente", Kind: store.NoteKindNote},
	}
	doc := Render(notes, nil, mustDate(t, "2025-03-10"))
	if !strings.Contains(doc, "## Sem horário definido") {
		t.Errorf("missing untimed section:\n%s", doc)
	}
	if !strings.Contains(doc, "- [ ] Comprar presente") {
		t.Errorf("missing untimed note:\n%s", doc)
	}
}

func TestRenderRoutines(t *testing.T) {
	routines := []store.Routine{
		{Description: "Alongamento", Time: "07:00"},
		{Description: "Leitura"},
	}
	doc := Render(nil, routines, mustDate(t, "2025-03-10"))
	if !strings.Contains(doc, "## Rotinas") {
		t.Errorf("missing routines section:\n%s", doc)
	}
	if !strings.Contains(doc, "- 07:00 — Alongamento") {
		t.Errorf("missing timed routine:\n%s", doc)
	}
	if !strings.Contains(doc, "- Leitura") {
		t.Errorf("missing untimed routine:\n%s", doc)
	}
}

func TestRenderDeterministic(t *testing.T) {
	notes := []store.Note{
		{Title: "B", Time: "09:00", Status: "concluído", Kind: store.NoteKindNote},
		{Title: "A", Time: "09:00", Status: "em andamento", Kind: store.NoteKindNote},
	}
	date := mustDate(t, "2025-03-12")
	first := Render(notes, nil, date)
	// shuffle input order
	second := Render([]store.Note{notes[1], notes[0]}, nil, date)
	if first != second {
		t.Errorf("render not deterministic:\n%s\n----\n%s", first, second)
	}
}
