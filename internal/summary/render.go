// Package summary builds the Markdown day-summary document for a user's
// notes and routines and drives its generation pipeline.
package summary

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"agenda/api/internal/store"
)

// Status buckets derived from the free-form status text.
const (
	StatusDone       = "done"
	StatusInProgress = "in_progress"
	StatusNotDone    = "not_done"
	StatusPending    = "pending"
)

// Priority buckets derived from the free-form priority text.
const (
	PriorityUrgent = "urgente"
	PriorityHigh   = "alta"
	PriorityMedium = "média"
	PriorityLow    = "baixa"
)

// ClassifyStatus maps a note's status text to one of the four status
// buckets by case-insensitive substring match.
func ClassifyStatus(status string) string {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "concluído"):
		return StatusDone
	case strings.Contains(s, "em andamento"):
		return StatusInProgress
	case strings.Contains(s, "não realizado"):
		return StatusNotDone
	default:
		return StatusPending
	}
}

// ClassifyPriority maps a note's priority text to one of the four known
// priorities, or "" when none matches.
func ClassifyPriority(priority string) string {
	p := strings.ToLower(priority)
	switch {
	case strings.Contains(p, "urgente"):
		return PriorityUrgent
	case strings.Contains(p, "alta"):
		return PriorityHigh
	case strings.Contains(p, "média"):
		return PriorityMedium
	case strings.Contains(p, "baixa"):
		return PriorityLow
	default:
		return ""
	}
}

// timeBucket is a fixed time-of-day slot. The four buckets cover [0,24).
type timeBucket struct {
	label string
	from  int // inclusive hour
	to    int // exclusive hour
}

var timeBuckets = []timeBucket{
	{"Madrugada", 0, 6},
	{"Manhã", 6, 12},
	{"Tarde", 12, 18},
	{"Noite", 18, 24},
}

const progressBarWidth = 20

// ProgressBar renders a bar of exactly progressBarWidth characters filled
// proportionally to done/total, with the percentage rounded to the nearest
// 5%. A zero total yields an empty bar.
func ProgressBar(done, total int) (bar string, percent int) {
	if total > 0 {
		// one bar cell per 5%
		cells := int(math.Round(float64(done) / float64(total) * progressBarWidth))
		percent = cells * 5
		bar = strings.Repeat("█", cells) + strings.Repeat("░", progressBarWidth-cells)
		return bar, percent
	}
	return strings.Repeat("░", progressBarWidth), 0
}

var weekdayNames = [7]string{
	"Domingo", "Segunda-feira", "Terça-feira", "Quarta-feira",
	"Quinta-feira", "Sexta-feira", "Sábado",
}

// noteHour parses the note's HH:MM time. ok is false for notes without a
// parsable time; those are listed in their own trailing section.
func noteHour(value string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

func statusMarker(status string) string {
	switch ClassifyStatus(status) {
	case StatusDone:
		return "[x]"
	case StatusInProgress:
		return "[~]"
	case StatusNotDone:
		return "[!]"
	default:
		return "[ ]"
	}
}

// Render builds the Markdown day summary. It is a pure function of its
// inputs: the same notes, routines and date always produce the same
// document. Summary notes in the input are skipped so that regeneration
// never feeds a previous summary back into itself.
func Render(notes []store.Note, routines []store.Routine, date time.Time) string {
	var day []store.Note
	for _, note := range notes {
		if note.Kind == store.NoteKindSummary {
			continue
		}
		day = append(day, note)
	}
	sort.SliceStable(day, func(i, j int) bool {
		if day[i].Time != day[j].Time {
			return day[i].Time < day[j].Time
		}
		return day[i].Title < day[j].Title
	})

	var done, inProgress, notDone, pending int
	priorityCounts := map[string]int{}
	for _, note := range day {
		switch ClassifyStatus(note.Status) {
		case StatusDone:
			done++
		case StatusInProgress:
			inProgress++
		case StatusNotDone:
			notDone++
		default:
			pending++
		}
		if p := ClassifyPriority(note.Priority); p != "" {
			priorityCounts[p]++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Resumo do dia %s\n\n", date.Format("02/01/2006"))
	fmt.Fprintf(&b, "**%s**\n\n", weekdayNames[int(date.Weekday())])

	bar, percent := ProgressBar(done, len(day))
	b.WriteString("## Progresso\n\n")
	fmt.Fprintf(&b, "`%s` %d%%\n\n", bar, percent)
	fmt.Fprintf(&b, "- Total de anotações: %d\n", len(day))
	fmt.Fprintf(&b, "- Concluídas: %d\n", done)
	fmt.Fprintf(&b, "- Em andamento: %d\n", inProgress)
	fmt.Fprintf(&b, "- Não realizadas: %d\n", notDone)
	fmt.Fprintf(&b, "- Pendentes: %d\n\n", pending)

	if len(day) == 0 && len(routines) == 0 {
		b.WriteString("Nenhuma anotação registrada neste dia.\n")
		return b.String()
	}

	if len(day) > 0 {
		b.WriteString("## Prioridades\n\n")
		b.WriteString("| Prioridade | Quantidade |\n")
		b.WriteString("| --- | --- |\n")
		fmt.Fprintf(&b, "| Urgente | %d |\n", priorityCounts[PriorityUrgent])
		fmt.Fprintf(&b, "| Alta | %d |\n", priorityCounts[PriorityHigh])
		fmt.Fprintf(&b, "| Média | %d |\n", priorityCounts[PriorityMedium])
		fmt.Fprintf(&b, "| Baixa | %d |\n\n", priorityCounts[PriorityLow])
	}

	var untimed []store.Note
	for _, bucket := range timeBuckets {
		var section []store.Note
		for _, note := range day {
			hour, ok := noteHour(note.Time)
			if !ok {
				continue
			}
			if hour >= bucket.from && hour < bucket.to {
				section = append(section, note)
			}
		}
		if len(section) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", bucket.label)
		for _, note := range section {
			writeNoteLine(&b, note, true)
		}
		b.WriteString("\n")
	}
	for _, note := range day {
		if _, ok := noteHour(note.Time); !ok {
			untimed = append(untimed, note)
		}
	}
	if len(untimed) > 0 {
		b.WriteString("## Sem horário definido\n\n")
		for _, note := range untimed {
			writeNoteLine(&b, note, false)
		}
		b.WriteString("\n")
	}

	if len(routines) > 0 {
		b.WriteString("## Rotinas\n\n")
		for _, routine := range routines {
			if routine.Time != "" {
				fmt.Fprintf(&b, "- %s — %s\n", routine.Time, routine.Description)
			} else {
				fmt.Fprintf(&b, "- %s\n", routine.Description)
			}
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeNoteLine(b *strings.Builder, note store.Note, withTime bool) {
	marker := statusMarker(note.Status)
	if withTime && note.Time != "" {
		fmt.Fprintf(b, "- %s %s — %s", marker, note.Time, note.Title)
	} else {
		fmt.Fprintf(b, "- %s %s", marker, note.Title)
	}
	if p := ClassifyPriority(note.Priority); p != "" {
		fmt.Fprintf(b, " _(%s)_", p)
	}
	b.WriteString("\n")
}
