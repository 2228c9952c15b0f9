package summary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"agenda/api/internal/store"
	"agenda/api/internal/util"
)

var (
	ErrMissingUser = errors.New("user id is required")
	ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")
)

// DayFormat is the wire format for calendar days.
const DayFormat = "2006-01-02"

// NotificationKind tags notifications produced by summary generation.
const NotificationKind = "day_summary"

// Store is the slice of the data layer the generator needs.
type Store interface {
	ListNotesByDay(ctx context.Context, userID, day, kind string) ([]store.Note, error)
	ListRoutines(ctx context.Context, userID string) ([]store.Routine, error)
	DeleteSummaryNote(ctx context.Context, userID, day string) error
	InsertNote(ctx context.Context, note store.Note) error
	InsertNotification(ctx context.Context, n store.Notification) error
	UnreadNotificationCount(ctx context.Context, userID string) (int, error)
}

// Emitter pushes an event to a user's connected realtime clients and
// reports how many received it.
type Emitter interface {
	EmitToUser(userID, event string, payload any) int
}

// Archiver records the generated document in the user's summary archive.
type Archiver interface {
	SaveSummary(userID, day, markdown, author string) (string, error)
}

// Indexer adds the generated note to the search index.
type Indexer interface {
	IndexNote(note store.Note)
}

// Service generates, persists and announces day summaries.
type Service struct {
	store    Store
	emitter  Emitter
	archiver Archiver
	indexer  Indexer
	now      func() time.Time
}

func NewService(st Store, emitter Emitter, archiver Archiver, indexer Indexer) *Service {
	return &Service{
		store:    st,
		emitter:  emitter,
		archiver: archiver,
		indexer:  indexer,
		now:      time.Now,
	}
}

// Result is what one generation produced.
type Result struct {
	Note         store.Note
	Notification store.Notification
	UnreadCount  int
	Delivered    int
	CommitHash   string
}

// Generate runs the full pipeline for one user and day: fetch, render,
// replace the stored summary note, record a notification, and push it to
// connected clients. The realtime push and the archive commit are best
// effort; their failure degrades to a log warning and never fails the
// generation.
func (s *Service) Generate(ctx context.Context, userID, userName, day string) (Result, error) {
	if userID == "" {
		return Result{}, ErrMissingUser
	}
	date, err := time.Parse(DayFormat, day)
	if err != nil {
		return Result{}, ErrInvalidDate
	}

	notes, err := s.store.ListNotesByDay(ctx, userID, day, store.NoteKindNote)
	if err != nil {
		return Result{}, fmt.Errorf("list notes: %w", err)
	}

	routines, err := s.store.ListRoutines(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("list routines: %w", err)
	}
	routines = routinesForWeekday(routines, date.Weekday())

	markdown := Render(notes, routines, date)

	if err := s.store.DeleteSummaryNote(ctx, userID, day); err != nil {
		return Result{}, fmt.Errorf("delete previous summary: %w", err)
	}

	note := store.Note{
		ID:          util.NewID("note"),
		UserID:      userID,
		Title:       fmt.Sprintf("Resumo do dia %s", date.Format("02/01/2006")),
		Description: markdown,
		Day:         day,
		Kind:        store.NoteKindSummary,
	}
	if err := s.store.InsertNote(ctx, note); err != nil {
		return Result{}, fmt.Errorf("insert summary note: %w", err)
	}

	notification := store.Notification{
		ID:      util.NewID("ntf"),
		UserID:  userID,
		Title:   "Resumo do dia disponível",
		Message: fmt.Sprintf("Seu resumo do dia %s foi gerado.", date.Format("02/01/2006")),
		Kind:    NotificationKind,
	}
	if err := s.store.InsertNotification(ctx, notification); err != nil {
		return Result{}, fmt.Errorf("insert notification: %w", err)
	}

	unread, err := s.store.UnreadNotificationCount(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("count unread notifications: %w", err)
	}

	result := Result{
		Note:         note,
		Notification: notification,
		UnreadCount:  unread,
	}

	if s.archiver != nil {
		hash, err := s.archiver.SaveSummary(userID, day, markdown, userName)
		if err != nil {
			log.Printf("summary: archive commit failed for user=%s day=%s: %v", userID, day, err)
		} else {
			result.CommitHash = hash
		}
	}

	if s.indexer != nil {
		s.indexer.IndexNote(note)
	}

	if s.emitter != nil {
		result.Delivered = s.emitter.EmitToUser(userID, "notification:new", map[string]any{
			"id":          notification.ID,
			"title":       notification.Title,
			"message":     notification.Message,
			"kind":        notification.Kind,
			"unreadCount": unread,
			"day":         day,
		})
		if result.Delivered == 0 {
			log.Printf("summary: realtime delivery skipped for user=%s day=%s: no connected clients", userID, day)
		}
	}

	return result, nil
}

// routinesForWeekday keeps active routines scheduled for the given weekday.
// A routine with no weekdays runs every day.
func routinesForWeekday(routines []store.Routine, weekday time.Weekday) []store.Routine {
	var matched []store.Routine
	for _, routine := range routines {
		if !routine.Active {
			continue
		}
		if len(routine.Weekdays) == 0 {
			matched = append(matched, routine)
			continue
		}
		for _, day := range routine.Weekdays {
			if day == int(weekday) {
				matched = append(matched, routine)
				break
			}
		}
	}
	return matched
}
