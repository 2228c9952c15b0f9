package app

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"agenda/api/internal/archive"
	"agenda/api/internal/auth"
	"agenda/api/internal/authpw"
	"agenda/api/internal/config"
	"agenda/api/internal/email"
	"agenda/api/internal/export"
	"agenda/api/internal/search"
	"agenda/api/internal/store"
	"agenda/api/internal/summary"
	"agenda/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

type NoteInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Day         string `json:"day"`
	Time        string `json:"time"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

type RoutineInput struct {
	Description string `json:"description"`
	Time        string `json:"time"`
	Weekdays    []int  `json:"weekdays"`
	Active      *bool  `json:"active"`
}

type dataStore interface {
	GetUserByID(context.Context, string) (store.User, error)
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	InsertNote(context.Context, store.Note) error
	GetNote(context.Context, string, string) (store.Note, error)
	UpdateNote(context.Context, store.Note) error
	DeleteNote(context.Context, string, string) error
	ListNotesByDay(context.Context, string, string, string) ([]store.Note, error)
	GetSummaryNote(context.Context, string, string) (store.Note, error)
	DeleteSummaryNote(context.Context, string, string) error
	InsertRoutine(context.Context, store.Routine) error
	UpdateRoutine(context.Context, store.Routine) error
	DeleteRoutine(context.Context, string, string) error
	ListRoutines(context.Context, string) ([]store.Routine, error)
	InsertNotification(context.Context, store.Notification) error
	ListNotifications(context.Context, string, int) ([]store.Notification, error)
	MarkNotificationRead(context.Context, string, string) error
	MarkAllNotificationsRead(context.Context, string) error
	UnreadNotificationCount(context.Context, string) (int, error)
	Ping(ctx context.Context) error
}

// sessionStore holds refresh tokens. Redis when configured, Postgres otherwise.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type summaryGenerator interface {
	Generate(ctx context.Context, userID, userName, day string) (summary.Result, error)
}

type searcher interface {
	Search(q search.Query) search.Response
	IndexNote(n search.NoteRecord)
	IndexRoutine(r search.RoutineRecord)
	DeleteNote(id string)
	DeleteRoutine(id string)
	ReindexAllFromPG(ctx context.Context)
}

type exporter interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

type summaryArchive interface {
	GetSummary(userID, day string) (string, error)
	History(userID string, limit int) ([]archive.Entry, error)
}

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  sessionStore
	authpw    *authpw.Service
	email     *email.Service
	summaries summaryGenerator
	search    searcher
	exporter  exporter
	archive   summaryArchive
}

// Deps carries the optional collaborators; nil fields disable the feature.
type Deps struct {
	AuthPassword *authpw.Service
	Email        *email.Service
	Summaries    summaryGenerator
	Search       searcher
	Exporter     exporter
	Archive      summaryArchive
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions sessionStore, deps Deps) *Service {
	if sessions == nil {
		sessions = dataStore
	}
	return &Service{
		cfg:       cfg,
		store:     dataStore,
		sessions:  sessions,
		authpw:    deps.AuthPassword,
		email:     deps.Email,
		summaries: deps.Summaries,
		search:    deps.Search,
		exporter:  deps.Exporter,
		archive:   deps.Archive,
	}
}

// Bootstrap warms up background state; today that is the search index.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.search != nil {
		go s.search.ReindexAllFromPG(context.Background())
	}
	return s.store.Ping(ctx)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// AuthPasswordService exposes the email/password flows to the HTTP layer.
func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

// SendVerificationEmail delivers the signup verification link, best effort.
func (s *Service) SendVerificationEmail(to, userName, token string) {
	if !s.SMTPConfigured() {
		return
	}
	url := s.cfg.CORSOrigin + "/verificar-email?token=" + token
	go func() {
		if err := s.email.SendVerificationEmail(to, userName, url); err != nil {
			log.Printf("app: send verification email to %s: %v", to, err)
		}
	}()
}

// SendPasswordResetEmail delivers the reset link, best effort.
func (s *Service) SendPasswordResetEmail(to, userName, token string) {
	if !s.SMTPConfigured() {
		return
	}
	url := s.cfg.CORSOrigin + "/redefinir-senha?token=" + token
	go func() {
		if err := s.email.SendPasswordResetEmail(to, userName, url); err != nil {
			log.Printf("app: send reset email to %s: %v", to, err)
		}
	}()
}

// CreateSession issues a fresh access/refresh pair for a signed-in user.
func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.Name,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Name,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Name,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Notes

func (s *Service) CreateNote(ctx context.Context, session Session, input NoteInput) (map[string]any, error) {
	if err := validateNoteInput(input); err != nil {
		return nil, err
	}

	note := store.Note{
		ID:          util.NewID("note"),
		UserID:      session.UserID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Day:         input.Day,
		Time:        input.Time,
		Status:      input.Status,
		Priority:    input.Priority,
		Kind:        store.NoteKindNote,
	}
	if err := s.store.InsertNote(ctx, note); err != nil {
		return nil, err
	}
	s.indexNote(note)
	return notePayload(note), nil
}

func (s *Service) GetNoteByID(ctx context.Context, session Session, noteID string) (map[string]any, error) {
	note, err := s.store.GetNote(ctx, session.UserID, noteID)
	if err != nil {
		return nil, err
	}
	return notePayload(note), nil
}

func (s *Service) UpdateNote(ctx context.Context, session Session, noteID string, input NoteInput) (map[string]any, error) {
	if err := validateNoteInput(input); err != nil {
		return nil, err
	}

	existing, err := s.store.GetNote(ctx, session.UserID, noteID)
	if err != nil {
		return nil, err
	}
	if existing.Kind != store.NoteKindNote {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Generated summaries cannot be edited", nil)
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Description = input.Description
	existing.Day = input.Day
	existing.Time = input.Time
	existing.Status = input.Status
	existing.Priority = input.Priority

	if err := s.store.UpdateNote(ctx, existing); err != nil {
		return nil, err
	}
	s.indexNote(existing)
	return notePayload(existing), nil
}

func (s *Service) DeleteNoteByID(ctx context.Context, session Session, noteID string) error {
	if err := s.store.DeleteNote(ctx, session.UserID, noteID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteNote(noteID)
	}
	return nil
}

func (s *Service) ListNotes(ctx context.Context, session Session, day, kind string) (map[string]any, error) {
	if _, err := time.Parse(summary.DayFormat, day); err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "day must be in YYYY-MM-DD format", nil)
	}
	notes, err := s.store.ListNotesByDay(ctx, session.UserID, day, kind)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(notes))
	for _, note := range notes {
		items = append(items, notePayload(note))
	}
	return map[string]any{"notes": items, "day": day}, nil
}

func validateNoteInput(input NoteInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if _, err := time.Parse(summary.DayFormat, input.Day); err != nil {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "day must be in YYYY-MM-DD format", nil)
	}
	if input.Time != "" {
		if _, err := time.Parse("15:04", input.Time); err != nil {
			return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "time must be in HH:MM format", nil)
		}
	}
	return nil
}

func (s *Service) indexNote(note store.Note) {
	if s.search == nil {
		return
	}
	s.search.IndexNote(search.NoteRecord{
		ID:          note.ID,
		UserID:      note.UserID,
		Title:       note.Title,
		Description: note.Description,
		Day:         note.Day,
		Kind:        note.Kind,
	})
}

// Routines

func (s *Service) CreateRoutine(ctx context.Context, session Session, input RoutineInput) (map[string]any, error) {
	if err := validateRoutineInput(input); err != nil {
		return nil, err
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}
	routine := store.Routine{
		ID:          util.NewID("rtn"),
		UserID:      session.UserID,
		Description: strings.TrimSpace(input.Description),
		Time:        input.Time,
		Weekdays:    input.Weekdays,
		Active:      active,
	}
	if err := s.store.InsertRoutine(ctx, routine); err != nil {
		return nil, err
	}
	s.indexRoutine(routine)
	return routinePayload(routine), nil
}

func (s *Service) UpdateRoutineByID(ctx context.Context, session Session, routineID string, input RoutineInput) (map[string]any, error) {
	if err := validateRoutineInput(input); err != nil {
		return nil, err
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}
	routine := store.Routine{
		ID:          routineID,
		UserID:      session.UserID,
		Description: strings.TrimSpace(input.Description),
		Time:        input.Time,
		Weekdays:    input.Weekdays,
		Active:      active,
	}
	if err := s.store.UpdateRoutine(ctx, routine); err != nil {
		return nil, err
	}
	s.indexRoutine(routine)
	return routinePayload(routine), nil
}

func (s *Service) DeleteRoutineByID(ctx context.Context, session Session, routineID string) error {
	if err := s.store.DeleteRoutine(ctx, session.UserID, routineID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteRoutine(routineID)
	}
	return nil
}

func (s *Service) ListUserRoutines(ctx context.Context, session Session) (map[string]any, error) {
	routines, err := s.store.ListRoutines(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(routines))
	for _, routine := range routines {
		items = append(items, routinePayload(routine))
	}
	return map[string]any{"routines": items}, nil
}

func validateRoutineInput(input RoutineInput) error {
	if strings.TrimSpace(input.Description) == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "description is required", nil)
	}
	if input.Time != "" {
		if _, err := time.Parse("15:04", input.Time); err != nil {
			return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "time must be in HH:MM format", nil)
		}
	}
	for _, day := range input.Weekdays {
		if day < 0 || day > 6 {
			return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "weekdays must be between 0 (Sunday) and 6 (Saturday)", nil)
		}
	}
	return nil
}

func (s *Service) indexRoutine(routine store.Routine) {
	if s.search == nil {
		return
	}
	s.search.IndexRoutine(search.RoutineRecord{
		ID:          routine.ID,
		UserID:      routine.UserID,
		Description: routine.Description,
	})
}

// Notifications

func (s *Service) ListUserNotifications(ctx context.Context, session Session, limit int) (map[string]any, error) {
	notifications, err := s.store.ListNotifications(ctx, session.UserID, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.UnreadNotificationCount(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, notificationPayload(n))
	}
	return map[string]any{"notifications": items, "unreadCount": unread}, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, session Session, notificationID string) error {
	return s.store.MarkNotificationRead(ctx, session.UserID, notificationID)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, session Session) error {
	return s.store.MarkAllNotificationsRead(ctx, session.UserID)
}

func (s *Service) UnreadCount(ctx context.Context, session Session) (map[string]any, error) {
	unread, err := s.store.UnreadNotificationCount(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"unreadCount": unread}, nil
}

// Day summaries

func (s *Service) GenerateDaySummary(ctx context.Context, session Session, day string) (map[string]any, error) {
	if s.summaries == nil {
		return nil, domainError(http.StatusServiceUnavailable, "SUMMARY_UNAVAILABLE", "Summary generation not configured", nil)
	}
	result, err := s.summaries.Generate(ctx, session.UserID, session.UserName, day)
	if err != nil {
		switch err {
		case summary.ErrMissingUser, summary.ErrInvalidDate:
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		}
		return nil, err
	}
	return map[string]any{
		"note":         notePayload(result.Note),
		"notification": notificationPayload(result.Notification),
		"unreadCount":  result.UnreadCount,
		"delivered":    result.Delivered,
		"commitHash":   result.CommitHash,
	}, nil
}

func (s *Service) GetDaySummary(ctx context.Context, session Session, day string) (map[string]any, error) {
	if _, err := time.Parse(summary.DayFormat, day); err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "day must be in YYYY-MM-DD format", nil)
	}
	note, err := s.store.GetSummaryNote(ctx, session.UserID, day)
	if err != nil {
		return nil, err
	}
	return map[string]any{"summary": notePayload(note)}, nil
}

func (s *Service) ExportDaySummary(ctx context.Context, session Session, day, format string) (*export.Result, error) {
	if s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export not configured", nil)
	}
	if _, err := time.Parse(summary.DayFormat, day); err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "day must be in YYYY-MM-DD format", nil)
	}
	if format == "" {
		format = string(export.FormatPDF)
	}
	result, err := s.exporter.Export(ctx, export.Request{
		UserID:   session.UserID,
		UserName: session.UserName,
		Day:      day,
		Format:   export.Format(format),
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) SummaryHistory(ctx context.Context, session Session, limit int) (map[string]any, error) {
	if s.archive == nil {
		return nil, domainError(http.StatusServiceUnavailable, "ARCHIVE_UNAVAILABLE", "Summary archive not configured", nil)
	}
	entries, err := s.archive.History(session.UserID, limit)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		items = append(items, map[string]any{
			"day":       entry.Day,
			"hash":      entry.Hash,
			"message":   entry.Message,
			"author":    entry.Author,
			"createdAt": entry.CreatedAt.Format(time.RFC3339),
		})
	}
	return map[string]any{"history": items}, nil
}

// Search

func (s *Service) Search(ctx context.Context, session Session, text, filterType string, limit, offset int) (map[string]any, error) {
	if s.search == nil {
		return nil, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search not configured", nil)
	}
	var rtyp search.ResultType
	switch filterType {
	case "":
	case string(search.ResultNote):
		rtyp = search.ResultNote
	case string(search.ResultRoutine):
		rtyp = search.ResultRoutine
	default:
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "type must be note or routine", nil)
	}

	resp := s.search.Search(search.Query{
		Text:       text,
		UserID:     session.UserID,
		FilterType: rtyp,
		Limit:      limit,
		Offset:     offset,
	})
	return map[string]any{
		"results": resp.Results,
		"total":   resp.Total,
		"query":   resp.Query,
	}, nil
}

// Payload helpers

func notePayload(note store.Note) map[string]any {
	return map[string]any{
		"id":          note.ID,
		"title":       note.Title,
		"description": note.Description,
		"day":         note.Day,
		"time":        note.Time,
		"status":      note.Status,
		"priority":    note.Priority,
		"kind":        note.Kind,
	}
}

func routinePayload(routine store.Routine) map[string]any {
	weekdays := routine.Weekdays
	if weekdays == nil {
		weekdays = []int{}
	}
	return map[string]any{
		"id":          routine.ID,
		"description": routine.Description,
		"time":        routine.Time,
		"weekdays":    weekdays,
		"active":      routine.Active,
	}
}

func notificationPayload(n store.Notification) map[string]any {
	return map[string]any{
		"id":      n.ID,
		"title":   n.Title,
		"message": n.Message,
		"kind":    n.Kind,
		"read":    n.Read,
	}
}
