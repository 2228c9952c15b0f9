package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrNotFound = errors.New("not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- users ----

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, is_email_verified, verification_token, verification_expires_at)
		VALUES ($1, $2, LOWER($3), $4, $5, NULLIF($6, ''), $7)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.IsEmailVerified, user.VerificationToken, user.VerificationExpiresAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	var token sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, is_email_verified, COALESCE(verification_token, ''), verification_expires_at, deactivated_at, created_at, updated_at
		FROM users WHERE email = LOWER($1)
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.IsEmailVerified, &token, &user.VerificationExpiresAt, &user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user by email: %w", err)
	}
	user.VerificationToken = token.String
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, is_email_verified, deactivated_at, created_at, updated_at
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.Name, &user.Email, &user.IsEmailVerified, &user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET verification_token=$2, verification_expires_at=$3, updated_at=NOW() WHERE id=$1
	`, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("update verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyUserEmail(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET is_email_verified=TRUE, verification_token=NULL, verification_expires_at=NULL, updated_at=NOW()
		WHERE verification_token=$1 AND verification_expires_at > NOW()
	`, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM password_resets WHERE token=$1 AND expires_at > NOW() AND used_at IS NULL
	`, token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup password reset: %w", err)
	}
	return userID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	return nil
}

// ---- refresh sessions (Postgres fallback when Redis is not configured) ----

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.name, u.email
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.Name, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup refresh session: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1 AND expires_at > NOW())
	`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// ---- notes ----

const noteColumns = `id, user_id, title, description, TO_CHAR(day, 'YYYY-MM-DD'), note_time, status, priority, kind, created_at, updated_at`

func scanNote(row interface{ Scan(...any) error }) (Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Description, &n.Day, &n.Time, &n.Status, &n.Priority, &n.Kind, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (s *PostgresStore) InsertNote(ctx context.Context, note Note) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, description, day, note_time, status, priority, kind)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, note.ID, note.UserID, note.Title, note.Description, note.Day, note.Time, note.Status, note.Priority, note.Kind)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetNote(ctx context.Context, userID, noteID string) (Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id=$1 AND user_id=$2`, noteID, userID)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

func (s *PostgresStore) UpdateNote(ctx context.Context, note Note) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes
		SET title=$3, description=$4, day=$5, note_time=$6, status=$7, priority=$8, updated_at=NOW()
		WHERE id=$1 AND user_id=$2 AND kind='note'
	`, note.ID, note.UserID, note.Title, note.Description, note.Day, note.Time, note.Status, note.Priority)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteNote(ctx context.Context, userID, noteID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id=$1 AND user_id=$2`, noteID, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListNotesByDay returns the user's notes for a calendar day. When kind is
// empty every kind is returned; otherwise only notes of that kind.
func (s *PostgresStore) ListNotesByDay(ctx context.Context, userID, day, kind string) ([]Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE user_id=$1 AND day=$2`
	args := []any{userID, day}
	if kind != "" {
		query += ` AND kind=$3`
		args = append(args, kind)
	}
	query += ` ORDER BY note_time, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (s *PostgresStore) GetSummaryNote(ctx context.Context, userID, day string) (Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE user_id=$1 AND day=$2 AND kind='summary'
	`, userID, day)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("get summary note: %w", err)
	}
	return note, nil
}

// DeleteSummaryNote removes a previously generated summary for the day, if
// any. Deleting nothing is not an error: regeneration always starts clean.
func (s *PostgresStore) DeleteSummaryNote(ctx context.Context, userID, day string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE user_id=$1 AND day=$2 AND kind='summary'`, userID, day)
	if err != nil {
		return fmt.Errorf("delete summary note: %w", err)
	}
	return nil
}

// ---- routines ----

func (s *PostgresStore) InsertRoutine(ctx context.Context, routine Routine) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO routines (id, user_id, description, routine_time, weekdays, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, routine.ID, routine.UserID, routine.Description, routine.Time, encodeWeekdays(routine.Weekdays), routine.Active)
	if err != nil {
		return fmt.Errorf("insert routine: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateRoutine(ctx context.Context, routine Routine) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE routines
		SET description=$3, routine_time=$4, weekdays=$5, active=$6, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
	`, routine.ID, routine.UserID, routine.Description, routine.Time, encodeWeekdays(routine.Weekdays), routine.Active)
	if err != nil {
		return fmt.Errorf("update routine: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteRoutine(ctx context.Context, userID, routineID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM routines WHERE id=$1 AND user_id=$2`, routineID, userID)
	if err != nil {
		return fmt.Errorf("delete routine: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListRoutines(ctx context.Context, userID string) ([]Routine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, description, routine_time, weekdays, active, created_at, updated_at
		FROM routines WHERE user_id=$1
		ORDER BY routine_time, created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	defer rows.Close()

	var routines []Routine
	for rows.Next() {
		var r Routine
		var weekdays string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Description, &r.Time, &weekdays, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan routine: %w", err)
		}
		r.Weekdays = decodeWeekdays(weekdays)
		routines = append(routines, r)
	}
	return routines, rows.Err()
}

func encodeWeekdays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(value string) []int {
	if value == "" {
		return nil
	}
	var days []int
	for _, part := range strings.Split(value, ",") {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || day < 0 || day > 6 {
			continue
		}
		days = append(days, day)
	}
	return days
}

// ---- notifications ----

func (s *PostgresStore) InsertNotification(ctx context.Context, n Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, kind, read)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, n.UserID, n.Title, n.Message, n.Kind, n.Read)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, kind, read, created_at
		FROM notifications WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read=TRUE WHERE id=$1 AND user_id=$2
	`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET read=TRUE WHERE user_id=$1 AND read=FALSE`, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (s *PostgresStore) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read=FALSE
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
