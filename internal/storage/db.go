package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"profile-app/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

var (
	// ErrDuplicateUsername is returned when creating a user whose username
	// is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrNotFound is returned when a user lookup matches no row.
	ErrNotFound = errors.New("user not found")
)

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS info (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL,
			birthdate DATE NOT NULL,
			address TEXT NOT NULL,
			image_filename TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at DATETIME NOT NULL,
			last_activity DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES info(id) ON DELETE CASCADE
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// NewUser holds the fields required to create an account.
type NewUser struct {
	Username      string
	PasswordHash  string
	Name          string
	Birthdate     time.Time
	Address       string
	ImageFilename string
}

// CreateUser inserts a new account row. The username is unique; a
// duplicate is reported as ErrDuplicateUsername whether it came from a
// prior registration or a concurrent insert.
func (db *DB) CreateUser(nu NewUser) (*models.User, error) {
	result, err := db.conn.Exec(
		"INSERT INTO info (username, password_hash, name, birthdate, address, image_filename) VALUES (?, ?, ?, ?, ?, ?)",
		nu.Username, nu.PasswordHash, nu.Name, nu.Birthdate, nu.Address, nu.ImageFilename,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: info.username") {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(id)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Birthdate, &u.Address, &u.ImageFilename, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT id, username, password_hash, name, birthdate, address, image_filename, created_at FROM info WHERE id = ?",
		id,
	))
}

// GetUserByUsername retrieves a user by exact username match.
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT id, username, password_hash, name, birthdate, address, image_filename, created_at FROM info WHERE username = ?",
		username,
	))
}

// UserCount returns the number of registered accounts.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM info").Scan(&count)
	return count, err
}

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(token string, userID int64, expiresAt time.Time) error {
	now := time.Now()
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, userID, expiresAt, now,
	)
	return err
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (db *DB) ValidateSessionWithInfo(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(`
		SELECT u.id, u.username, u.password_hash, u.name, u.birthdate, u.address, u.image_filename, u.created_at,
		       s.last_activity, s.expires_at
		FROM sessions s
		JOIN info u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP
	`, token)

	var u models.User
	var lastActivity, expiresAt time.Time
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Birthdate, &u.Address, &u.ImageFilename, &u.CreatedAt,
		&lastActivity, &expiresAt)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{
		User:         &u,
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	now := time.Now()
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		now, newExpiresAt, token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions.
func (db *DB) CleanExpiredSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP")
	return err
}
