package utils

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rcb-go/models"
)

// UserDirectory maps Discord members to their RetroAchievements usernames.
// The poller walks All() each cycle.
type UserDirectory interface {
	Register(ctx context.Context, discordID int64, raUsername string) error
	Lookup(ctx context.Context, discordID int64) (string, bool, error)
	All(ctx context.Context) ([]string, error)
}

// PGUserDirectory stores registrations in Postgres.
type PGUserDirectory struct {
	pool *pgxpool.Pool
}

func NewPGUserDirectory(pool *pgxpool.Pool) *PGUserDirectory {
	return &PGUserDirectory{pool: pool}
}

func (d *PGUserDirectory) Register(ctx context.Context, discordID int64, raUsername string) error {
	query := `
		INSERT INTO registered_users (discord_id, ra_username)
		VALUES ($1, $2)
		ON CONFLICT (discord_id) DO UPDATE SET ra_username = EXCLUDED.ra_username`

	_, err := d.pool.Exec(ctx, query, discordID, models.NormalizeUsername(raUsername))
	if err != nil {
		return &PersistenceError{Op: "users.Register", Err: err}
	}
	return nil
}

func (d *PGUserDirectory) Lookup(ctx context.Context, discordID int64) (string, bool, error) {
	var username string
	err := d.pool.QueryRow(ctx,
		`SELECT ra_username FROM registered_users WHERE discord_id = $1`, discordID).Scan(&username)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &PersistenceError{Op: "users.Lookup", Err: err}
	}
	return username, true, nil
}

func (d *PGUserDirectory) All(ctx context.Context) ([]string, error) {
	rows, err := d.pool.Query(ctx, `SELECT ra_username FROM registered_users ORDER BY ra_username`)
	if err != nil {
		return nil, &PersistenceError{Op: "users.All", Err: err}
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, &PersistenceError{Op: "users.All", Err: err}
		}
		users = append(users, username)
	}
	return users, rows.Err()
}

// MemoryUserDirectory is the offline-mode directory. Registrations are lost
// on restart, which matches the rest of offline mode.
type MemoryUserDirectory struct {
	mutex sync.Mutex
	users map[int64]string
}

func NewMemoryUserDirectory() *MemoryUserDirectory {
	return &MemoryUserDirectory{users: make(map[int64]string)}
}

func (d *MemoryUserDirectory) Register(_ context.Context, discordID int64, raUsername string) error {
	d.mutex.Lock()
	d.users[discordID] = models.NormalizeUsername(raUsername)
	d.mutex.Unlock()
	return nil
}

func (d *MemoryUserDirectory) Lookup(_ context.Context, discordID int64) (string, bool, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	username, ok := d.users[discordID]
	return username, ok, nil
}

func (d *MemoryUserDirectory) All(_ context.Context) ([]string, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	users := make([]string, 0, len(d.users))
	for _, username := range d.users {
		users = append(users, username)
	}
	sort.Strings(users)
	return users, nil
}
