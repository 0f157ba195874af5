package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/dbx"
	"github.com/dmitrijs2005/peerlink/internal/server/models"
	"github.com/dmitrijs2005/peerlink/internal/shared"
)

// PostgresRepository persists user records in Postgres. Session rotation is
// a single UPDATE touching session_id, network_key and last_login together,
// so concurrent logins degrade to last-writer-wins on the whole pair.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {

	query :=
		`INSERT INTO users (id, username, public_key, session_id, network_key, last_login, created_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.PublicKey, user.SessionID, user.NetworkKey,
		user.LastLogin, user.CreatedAt, user.IsActive)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.User, error) {

	user, err := r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, public_key, session_id, network_key, last_login, created_at, is_active, message_count
		 FROM users
		 WHERE id = $1
		 `, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT peer_id FROM user_connections WHERE user_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var peerID string
		if err := rows.Scan(&peerID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		user.Connections = append(user.Connections, peerID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// List returns all users ordered by creation time. Connections are not
// populated here; they only appear on Get.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, public_key, session_id, network_key, last_login, created_at, is_active, message_count
		 FROM users
		 ORDER BY created_at
		 `)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(&user.ID, &user.Username, &user.PublicKey, &user.SessionID,
			&user.NetworkKey, &user.LastLogin, &user.CreatedAt, &user.IsActive, &user.MessageCount)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) UpdateSession(ctx context.Context, id, sessionID, networkKey string, lastLogin time.Time) (*models.User, error) {

	query :=
		`UPDATE users
		 SET session_id = $2, network_key = $3, last_login = $4
		 WHERE id = $1
		 RETURNING id, username, public_key, session_id, network_key, last_login, created_at, is_active, message_count
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, id, sessionID, networkKey, lastLogin))
}

func (r *PostgresRepository) AddConnection(ctx context.Context, a, b string) error {

	query :=
		`INSERT INTO user_connections (user_id, peer_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	// both directions or neither
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, query, a, b); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, b, a); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) IncrementMessageCount(ctx context.Context, id string) error {

	query :=
		`UPDATE users SET message_count = message_count + 1
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return shared.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PublicKey, &user.SessionID,
		&user.NetworkKey, &user.LastLogin, &user.CreatedAt, &user.IsActive, &user.MessageCount)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
