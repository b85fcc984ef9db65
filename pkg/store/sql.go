package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/pkg/authz"
)

// Dialect selects the SQL flavor used by SQLStore.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ConflictRetries is the bound on transparent optimistic-conflict retries
// before a mutation surfaces ConflictError.
const ConflictRetries = 3

// SQLStore is an authz.Store backed by a relational database. Entities are
// stored as JSON documents alongside a version column; mutations use
// compare-and-swap on the version and retry a bounded number of times, which
// gives per-entity linearizability without long-held row locks.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewPostgresStore creates a SQLStore speaking the PostgreSQL dialect.
func NewPostgresStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, dialect: DialectPostgres}
}

// NewSQLiteStore creates a SQLStore speaking the SQLite dialect.
func NewSQLiteStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, dialect: DialectSQLite}
}

// EnsureSchema creates the entity tables if they do not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	docType := "JSONB"
	if s.dialect == DialectSQLite {
		docType = "TEXT"
	}
	for _, table := range []string{"warden_groups", "warden_roles"} {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				doc %s NOT NULL,
				version BIGINT NOT NULL
			)
		`, table, docType)
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// bind rewrites $N placeholders for dialects that use positional markers.
func (s *SQLStore) bind(query string) string {
	if s.dialect == DialectPostgres {
		return query
	}
	out := query
	for i := 9; i >= 1; i-- {
		out = strings.ReplaceAll(out, "$"+strconv.Itoa(i), "?")
	}
	return out
}

// CreateGroup stores a new group, assigning a fresh id.
func (s *SQLStore) CreateGroup(ctx context.Context, group *authz.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	group.Version = 1
	return s.insert(ctx, "warden_groups", "group", group.ID, group)
}

// GetGroup returns the group with the given id.
func (s *SQLStore) GetGroup(ctx context.Context, id string) (*authz.Group, error) {
	group := &authz.Group{}
	version, err := s.get(ctx, "warden_groups", "group", id, group)
	if err != nil {
		return nil, err
	}
	group.Version = version
	return group, nil
}

// UpdateGroup applies mutate under optimistic versioning with bounded retry.
func (s *SQLStore) UpdateGroup(ctx context.Context, id string, mutate func(*authz.Group) error) (*authz.Group, error) {
	for attempt := 0; attempt < ConflictRetries; attempt++ {
		group := &authz.Group{}
		version, err := s.get(ctx, "warden_groups", "group", id, group)
		if err != nil {
			return nil, err
		}
		if err := mutate(group); err != nil {
			return nil, err
		}
		group.ID = id // ids are immutable
		swapped, err := s.swap(ctx, "warden_groups", id, version, group)
		if err != nil {
			return nil, err
		}
		if swapped {
			group.Version = version + 1
			return group, nil
		}
	}
	return nil, &authz.ConflictError{Kind: "group", ID: id, Attempts: ConflictRetries}
}

// DeleteGroup removes the group with the given id.
func (s *SQLStore) DeleteGroup(ctx context.Context, id string) error {
	return s.delete(ctx, "warden_groups", "group", id)
}

// ListGroups returns all stored groups.
func (s *SQLStore) ListGroups(ctx context.Context) ([]*authz.Group, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc, version FROM warden_groups`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*authz.Group
	for rows.Next() {
		var doc []byte
		var version int64
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		group := &authz.Group{}
		if err := json.Unmarshal(doc, group); err != nil {
			return nil, fmt.Errorf("failed to unmarshal group: %w", err)
		}
		group.Version = version
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// CreateRole stores a new role, assigning a fresh id.
func (s *SQLStore) CreateRole(ctx context.Context, role *authz.Role) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	role.Version = 1
	return s.insert(ctx, "warden_roles", "role", role.ID, role)
}

// GetRole returns the role with the given id.
func (s *SQLStore) GetRole(ctx context.Context, id string) (*authz.Role, error) {
	role := &authz.Role{}
	version, err := s.get(ctx, "warden_roles", "role", id, role)
	if err != nil {
		return nil, err
	}
	role.Version = version
	return role, nil
}

// UpdateRole applies mutate under optimistic versioning with bounded retry.
func (s *SQLStore) UpdateRole(ctx context.Context, id string, mutate func(*authz.Role) error) (*authz.Role, error) {
	for attempt := 0; attempt < ConflictRetries; attempt++ {
		role := &authz.Role{}
		version, err := s.get(ctx, "warden_roles", "role", id, role)
		if err != nil {
			return nil, err
		}
		if err := mutate(role); err != nil {
			return nil, err
		}
		role.ID = id
		swapped, err := s.swap(ctx, "warden_roles", id, version, role)
		if err != nil {
			return nil, err
		}
		if swapped {
			role.Version = version + 1
			return role, nil
		}
	}
	return nil, &authz.ConflictError{Kind: "role", ID: id, Attempts: ConflictRetries}
}

// DeleteRole removes the role with the given id.
func (s *SQLStore) DeleteRole(ctx context.Context, id string) error {
	return s.delete(ctx, "warden_roles", "role", id)
}

// ListRoles returns all stored roles.
func (s *SQLStore) ListRoles(ctx context.Context) ([]*authz.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc, version FROM warden_roles`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*authz.Role
	for rows.Next() {
		var doc []byte
		var version int64
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		role := &authz.Role{}
		if err := json.Unmarshal(doc, role); err != nil {
			return nil, fmt.Errorf("failed to unmarshal role: %w", err)
		}
		role.Version = version
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ReplaceAll swaps the entire stored state inside a single transaction.
func (s *SQLStore) ReplaceAll(ctx context.Context, groups []*authz.Group, roles []*authz.Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM warden_groups`); err != nil {
		return fmt.Errorf("failed to clear groups: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM warden_roles`); err != nil {
		return fmt.Errorf("failed to clear roles: %w", err)
	}

	insertQuery := s.bind(`INSERT INTO %s (id, doc, version) VALUES ($1, $2, $3)`)
	for _, group := range groups {
		doc, err := json.Marshal(group)
		if err != nil {
			return fmt.Errorf("failed to marshal group %s: %w", group.ID, err)
		}
		version := group.Version
		if version == 0 {
			version = 1
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(insertQuery, "warden_groups"), group.ID, doc, version); err != nil {
			return fmt.Errorf("failed to insert group %s: %w", group.ID, err)
		}
	}
	for _, role := range roles {
		doc, err := json.Marshal(role)
		if err != nil {
			return fmt.Errorf("failed to marshal role %s: %w", role.ID, err)
		}
		version := role.Version
		if version == 0 {
			version = 1
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(insertQuery, "warden_roles"), role.ID, doc, version); err != nil {
			return fmt.Errorf("failed to insert role %s: %w", role.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}
	return nil
}

// HealthCheck pings the database.
func (s *SQLStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) insert(ctx context.Context, table, kind, id string, entity interface{}) error {
	doc, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	query := s.bind(fmt.Sprintf(`INSERT INTO %s (id, doc, version) VALUES ($1, $2, $3)`, table))
	if _, err := s.db.ExecContext(ctx, query, id, doc, int64(1)); err != nil {
		return fmt.Errorf("failed to create %s: %w", kind, err)
	}
	return nil
}

func (s *SQLStore) get(ctx context.Context, table, kind, id string, dest interface{}) (int64, error) {
	query := s.bind(fmt.Sprintf(`SELECT doc, version FROM %s WHERE id = $1`, table))
	var doc []byte
	var version int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(&doc, &version)
	if err == sql.ErrNoRows {
		return 0, &authz.NotFoundError{Kind: kind, ID: id}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	if err := json.Unmarshal(doc, dest); err != nil {
		return 0, fmt.Errorf("failed to unmarshal %s: %w", kind, err)
	}
	return version, nil
}

// swap commits a mutated document iff the version has not moved underneath
// us. Returns false when the compare-and-swap lost the race.
func (s *SQLStore) swap(ctx context.Context, table, id string, version int64, entity interface{}) (bool, error) {
	doc, err := json.Marshal(entity)
	if err != nil {
		return false, fmt.Errorf("failed to marshal document: %w", err)
	}
	query := s.bind(fmt.Sprintf(`UPDATE %s SET doc = $1, version = $2 WHERE id = $3 AND version = $4`, table))
	result, err := s.db.ExecContext(ctx, query, doc, version+1, id, version)
	if err != nil {
		return false, fmt.Errorf("failed to update document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return affected == 1, nil
}

func (s *SQLStore) delete(ctx context.Context, table, kind, id string) error {
	query := s.bind(fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table))
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return &authz.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}
