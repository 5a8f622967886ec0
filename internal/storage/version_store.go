package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"invitopia/internal/domain"
)

// DefaultVersionLimit is how many versions are kept per template.
const DefaultVersionLimit = 40

// VersionStore persists the per-template edit log and prunes it to a limit.
type VersionStore struct {
	db    *DB
	limit int
}

func NewVersionStore(db *DB, limit int) *VersionStore {
	if limit <= 0 {
		limit = DefaultVersionLimit
	}
	return &VersionStore{db: db, limit: limit}
}

// AppendVersion stores v as the newest version of its template.
func (s *VersionStore) AppendVersion(ctx context.Context, v *domain.Version) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	v.CreatedAt = time.Now().UTC()

	snapshot, err := json.Marshal(v.Elements)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	var parentID *string
	if v.ParentID != "" {
		parentID = &v.ParentID
	}

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRowContext(ctx, s.db.rebind(
		`SELECT COALESCE(MAX(seq), 0) FROM versions WHERE template_id = ?`), v.TemplateID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("next version seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, s.db.rebind(
		`INSERT INTO versions (id, template_id, parent_id, seq, label, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		v.ID, v.TemplateID, parentID, seq+1, v.Label, string(snapshot), v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.pruneIfNeeded(ctx, v.TemplateID)
	return nil
}

// ListVersions returns the log for a template, oldest first.
func (s *VersionStore) ListVersions(ctx context.Context, templateID string) ([]domain.Version, error) {
	rows, err := s.db.Conn().QueryContext(ctx, s.db.rebind(
		`SELECT id, template_id, parent_id, label, snapshot_json, created_at
		 FROM versions WHERE template_id = ? ORDER BY seq ASC`), templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("load versions: %w", err)
	}
	defer rows.Close()

	var out []domain.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (s *VersionStore) GetVersion(ctx context.Context, id string) (*domain.Version, error) {
	row := s.db.Conn().QueryRowContext(ctx, s.db.rebind(
		`SELECT id, template_id, parent_id, label, snapshot_json, created_at FROM versions WHERE id = ?`), id,
	)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}
	return v, err
}

// ClearVersions removes the whole log of a template.
func (s *VersionStore) ClearVersions(ctx context.Context, templateID string) error {
	_, err := s.db.Conn().ExecContext(ctx, s.db.rebind(`DELETE FROM versions WHERE template_id = ?`), templateID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(r scanner) (*domain.Version, error) {
	var v domain.Version
	var parentID sql.NullString
	var snapshot string
	if err := r.Scan(&v.ID, &v.TemplateID, &parentID, &v.Label, &snapshot, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan version: %w", err)
	}
	v.ParentID = parentID.String
	if err := json.Unmarshal([]byte(snapshot), &v.Elements); err != nil {
		return nil, fmt.Errorf("decode version %s: %w", v.ID, err)
	}
	return &v, nil
}

// pruneIfNeeded removes the oldest versions when the log exceeds the limit.
// Children of a removed version are re-parented to its parent.
func (s *VersionStore) pruneIfNeeded(ctx context.Context, templateID string) {
	var count int
	if err := s.db.Conn().QueryRowContext(ctx, s.db.rebind(
		`SELECT COUNT(*) FROM versions WHERE template_id = ?`), templateID,
	).Scan(&count); err != nil || count <= s.limit {
		return
	}

	// Collect ids first; the rows cursor must be closed before any writes
	rows, err := s.db.Conn().QueryContext(ctx, s.db.rebind(
		`SELECT id, parent_id FROM versions WHERE template_id = ? ORDER BY seq ASC LIMIT ?`),
		templateID, count-s.limit,
	)
	if err != nil {
		slog.Warn("prune versions", "template", templateID, "err", err)
		return
	}
	type victim struct {
		id     string
		parent sql.NullString
	}
	var victims []victim
	for rows.Next() {
		var v victim
		if err := rows.Scan(&v.id, &v.parent); err != nil {
			continue
		}
		victims = append(victims, v)
	}
	rows.Close()

	for _, v := range victims {
		var parent any
		if v.parent.Valid {
			parent = v.parent.String
		}
		if _, err := s.db.Conn().ExecContext(ctx, s.db.rebind(
			`UPDATE versions SET parent_id = ? WHERE parent_id = ?`), parent, v.id); err != nil {
			slog.Warn("prune versions: reparent", "version", v.id, "err", err)
			continue
		}
		if _, err := s.db.Conn().ExecContext(ctx, s.db.rebind(`DELETE FROM versions WHERE id = ?`), v.id); err != nil {
			slog.Warn("prune versions: delete", "version", v.id, "err", err)
		}
	}
}
