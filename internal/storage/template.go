package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"invitopia/internal/domain"
)

// TemplateStore implements domain.TemplateStore on a relational DB.
type TemplateStore struct {
	db *DB
}

func NewTemplateStore(db *DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// elementPayload is the JSON form of an element's variant attributes.
type elementPayload struct {
	Text  *domain.TextContent  `json:"text,omitempty"`
	Image *domain.ImageContent `json:"image,omitempty"`
	Shape *domain.ShapeContent `json:"shape,omitempty"`
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *TemplateStore) CreateTemplate(ctx context.Context, t *domain.Template) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.db.rebind(
		`INSERT INTO templates (id, name, color, width, height, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.Name, t.Metadata.Color, t.Metadata.Width, t.Metadata.Height, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	if err := s.insertElements(ctx, tx, t.ID, t.Elements); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *TemplateStore) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	t := &domain.Template{}
	err := s.db.Conn().QueryRowContext(ctx, s.db.rebind(
		`SELECT id, name, color, width, height, created_at, updated_at FROM templates WHERE id = ?`), id,
	).Scan(&t.ID, &t.Name, &t.Metadata.Color, &t.Metadata.Width, &t.Metadata.Height, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	elements, err := s.listElements(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Elements = elements
	return t, nil
}

func (s *TemplateStore) listElements(ctx context.Context, templateID string) ([]domain.Element, error) {
	rows, err := s.db.Conn().QueryContext(ctx, s.db.rebind(
		`SELECT id, kind, x, y, width, height, z_index, locked, visible, payload_json
		 FROM elements WHERE template_id = ? ORDER BY sort_order ASC`), templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	defer rows.Close()

	var elements []domain.Element
	for rows.Next() {
		var e domain.Element
		var payloadJSON string
		if err := rows.Scan(&e.ID, &e.Kind, &e.Position.X, &e.Position.Y, &e.Size.Width, &e.Size.Height,
			&e.ZIndex, &e.Locked, &e.Visible, &payloadJSON); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		var p elementPayload
		if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
			return nil, fmt.Errorf("decode element %s payload: %w", e.ID, err)
		}
		e.Text, e.Image, e.Shape = p.Text, p.Image, p.Shape
		elements = append(elements, e)
	}
	return elements, rows.Err()
}

func (s *TemplateStore) ListTemplates(ctx context.Context) ([]domain.TemplateSummary, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT t.id, t.name, t.updated_at,
			(SELECT COUNT(*) FROM elements e WHERE e.template_id = t.id)
		 FROM templates t ORDER BY t.updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []domain.TemplateSummary
	for rows.Next() {
		var ts domain.TemplateSummary
		if err := rows.Scan(&ts.ID, &ts.Name, &ts.UpdatedAt, &ts.ElementCount); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// SaveTemplate atomically replaces the template row and all of its elements.
func (s *TemplateStore) SaveTemplate(ctx context.Context, t *domain.Template) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, s.db.rebind(`SELECT COUNT(*) FROM templates WHERE id = ?`), t.ID).Scan(&count); err != nil {
		return fmt.Errorf("check template: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("template %s: %w", t.ID, domain.ErrNotFound)
	}

	t.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, s.db.rebind(
		`UPDATE templates SET name = ?, color = ?, width = ?, height = ?, updated_at = ? WHERE id = ?`),
		t.Name, t.Metadata.Color, t.Metadata.Width, t.Metadata.Height, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM elements WHERE template_id = ?`), t.ID); err != nil {
		return fmt.Errorf("delete elements: %w", err)
	}
	if err := s.insertElements(ctx, tx, t.ID, t.Elements); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *TemplateStore) insertElements(ctx context.Context, tx execer, templateID string, elements []domain.Element) error {
	for i, e := range elements {
		payload, err := json.Marshal(elementPayload{Text: e.Text, Image: e.Image, Shape: e.Shape})
		if err != nil {
			return fmt.Errorf("encode element %s: %w", e.ID, err)
		}
		_, err = tx.ExecContext(ctx, s.db.rebind(
			`INSERT INTO elements (id, template_id, sort_order, kind, x, y, width, height, z_index, locked, visible, payload_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			e.ID, templateID, i, e.Kind, e.Position.X, e.Position.Y, e.Size.Width, e.Size.Height,
			e.ZIndex, e.Locked, e.Visible, string(payload),
		)
		if err != nil {
			return fmt.Errorf("insert element %s: %w", e.ID, err)
		}
	}
	return nil
}

// DeleteTemplate removes the template, its elements and its version log.
func (s *TemplateStore) DeleteTemplate(ctx context.Context, id string) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM elements WHERE template_id = ?`), id); err != nil {
		return fmt.Errorf("delete elements: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM versions WHERE template_id = ?`), id); err != nil {
		return fmt.Errorf("delete versions: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM templates WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("template %s: %w", id, domain.ErrNotFound)
	}
	return tx.Commit()
}

// Close closes the underlying DB.
func (s *TemplateStore) Close() error {
	return s.db.Close()
}
