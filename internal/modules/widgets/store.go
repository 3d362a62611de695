// README: Widgets store: tabs and widgets CRUD over Postgres.
package widgets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (st *Store) CreateTab(ctx context.Context, title string, position int) (Tab, error) {
	var t Tab
	err := st.db.QueryRow(ctx,
		`INSERT INTO tabs (title, position, created_at)
		 VALUES ($1, $2, now())
		 RETURNING id, title, position, created_at`,
		title, position,
	).Scan(&t.ID, &t.Title, &t.Position, &t.CreatedAt)
	if err != nil {
		return Tab{}, fmt.Errorf("create tab: %w", err)
	}
	return t, nil
}

func (st *Store) ListTabs(ctx context.Context) ([]Tab, error) {
	rows, err := st.db.Query(ctx,
		`SELECT id, title, position, created_at FROM tabs ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	defer rows.Close()

	var tabs []Tab
	for rows.Next() {
		var t Tab
		if err := rows.Scan(&t.ID, &t.Title, &t.Position, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("list tabs: %w", err)
		}
		tabs = append(tabs, t)
	}
	return tabs, rows.Err()
}

func (st *Store) DeleteTab(ctx context.Context, id int64) error {
	tag, err := st.db.Exec(ctx, `DELETE FROM tabs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tab: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const widgetColumns = `id, tab_id, type, grid_row, grid_col, row_span, col_span, settings, created_at, updated_at`

func scanWidget(row pgx.Row) (Widget, error) {
	var w Widget
	var settings []byte
	err := row.Scan(&w.ID, &w.TabID, &w.Type,
		&w.Placement.Row, &w.Placement.Col, &w.Placement.RowSpan, &w.Placement.ColSpan,
		&settings, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return Widget{}, err
	}
	w.Settings = json.RawMessage(settings)
	return w, nil
}

func (st *Store) CreateWidget(ctx context.Context, w Widget) (Widget, error) {
	row := st.db.QueryRow(ctx,
		`INSERT INTO widgets (tab_id, type, grid_row, grid_col, row_span, col_span, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		 RETURNING `+widgetColumns,
		w.TabID, w.Type, w.Placement.Row, w.Placement.Col, w.Placement.RowSpan, w.Placement.ColSpan, []byte(w.Settings))
	created, err := scanWidget(row)
	if err != nil {
		return Widget{}, fmt.Errorf("create widget: %w", err)
	}
	return created, nil
}

func (st *Store) ListWidgets(ctx context.Context, tabID int64) ([]Widget, error) {
	rows, err := st.db.Query(ctx,
		`SELECT `+widgetColumns+` FROM widgets WHERE tab_id = $1 ORDER BY id`, tabID)
	if err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	defer rows.Close()

	var out []Widget
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, fmt.Errorf("list widgets: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (st *Store) UpdateSettings(ctx context.Context, id int64, settings json.RawMessage) (Widget, error) {
	row := st.db.QueryRow(ctx,
		`UPDATE widgets SET settings = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+widgetColumns,
		id, []byte(settings))
	w, err := scanWidget(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Widget{}, ErrNotFound
	}
	if err != nil {
		return Widget{}, fmt.Errorf("update widget settings: %w", err)
	}
	return w, nil
}

func (st *Store) UpdatePlacement(ctx context.Context, id int64, p Placement) (Widget, error) {
	row := st.db.QueryRow(ctx,
		`UPDATE widgets SET grid_row = $2, grid_col = $3, row_span = $4, col_span = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+widgetColumns,
		id, p.Row, p.Col, p.RowSpan, p.ColSpan)
	w, err := scanWidget(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Widget{}, ErrNotFound
	}
	if err != nil {
		return Widget{}, fmt.Errorf("update widget placement: %w", err)
	}
	return w, nil
}

func (st *Store) DeleteWidget(ctx context.Context, id int64) error {
	tag, err := st.db.Exec(ctx, `DELETE FROM widgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete widget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
