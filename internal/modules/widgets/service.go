// README: Widgets service validates dashboard CRUD and delegates persistence.
package widgets

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrBadRequest  = errors.New("bad request")
	ErrNotFound    = errors.New("not found")
	ErrUnknownType = errors.New("unknown widget type")
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

type CreateTabCommand struct {
	Title    string
	Position int
}

type CreateWidgetCommand struct {
	TabID     int64
	Type      string
	Placement Placement
	Settings  json.RawMessage
}

type UpdateSettingsCommand struct {
	WidgetID int64
	Settings json.RawMessage
}

type UpdatePlacementCommand struct {
	WidgetID  int64
	Placement Placement
}

func (s *Service) CreateTab(ctx context.Context, cmd CreateTabCommand) (Tab, error) {
	cmd.Title = strings.TrimSpace(cmd.Title)
	if cmd.Title == "" {
		return Tab{}, ErrBadRequest
	}
	return s.store.CreateTab(ctx, cmd.Title, cmd.Position)
}

func (s *Service) ListTabs(ctx context.Context) ([]Tab, error) {
	return s.store.ListTabs(ctx)
}

// DeleteTab removes a tab and all widgets on it.
func (s *Service) DeleteTab(ctx context.Context, id int64) error {
	return s.store.DeleteTab(ctx, id)
}

func (s *Service) CreateWidget(ctx context.Context, cmd CreateWidgetCommand) (Widget, error) {
	if cmd.TabID == 0 {
		return Widget{}, ErrBadRequest
	}
	if !knownTypes[cmd.Type] {
		return Widget{}, ErrUnknownType
	}
	if len(cmd.Settings) == 0 {
		cmd.Settings = json.RawMessage("{}")
	} else if !json.Valid(cmd.Settings) {
		return Widget{}, ErrBadRequest
	}
	w := Widget{
		TabID:     cmd.TabID,
		Type:      cmd.Type,
		Placement: cmd.Placement.clamp(),
		Settings:  cmd.Settings,
	}
	return s.store.CreateWidget(ctx, w)
}

func (s *Service) ListWidgets(ctx context.Context, tabID int64) ([]Widget, error) {
	return s.store.ListWidgets(ctx, tabID)
}

// UpdateSettings replaces a widget's settings document whole; the frontend
// debounces its writes, so partial merges are not needed server-side.
func (s *Service) UpdateSettings(ctx context.Context, cmd UpdateSettingsCommand) (Widget, error) {
	if len(cmd.Settings) == 0 || !json.Valid(cmd.Settings) {
		return Widget{}, ErrBadRequest
	}
	return s.store.UpdateSettings(ctx, cmd.WidgetID, cmd.Settings)
}

func (s *Service) UpdatePlacement(ctx context.Context, cmd UpdatePlacementCommand) (Widget, error) {
	return s.store.UpdatePlacement(ctx, cmd.WidgetID, cmd.Placement.clamp())
}

func (s *Service) DeleteWidget(ctx context.Context, id int64) error {
	return s.store.DeleteWidget(ctx, id)
}
