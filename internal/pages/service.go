package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/internal/state"
	"github.com/goliatone/go-kvcms/internal/steps"
	"github.com/goliatone/go-kvcms/internal/versions"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

const (
	// PageKeyPrefix prefixes generated page keys.
	PageKeyPrefix = "page-"
	// ReferenceTypeID tags the weak references a page keeps to its items.
	ReferenceTypeID = "key-value-document"
	// DefaultComponentName names freshly added page items.
	DefaultComponentName = "New Component"
)

const componentsExpand = "value.components[*]"

var stateExpand = []string{
	"value.states.draft.components[*]",
	"value.states.published.components[*]",
}

var (
	ErrStoreRequired = errors.New("pages: object store required")
	ErrItemsRequired = errors.New("pages: page item service required")
)

// Config names the page containers and grid width.
type Config struct {
	PageContainer     string
	StateContainer    string
	VersionContainer  string
	PageItemContainer string
	MaxVersions       int
	Columns           int
}

func DefaultConfig() Config {
	return Config{
		PageContainer:     "content-page",
		StateContainer:    "page-state",
		VersionContainer:  "page-version",
		PageItemContainer: "page-content-items",
		MaxVersions:       versions.DefaultMaxVersions,
		Columns:           DefaultColumns,
	}
}

// Service exposes page use-cases. Pages share the draft/publish and version
// machinery with content items; page items live in their own containers
// and are managed through a content.Service.
type Service interface {
	List(ctx context.Context, businessUnitKey string) ([]content.Listed, error)
	Get(ctx context.Context, key string) (*interfaces.StoredObject, error)
	GetWithStates(ctx context.Context, businessUnitKey, key string) (map[string]any, error)
	Preview(ctx context.Context, businessUnitKey, key string) (map[string]any, error)
	Published(ctx context.Context, businessUnitKey, key string) (map[string]any, error)
	Query(ctx context.Context, businessUnitKey, query string, slots []string) (map[string]any, error)

	Create(ctx context.Context, businessUnitKey string, value map[string]any) (*interfaces.StoredObject, error)
	Update(ctx context.Context, businessUnitKey, key string, value map[string]any) (*interfaces.StoredObject, error)
	Delete(ctx context.Context, businessUnitKey, key string) error

	AddRow(ctx context.Context, businessUnitKey, key string) (*interfaces.StoredObject, error)
	RemoveRow(ctx context.Context, businessUnitKey, key, rowID string) (*interfaces.StoredObject, error)
	UpdateCellSpan(ctx context.Context, businessUnitKey, key, rowID, cellID string, update SpanUpdate) (*interfaces.StoredObject, error)
	AddComponent(ctx context.Context, businessUnitKey, key, componentType, rowID, cellID string) (*interfaces.StoredObject, error)
	UpdateComponent(ctx context.Context, businessUnitKey, key, itemKey string, updates map[string]any) (*interfaces.StoredObject, error)
	RemoveComponent(ctx context.Context, businessUnitKey, key, itemKey string) (*interfaces.StoredObject, error)

	States(ctx context.Context, businessUnitKey, key string) (state.Record, error)
	Publish(ctx context.Context, businessUnitKey, key string, clearDraft bool) (state.Record, error)
	DiscardDraft(ctx context.Context, businessUnitKey, key string) (state.Record, error)
	Versions(ctx context.Context, businessUnitKey, key string) (versions.History, error)
}

type ServiceOption func(*service)

// WithIDGenerator sets the generator used for page keys.
func WithIDGenerator(gen content.IDGenerator) ServiceOption {
	return func(s *service) {
		if gen != nil {
			s.pageID = gen
		}
	}
}

// WithGridIDs sets the generator used for row and cell ids.
func WithGridIDs(gen IDGenerator) ServiceOption {
	return func(s *service) {
		if gen != nil {
			s.gridID = gen
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConcurrency bounds parallel page item reads.
func WithConcurrency(n int) ServiceOption {
	return func(s *service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

type service struct {
	cfg         Config
	store       interfaces.ObjectStore
	items       content.Service
	pages       content.Service
	states      state.Controller
	grid        *Grid
	pageID      content.IDGenerator
	gridID      IDGenerator
	logger      interfaces.Logger
	concurrency int
}

// NewService wires the page service. items manages page items and must be
// configured for the page item containers.
func NewService(cfg Config, store interfaces.ObjectStore, items content.Service, opts ...ServiceOption) (Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if items == nil {
		return nil, ErrItemsRequired
	}
	s := &service{
		cfg:         cfg,
		store:       store,
		items:       items,
		pageID:      uuid.New,
		logger:      logging.NoOp(),
		concurrency: 4,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.grid = NewGrid(cfg.Columns, s.gridID)

	states, err := state.NewController(state.Config{
		ContentContainer: cfg.PageContainer,
		StateContainer:   cfg.StateContainer,
	}, store, state.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.states = states

	pages, err := content.NewService(content.Config{
		ContentContainer: cfg.PageContainer,
		StateContainer:   cfg.StateContainer,
		VersionContainer: cfg.VersionContainer,
		KeyPrefix:        PageKeyPrefix,
		MaxVersions:      cfg.MaxVersions,
	}, store,
		content.WithStateController(states),
		content.WithIDGenerator(s.pageID),
		content.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	s.pages = pages
	return s, nil
}

func (s *service) List(ctx context.Context, businessUnitKey string) ([]content.Listed, error) {
	return s.pages.List(ctx, businessUnitKey, "")
}

// Get returns the stored page with components mapped to their item values.
func (s *service) Get(ctx context.Context, key string) (*interfaces.StoredObject, error) {
	obj, err := s.store.Get(ctx, s.cfg.PageContainer, key, componentsExpand)
	if err != nil {
		return nil, err
	}
	return mapComponents(obj), nil
}

// GetWithStates returns the draft, else published, page snapshot with its
// components mapped, falling back to the stored page.
func (s *service) GetWithStates(ctx context.Context, businessUnitKey, key string) (map[string]any, error) {
	obj, err := s.store.Get(ctx, s.cfg.PageContainer, key, componentsExpand)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.states.FirstWithState(ctx, state.MatchFilter(businessUnitKey, key), content.PreviewSlots, stateExpand...)
	if err != nil {
		return nil, err
	}
	if snapshot != nil {
		return mapComponentValues(snapshot), nil
	}
	return mapComponentValues(obj.Value), nil
}

// Preview resolves the draft, else published, snapshot. Pages without a
// lifecycle row resolve from the stored page.
func (s *service) Preview(ctx context.Context, businessUnitKey, key string) (map[string]any, error) {
	obj, err := s.store.Get(ctx, s.cfg.PageContainer, key, componentsExpand)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.states.FirstWithState(ctx, state.MatchFilter(businessUnitKey, key), content.PreviewSlots, stateExpand...)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = obj.Value
	}
	return s.resolveComponents(ctx, businessUnitKey, snapshot, content.PreviewSlots)
}

// Published resolves the published snapshot, or returns nil when the page
// has never been published.
func (s *service) Published(ctx context.Context, businessUnitKey, key string) (map[string]any, error) {
	snapshot, err := s.states.FirstWithState(ctx, state.MatchFilter(businessUnitKey, key), content.PublishedSlots, stateExpand...)
	if err != nil || snapshot == nil {
		return nil, err
	}
	return s.resolveComponents(ctx, businessUnitKey, snapshot, content.PublishedSlots)
}

func (s *service) Query(ctx context.Context, businessUnitKey, query string, slots []string) (map[string]any, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerrors.Wrap(content.ErrQueryRequired, goerrors.CategoryBadInput, "Query is required in the request body")
	}
	objects, err := s.store.Query(ctx, s.cfg.PageContainer, fmt.Sprintf("value(%s AND businessUnitKey = %q)", query, businessUnitKey))
	if err != nil {
		if errors.Is(err, objectstore.ErrFilterInvalid) {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "Invalid query")
		}
		return nil, err
	}
	if len(objects) == 0 {
		return nil, nil
	}
	snapshot, err := s.states.FirstWithState(ctx, state.MatchFilter(businessUnitKey, objects[0].Key), slots, stateExpand...)
	if err != nil || snapshot == nil {
		return nil, err
	}
	return s.resolveComponents(ctx, businessUnitKey, snapshot, slots)
}

// Create stores a page with one empty row and no components.
func (s *service) Create(ctx context.Context, businessUnitKey string, value map[string]any) (*interfaces.StoredObject, error) {
	if value == nil {
		return nil, goerrors.Wrap(content.ErrValueRequired, goerrors.CategoryBadInput, "Value is required in the request body")
	}
	page := objectstore.CloneMap(value)
	page["layout"] = Layout{Rows: []Row{s.grid.EmptyRow()}}.ToValue()
	page["components"] = []any{}
	obj, err := s.pages.Create(ctx, businessUnitKey, page)
	if err != nil {
		return nil, err
	}
	logging.WithEntityContext(s.logger, businessUnitKey, obj.Key, "create").WithContext(ctx).Info("pages.created")
	return obj, nil
}

// Update replaces the page value and returns it with components mapped.
func (s *service) Update(ctx context.Context, businessUnitKey, key string, value map[string]any) (*interfaces.StoredObject, error) {
	if value == nil {
		return nil, goerrors.Wrap(content.ErrValueRequired, goerrors.CategoryBadInput, "Value is required in the request body")
	}
	page := objectstore.CloneMap(value)
	page["components"] = stripReferences(page["components"])
	obj, err := s.pages.Update(ctx, businessUnitKey, key, page)
	if err != nil {
		return nil, err
	}
	if err := objectstore.Expand(ctx, obj, s.store.GetByID, componentsExpand); err != nil {
		return nil, err
	}
	return mapComponents(obj), nil
}

// Delete removes the page's items, then the page with its lifecycle row and
// history. Item deletion failures are logged and do not stop the page delete.
func (s *service) Delete(ctx context.Context, businessUnitKey, key string) error {
	obj, err := s.store.Get(ctx, s.cfg.PageContainer, key)
	if err != nil {
		return err
	}
	refs := references(obj.Value["components"])

	logger := logging.WithEntityContext(s.logger, businessUnitKey, key, "delete")
	_, err = steps.New("pages.delete", logger).
		ThenOptional("delete_components", func(ctx context.Context) error {
			var errs []error
			for _, ref := range refs {
				if err := s.deleteItemByID(ctx, businessUnitKey, ref.id); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}).
		Then("delete_page", func(ctx context.Context) error {
			_, err := s.pages.Delete(ctx, businessUnitKey, key)
			return err
		}).
		Run(ctx)
	return err
}

func (s *service) deleteItemByID(ctx context.Context, businessUnitKey, id string) error {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		if objectstore.IsNotFound(err) {
			return nil
		}
		return err
	}
	if item.Container != s.cfg.PageItemContainer {
		return nil
	}
	_, err = s.items.Delete(ctx, businessUnitKey, item.Key)
	return err
}

func (s *service) AddRow(ctx context.Context, businessUnitKey, key string) (*interfaces.StoredObject, error) {
	obj, layout, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	layout.Rows = append(layout.Rows, s.grid.EmptyRow())
	return s.save(ctx, businessUnitKey, key, obj.Value, layout)
}

// RemoveRow deletes the items bound in the row, then drops the row and the
// matching component references.
func (s *service) RemoveRow(ctx context.Context, businessUnitKey, key, rowID string) (*interfaces.StoredObject, error) {
	obj, layout, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	row, err := layout.RemoveRow(rowID)
	if err != nil {
		return nil, err
	}

	deletedIDs := map[string]bool{}
	var saved *interfaces.StoredObject
	_, err = steps.New("pages.remove_row", s.logger).
		Then("delete_components", func(ctx context.Context) error {
			for _, itemKey := range row.BoundKeys() {
				deleted, err := s.items.Delete(ctx, businessUnitKey, itemKey)
				if deleted != nil {
					deletedIDs[deleted.ID] = true
				}
				if err != nil {
					return err
				}
			}
			return nil
		}).
		Then("update_page", func(ctx context.Context) error {
			value := objectstore.CloneMap(obj.Value)
			value["components"] = filterReferences(value["components"], deletedIDs)
			page, err := s.save(ctx, businessUnitKey, key, value, layout)
			saved = page
			return err
		}).
		Run(ctx)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) UpdateCellSpan(ctx context.Context, businessUnitKey, key, rowID, cellID string, update SpanUpdate) (*interfaces.StoredObject, error) {
	obj, layout, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.grid.UpdateCellSpan(&layout, rowID, cellID, update); err != nil {
		return nil, err
	}
	return s.save(ctx, businessUnitKey, key, obj.Value, layout)
}

// AddComponent creates a page item of componentType, binds it to the cell,
// and records a reference to it on the page.
func (s *service) AddComponent(ctx context.Context, businessUnitKey, key, componentType, rowID, cellID string) (*interfaces.StoredObject, error) {
	if strings.TrimSpace(componentType) == "" {
		return nil, goerrors.Wrap(ErrComponentTypeRequired, goerrors.CategoryBadInput, "Component type is required")
	}
	obj, layout, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	rowIndex, err := layout.FindRow(rowID)
	if err != nil {
		return nil, err
	}
	row := &layout.Rows[rowIndex]
	cellIndex, err := row.FindCell(cellID)
	if err != nil {
		return nil, err
	}

	item, err := s.items.Create(ctx, businessUnitKey, map[string]any{
		"type":            componentType,
		"name":            DefaultComponentName,
		"businessUnitKey": businessUnitKey,
		"properties":      map[string]any{},
	})
	if err != nil {
		return nil, err
	}
	row.Cells[cellIndex].ContentItemKey = item.Key

	value := objectstore.CloneMap(obj.Value)
	components, _ := stripReferences(value["components"]).([]any)
	value["components"] = append(components, map[string]any{"id": item.ID, "typeId": ReferenceTypeID})
	return s.save(ctx, businessUnitKey, key, value, layout)
}

// UpdateComponent merges updates into a page item referenced by the page.
// The page itself is not rewritten.
func (s *service) UpdateComponent(ctx context.Context, businessUnitKey, key, itemKey string, updates map[string]any) (*interfaces.StoredObject, error) {
	if updates == nil {
		return nil, goerrors.Wrap(content.ErrValueRequired, goerrors.CategoryBadInput, "Updates are required in the request body")
	}
	obj, err := s.store.Get(ctx, s.cfg.PageContainer, key, componentsExpand)
	if err != nil {
		return nil, err
	}
	if !referencesKey(obj.Value["components"], itemKey) {
		return nil, gridError(ErrComponentNotFound, "Component not found", TextCodeComponentNotFound)
	}
	if _, err := s.items.Merge(ctx, businessUnitKey, itemKey, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, key)
}

// RemoveComponent unbinds the item's cell, deletes the item, and drops its
// reference from the page.
func (s *service) RemoveComponent(ctx context.Context, businessUnitKey, key, itemKey string) (*interfaces.StoredObject, error) {
	obj, err := s.store.Get(ctx, s.cfg.PageContainer, key, componentsExpand)
	if err != nil {
		return nil, err
	}
	if !referencesKey(obj.Value["components"], itemKey) {
		return nil, gridError(ErrComponentNotFound, "Component not found", TextCodeComponentNotFound)
	}
	layout := LayoutFromValue(obj.Value["layout"])
	if err := layout.Unbind(itemKey); err != nil {
		return nil, err
	}

	var saved *interfaces.StoredObject
	_, err = steps.New("pages.remove_component", s.logger).
		Then("delete_component", func(ctx context.Context) error {
			deleted, err := s.items.Delete(ctx, businessUnitKey, itemKey)
			if err != nil {
				return err
			}
			value := objectstore.CloneMap(obj.Value)
			value["components"] = filterReferences(value["components"], map[string]bool{deleted.ID: true})
			obj.Value = value
			return nil
		}).
		Then("update_page", func(ctx context.Context) error {
			page, err := s.save(ctx, businessUnitKey, key, obj.Value, layout)
			saved = page
			return err
		}).
		Run(ctx)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) States(ctx context.Context, businessUnitKey, key string) (state.Record, error) {
	return s.pages.States(ctx, businessUnitKey, key)
}

// Publish promotes the stored page value to the published slot.
func (s *service) Publish(ctx context.Context, businessUnitKey, key string, clearDraft bool) (state.Record, error) {
	obj, err := s.store.Get(ctx, s.cfg.PageContainer, key)
	if err != nil {
		return state.Record{}, err
	}
	return s.pages.Publish(ctx, businessUnitKey, key, obj.Value, clearDraft)
}

func (s *service) DiscardDraft(ctx context.Context, businessUnitKey, key string) (state.Record, error) {
	return s.pages.DiscardDraft(ctx, businessUnitKey, key)
}

func (s *service) Versions(ctx context.Context, businessUnitKey, key string) (versions.History, error) {
	return s.pages.Versions(ctx, businessUnitKey, key)
}

func (s *service) load(ctx context.Context, key string) (*interfaces.StoredObject, Layout, error) {
	obj, err := s.store.Get(ctx, s.cfg.PageContainer, key)
	if err != nil {
		return nil, Layout{}, err
	}
	return obj, LayoutFromValue(obj.Value["layout"]), nil
}

func (s *service) save(ctx context.Context, businessUnitKey, key string, value map[string]any, layout Layout) (*interfaces.StoredObject, error) {
	page := objectstore.CloneMap(value)
	page["layout"] = layout.ToValue()
	return s.Update(ctx, businessUnitKey, key, page)
}

// resolveComponents replaces the page's expanded references with each
// item's state value for slots. References without a hydrated target or
// without a matching state are dropped. Item order is preserved.
func (s *service) resolveComponents(ctx context.Context, businessUnitKey string, page map[string]any, slots []string) (map[string]any, error) {
	resolved := objectstore.CloneMap(page)
	components, _ := resolved["components"].([]any)
	values := make([]map[string]any, len(components))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i, component := range components {
		itemKey := referencedKey(component)
		if itemKey == "" {
			continue
		}
		group.Go(func() error {
			value, err := s.items.WithState(groupCtx, businessUnitKey, itemKey, slots)
			if err != nil {
				return err
			}
			values[i] = value
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := make([]any, 0, len(values))
	for _, value := range values {
		if value != nil {
			out = append(out, value)
		}
	}
	resolved["components"] = out
	return resolved, nil
}
