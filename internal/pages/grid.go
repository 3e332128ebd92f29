package pages

import (
	"encoding/json"
	"errors"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultColumns is the width of a fresh grid row.
const DefaultColumns = 12

var (
	ErrRowNotFound           = errors.New("pages: row not found")
	ErrCellNotFound          = errors.New("pages: cell not found")
	ErrComponentNotFound     = errors.New("pages: component not found")
	ErrComponentNotInRow     = errors.New("pages: component not found in row")
	ErrComponentNotInCell    = errors.New("pages: component not found in cell")
	ErrComponentTypeRequired = errors.New("pages: component type is required")
)

// Text codes attached to client-facing grid errors.
const (
	TextCodeRowNotFound        = "ROW_NOT_FOUND"
	TextCodeCellNotFound       = "CELL_NOT_FOUND"
	TextCodeComponentNotFound  = "COMPONENT_NOT_FOUND"
	TextCodeComponentNotInRow  = "COMPONENT_NOT_IN_ROW"
	TextCodeComponentNotInCell = "COMPONENT_NOT_IN_CELL"
)

func gridError(err error, message, code string) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, message).WithTextCode(code)
}

// Cell is one slot of a row. An empty ContentItemKey means nothing is bound.
type Cell struct {
	ID             string
	ContentItemKey string
	ColSpan        int
}

// Bound reports whether a page item occupies the cell.
func (c Cell) Bound() bool {
	return c.ContentItemKey != ""
}

type Row struct {
	ID    string
	Cells []Cell
}

type Layout struct {
	Rows []Row
}

// SpanUpdate resizes a cell. The flags opt into rebalancing the row: a
// grown cell absorbs empty neighbours, a shrunk cell leaves unit-span
// empties behind it. Without them the row width is not adjusted.
type SpanUpdate struct {
	ColSpan               int  `json:"colSpan"`
	ShouldRemoveEmptyCell bool `json:"shouldRemoveEmptyCell"`
	ShouldAddEmptyCell    bool `json:"shouldAddEmptyCell"`
}

// IDGenerator produces row and cell ids.
type IDGenerator func() string

// Grid builds and mutates page layouts.
type Grid struct {
	columns int
	id      IDGenerator
}

// NewGrid returns a grid of the given width. Non-positive widths fall back
// to DefaultColumns.
func NewGrid(columns int, id IDGenerator) *Grid {
	if columns <= 0 {
		columns = DefaultColumns
	}
	if id == nil {
		id = uuid.NewString
	}
	return &Grid{columns: columns, id: id}
}

// Columns returns the grid width.
func (g *Grid) Columns() int {
	return g.columns
}

// EmptyRow returns a row of unit-span empty cells spanning the full width.
func (g *Grid) EmptyRow() Row {
	cells := make([]Cell, g.columns)
	for i := range cells {
		cells[i] = g.emptyCell()
	}
	return Row{ID: g.id(), Cells: cells}
}

func (g *Grid) emptyCell() Cell {
	return Cell{ID: g.id(), ColSpan: 1}
}

// UpdateCellSpan applies update to the cell in place. The span is stored
// as given; keeping the row at full width is up to the caller's flags.
func (g *Grid) UpdateCellSpan(layout *Layout, rowID, cellID string, update SpanUpdate) error {
	rowIndex, err := layout.FindRow(rowID)
	if err != nil {
		return err
	}
	row := &layout.Rows[rowIndex]
	cellIndex, err := row.FindCell(cellID)
	if err != nil {
		return err
	}

	delta := update.ColSpan - row.Cells[cellIndex].ColSpan
	row.Cells[cellIndex].ColSpan = update.ColSpan

	switch {
	case delta > 0 && update.ShouldRemoveEmptyCell:
		row.Cells = absorbEmptyCells(row.Cells, cellIndex, delta)
	case delta < 0 && update.ShouldAddEmptyCell:
		fill := make([]Cell, -delta)
		for i := range fill {
			fill[i] = g.emptyCell()
		}
		cells := make([]Cell, 0, len(row.Cells)+len(fill))
		cells = append(cells, row.Cells[:cellIndex+1]...)
		cells = append(cells, fill...)
		cells = append(cells, row.Cells[cellIndex+1:]...)
		row.Cells = cells
	}
	return nil
}

// absorbEmptyCells removes empty cells other than the resized one, in row
// order, while their accumulated span still fits in delta. A cell that
// would overshoot is skipped and scanning continues until delta is reached.
func absorbEmptyCells(cells []Cell, resized, delta int) []Cell {
	var remove []int
	accumulated := 0
	for idx, cell := range cells {
		if idx == resized || cell.Bound() {
			continue
		}
		span := cell.ColSpan
		if span <= 0 {
			span = 1
		}
		if accumulated+span <= delta {
			remove = append(remove, idx)
			accumulated += span
		}
		if accumulated >= delta {
			break
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(remove)))
	for _, idx := range remove {
		cells = append(cells[:idx], cells[idx+1:]...)
	}
	return cells
}

// FindRow returns the index of the row with id.
func (l *Layout) FindRow(rowID string) (int, error) {
	for i, row := range l.Rows {
		if row.ID == rowID {
			return i, nil
		}
	}
	return -1, gridError(ErrRowNotFound, "Row not found", TextCodeRowNotFound)
}

// RemoveRow drops the row with id and returns it.
func (l *Layout) RemoveRow(rowID string) (Row, error) {
	idx, err := l.FindRow(rowID)
	if err != nil {
		return Row{}, err
	}
	row := l.Rows[idx]
	l.Rows = append(l.Rows[:idx], l.Rows[idx+1:]...)
	return row, nil
}

// FindCell returns the index of the cell with id.
func (r *Row) FindCell(cellID string) (int, error) {
	for i, cell := range r.Cells {
		if cell.ID == cellID {
			return i, nil
		}
	}
	return -1, gridError(ErrCellNotFound, "Cell not found", TextCodeCellNotFound)
}

// BoundKeys lists the page item keys bound in the row, in cell order.
func (r Row) BoundKeys() []string {
	var keys []string
	for _, cell := range r.Cells {
		if cell.Bound() {
			keys = append(keys, cell.ContentItemKey)
		}
	}
	return keys
}

// Unbind clears the cell holding itemKey.
func (l *Layout) Unbind(itemKey string) error {
	for ri := range l.Rows {
		row := &l.Rows[ri]
		for ci := range row.Cells {
			if row.Cells[ci].ContentItemKey == itemKey {
				row.Cells[ci].ContentItemKey = ""
				return nil
			}
		}
	}
	return gridError(ErrComponentNotInRow, "Component not found in row", TextCodeComponentNotInRow)
}

// Span returns the sum of the row's column spans.
func (r Row) Span() int {
	total := 0
	for _, cell := range r.Cells {
		total += cell.ColSpan
	}
	return total
}

// ToValue renders the layout as stored JSON.
func (l Layout) ToValue() map[string]any {
	rows := make([]any, len(l.Rows))
	for i, row := range l.Rows {
		cells := make([]any, len(row.Cells))
		for j, cell := range row.Cells {
			var key any
			if cell.Bound() {
				key = cell.ContentItemKey
			}
			cells[j] = map[string]any{
				"id":             cell.ID,
				"contentItemKey": key,
				"colSpan":        cell.ColSpan,
			}
		}
		rows[i] = map[string]any{"id": row.ID, "cells": cells}
	}
	return map[string]any{"rows": rows}
}

// LayoutFromValue reads a stored layout. Malformed entries are skipped.
func LayoutFromValue(value any) Layout {
	var layout Layout
	root, _ := value.(map[string]any)
	rows, _ := root["rows"].([]any)
	for _, rawRow := range rows {
		rowMap, ok := rawRow.(map[string]any)
		if !ok {
			continue
		}
		row := Row{}
		row.ID, _ = rowMap["id"].(string)
		cells, _ := rowMap["cells"].([]any)
		for _, rawCell := range cells {
			cellMap, ok := rawCell.(map[string]any)
			if !ok {
				continue
			}
			cell := Cell{ColSpan: toInt(cellMap["colSpan"])}
			cell.ID, _ = cellMap["id"].(string)
			cell.ContentItemKey, _ = cellMap["contentItemKey"].(string)
			row.Cells = append(row.Cells, cell)
		}
		layout.Rows = append(layout.Rows, row)
	}
	return layout
}

func toInt(value any) int {
	switch typed := value.(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case int32:
		return int(typed)
	case json.Number:
		n, _ := typed.Int64()
		return int(n)
	default:
		return 0
	}
}
