package pages_test

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-kvcms/internal/pages"
)

func counterIDs(prefix string) pages.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func TestEmptyRowPartitionsGrid(t *testing.T) {
	grid := pages.NewGrid(0, counterIDs("id"))
	row := grid.EmptyRow()

	if len(row.Cells) != 12 {
		t.Fatalf("expected 12 cells, got %d", len(row.Cells))
	}
	seen := map[string]bool{row.ID: true}
	for i, cell := range row.Cells {
		if cell.ColSpan != 1 || cell.Bound() {
			t.Fatalf("cell %d: expected empty unit cell, got %+v", i, cell)
		}
		if seen[cell.ID] {
			t.Fatalf("duplicate id %s", cell.ID)
		}
		seen[cell.ID] = true
	}
	if row.Span() != 12 {
		t.Fatalf("expected span 12, got %d", row.Span())
	}
}

func spanRow() pages.Layout {
	return pages.Layout{Rows: []pages.Row{{
		ID: "row-1",
		Cells: []pages.Cell{
			{ID: "bound", ContentItemKey: "page-item-1", ColSpan: 1},
			{ID: "empty-a", ColSpan: 1},
			{ID: "empty-b", ColSpan: 2},
			{ID: "empty-c", ColSpan: 1},
		},
	}}}
}

func cellIDs(row pages.Row) []string {
	ids := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		ids[i] = cell.ID
	}
	return ids
}

func TestUpdateCellSpanGrowAbsorbsEmptyCells(t *testing.T) {
	grid := pages.NewGrid(12, counterIDs("new"))
	layout := spanRow()

	err := grid.UpdateCellSpan(&layout, "row-1", "bound", pages.SpanUpdate{ColSpan: 4, ShouldRemoveEmptyCell: true})
	if err != nil {
		t.Fatalf("update span: %v", err)
	}

	row := layout.Rows[0]
	got := cellIDs(row)
	want := []string{"bound", "empty-c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected cells %v, got %v", want, got)
	}
	if row.Cells[0].ColSpan != 4 {
		t.Fatalf("expected span 4, got %d", row.Cells[0].ColSpan)
	}
	if row.Span() != 5 {
		t.Fatalf("row width changed: %d", row.Span())
	}
}

func TestUpdateCellSpanGrowSkipsOvershootingCell(t *testing.T) {
	grid := pages.NewGrid(12, counterIDs("new"))
	layout := pages.Layout{Rows: []pages.Row{{
		ID: "row-1",
		Cells: []pages.Cell{
			{ID: "wide", ColSpan: 2},
			{ID: "bound", ContentItemKey: "page-item-1", ColSpan: 1},
			{ID: "narrow", ColSpan: 1},
		},
	}}}

	if err := grid.UpdateCellSpan(&layout, "row-1", "bound", pages.SpanUpdate{ColSpan: 2, ShouldRemoveEmptyCell: true}); err != nil {
		t.Fatalf("update span: %v", err)
	}
	got := cellIDs(layout.Rows[0])
	want := []string{"wide", "bound"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected cells %v, got %v", want, got)
	}
}

func TestUpdateCellSpanGrowWithoutEnoughEmptySpan(t *testing.T) {
	grid := pages.NewGrid(12, counterIDs("new"))
	layout := spanRow()

	if err := grid.UpdateCellSpan(&layout, "row-1", "bound", pages.SpanUpdate{ColSpan: 10, ShouldRemoveEmptyCell: true}); err != nil {
		t.Fatalf("update span: %v", err)
	}
	if got := cellIDs(layout.Rows[0]); fmt.Sprint(got) != fmt.Sprint([]string{"bound"}) {
		t.Fatalf("expected every empty cell removed, got %v", got)
	}
}

func TestUpdateCellSpanShrinkAddsEmptyCells(t *testing.T) {
	grid := pages.NewGrid(12, counterIDs("new"))
	layout := pages.Layout{Rows: []pages.Row{{
		ID: "row-1",
		Cells: []pages.Cell{
			{ID: "first", ColSpan: 1},
			{ID: "wide", ContentItemKey: "page-item-1", ColSpan: 4},
			{ID: "last", ColSpan: 1},
		},
	}}}

	if err := grid.UpdateCellSpan(&layout, "row-1", "wide", pages.SpanUpdate{ColSpan: 2, ShouldAddEmptyCell: true}); err != nil {
		t.Fatalf("update span: %v", err)
	}
	got := cellIDs(layout.Rows[0])
	want := []string{"first", "wide", "new-1", "new-2", "last"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected cells %v, got %v", want, got)
	}
	if layout.Rows[0].Span() != 6 {
		t.Fatalf("row width changed: %d", layout.Rows[0].Span())
	}
}

func TestUpdateCellSpanWithoutFlagsOnlyResizes(t *testing.T) {
	grid := pages.NewGrid(12, counterIDs("new"))
	cases := []struct {
		name string
		span int
	}{
		{name: "grow", span: 3},
		{name: "shrink", span: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := spanRow()
			layout.Rows[0].Cells[2].ContentItemKey = "page-item-2"
			if err := grid.UpdateCellSpan(&layout, "row-1", "empty-b", pages.SpanUpdate{ColSpan: tc.span}); err != nil {
				t.Fatalf("update span: %v", err)
			}
			if len(layout.Rows[0].Cells) != 4 {
				t.Fatalf("cell count changed: %v", cellIDs(layout.Rows[0]))
			}
			if layout.Rows[0].Cells[2].ColSpan != tc.span {
				t.Fatalf("expected span %d, got %d", tc.span, layout.Rows[0].Cells[2].ColSpan)
			}
		})
	}
}

func TestUpdateCellSpanErrors(t *testing.T) {
	grid := pages.NewGrid(12, counterIDs("new"))
	cases := []struct {
		name   string
		rowID  string
		cellID string
		span   int
		want   error
		code   string
	}{
		{name: "row", rowID: "missing", cellID: "bound", span: 2, want: pages.ErrRowNotFound, code: pages.TextCodeRowNotFound},
		{name: "cell", rowID: "row-1", cellID: "missing", span: 2, want: pages.ErrCellNotFound, code: pages.TextCodeCellNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := spanRow()
			err := grid.UpdateCellSpan(&layout, tc.rowID, tc.cellID, pages.SpanUpdate{ColSpan: tc.span})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var richErr *goerrors.Error
			if !errors.As(err, &richErr) || richErr.TextCode != tc.code || richErr.Category != goerrors.CategoryBadInput {
				t.Fatalf("expected bad input with code %s, got %#v", tc.code, err)
			}
		})
	}
}

func TestUpdateCellSpanStoresNonPositiveSpans(t *testing.T) {
	grid := pages.NewGrid(12, counterIDs("new"))
	cases := []struct {
		name      string
		span      int
		fill      bool
		wantCells int
	}{
		{name: "zero in place", span: 0, wantCells: 4},
		{name: "zero with fill", span: 0, fill: true, wantCells: 5},
		{name: "negative with fill", span: -1, fill: true, wantCells: 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := spanRow()
			err := grid.UpdateCellSpan(&layout, "row-1", "bound", pages.SpanUpdate{ColSpan: tc.span, ShouldAddEmptyCell: tc.fill})
			if err != nil {
				t.Fatalf("update span: %v", err)
			}
			row := layout.Rows[0]
			if row.Cells[0].ColSpan != tc.span {
				t.Fatalf("expected span %d stored, got %d", tc.span, row.Cells[0].ColSpan)
			}
			if len(row.Cells) != tc.wantCells {
				t.Fatalf("expected %d cells, got %v", tc.wantCells, cellIDs(row))
			}
		})
	}
}

func TestLayoutValueRoundTripKeepsNullBindings(t *testing.T) {
	layout := spanRow()
	value := layout.ToValue()

	rows := value["rows"].([]any)
	cells := rows[0].(map[string]any)["cells"].([]any)
	if cells[1].(map[string]any)["contentItemKey"] != nil {
		t.Fatalf("empty cell should store a null binding, got %#v", cells[1])
	}

	// stored documents may carry float spans after a JSON decode
	cells[2].(map[string]any)["colSpan"] = float64(2)
	back := pages.LayoutFromValue(value)
	if back.Rows[0].Cells[0].ContentItemKey != "page-item-1" || back.Rows[0].Cells[2].ColSpan != 2 {
		t.Fatalf("unexpected layout %+v", back)
	}
}
