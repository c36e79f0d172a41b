package batch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSelection_Toggle(t *testing.T) {
	s := NewSelection()
	s = s.Toggle(5)
	if !s.Has(5) {
		t.Error("toggle on failed")
	}
	s = s.Toggle(5)
	if s.Has(5) {
		t.Error("toggle off failed")
	}
}

func TestSelection_ToggleReturnsCopy(t *testing.T) {
	orig := NewSelection().Toggle(1)
	next := orig.Toggle(2)
	if orig.Has(2) {
		t.Error("Toggle mutated the original selection")
	}
	if !next.Has(1) || !next.Has(2) {
		t.Error("copy lost members")
	}
}

func TestSelection_IDsSorted(t *testing.T) {
	s := NewSelection().Toggle(30).Toggle(10).Toggle(20)
	if diff := cmp.Diff([]int64{10, 20, 30}, s.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestToggleAll_Involution(t *testing.T) {
	visible := []int64{1, 2, 3}

	// Nothing selected: toggle selects exactly the visible set.
	s := ToggleAll(visible, NewSelection())
	if !AllSelected(visible, s) {
		t.Fatal("first toggle must select all visible")
	}

	// Toggling again with an unchanged visible list clears.
	s = ToggleAll(visible, s)
	if len(s) != 0 {
		t.Errorf("second toggle must clear, got %v", s.IDs())
	}
}

func TestToggleAll_PartialSelectsAll(t *testing.T) {
	visible := []int64{1, 2, 3}
	partial := NewSelection().Toggle(2)
	s := ToggleAll(visible, partial)
	if !AllSelected(visible, s) {
		t.Error("partial selection must expand to all, not clear")
	}
}

func TestToggleAll_DropsStaleIDs(t *testing.T) {
	// 99 is no longer visible; select-all is view-relative.
	s := ToggleAll([]int64{1, 2}, NewSelection().Toggle(99))
	if s.Has(99) {
		t.Error("select-all must not keep ids outside the visible view")
	}
}

func TestAllSelected_EmptyView(t *testing.T) {
	if AllSelected(nil, NewSelection()) {
		t.Error("an empty view is never all-selected")
	}
	if AllSelected([]int64{}, NewSelection().Toggle(1)) {
		t.Error("an empty view is never all-selected")
	}
}
