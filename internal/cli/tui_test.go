package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/factoryflow/pkg/recipe"
)

func testDatabase(t *testing.T) *recipe.Database {
	t.Helper()
	db, err := recipe.Decode(strings.NewReader(recipesText), recipe.FormatText)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRecipeListModel(t *testing.T) {
	db := testDatabase(t)
	gear, _ := db.Items().Lookup("gear")

	tests := []struct {
		name     string
		keys     []string
		cursor   int
		selected int
	}{
		{"enter keeps current", []string{"enter"}, 0, 0},
		{"down then enter", []string{"down", "enter"}, 1, 1},
		{"down stops at end", []string{"down", "down", "down"}, 1, -1},
		{"up stops at start", []string{"up", "k"}, 0, -1},
		{"digit jumps", []string{"1"}, 1, -1},
		{"digit out of range ignored", []string{"7"}, 0, -1},
		{"quit leaves unselected", []string{"j", "q"}, 1, -1},
		{"esc leaves unselected", []string{"esc"}, 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m tea.Model = NewRecipeListModel(db, gear)
			for _, k := range tt.keys {
				m, _ = m.Update(key(k))
			}
			got := m.(RecipeListModel)
			if got.Cursor != tt.cursor {
				t.Errorf("Cursor = %d, want %d", got.Cursor, tt.cursor)
			}
			if got.Selected != tt.selected {
				t.Errorf("Selected = %d, want %d", got.Selected, tt.selected)
			}
		})
	}
}

func TestRecipeListModelStartsOnSelection(t *testing.T) {
	db := testDatabase(t)
	if err := db.SelectByName("gear", 1); err != nil {
		t.Fatal(err)
	}
	gear, _ := db.Items().Lookup("gear")

	m := NewRecipeListModel(db, gear)

	if m.Cursor != 1 || m.Current != 1 {
		t.Errorf("Cursor = %d, Current = %d, want 1, 1", m.Cursor, m.Current)
	}
	view := m.View()
	if !strings.Contains(view, "Select recipe for gear") || !strings.Contains(view, "1) molten iron -> gear (foundry)") {
		t.Errorf("view:\n%s", view)
	}
}

func TestRecipeListModelQuitCommands(t *testing.T) {
	db := testDatabase(t)
	gear, _ := db.Items().Lookup("gear")
	m := NewRecipeListModel(db, gear)

	if _, cmd := m.Update(key("down")); cmd != nil {
		t.Error("navigation should not return a command")
	}
	if _, cmd := m.Update(key("enter")); cmd == nil {
		t.Error("enter should quit")
	}
}

func TestItemListModel(t *testing.T) {
	db := testDatabase(t)
	m := NewItemListModel(db, db.Optional())

	if len(m.Names) != 1 || m.Names[0] != "gear" {
		t.Fatalf("Names = %v", m.Names)
	}
	if m.Counts[0] != 2 || m.Current[0] != "2 iron plate -> gear (assembler)" {
		t.Errorf("Counts = %v, Current = %v", m.Counts, m.Current)
	}

	next, cmd := m.Update(key("enter"))
	got := next.(ItemListModel)
	if cmd == nil || got.Selected == nil {
		t.Fatal("enter should select and quit")
	}
	if db.Items().Name(*got.Selected) != "gear" {
		t.Errorf("Selected = %v", *got.Selected)
	}
}

func TestItemListModelScrolls(t *testing.T) {
	db := testDatabase(t)
	m := NewItemListModel(db, db.Items().Sorted())
	m.Height = 2

	var tm tea.Model = m
	for range 3 {
		tm, _ = tm.Update(key("down"))
	}
	got := tm.(ItemListModel)
	if got.Cursor != 3 || got.Offset != 2 {
		t.Errorf("Cursor = %d, Offset = %d, want 3, 2", got.Cursor, got.Offset)
	}

	tm, _ = got.Update(key("q"))
	if tm.(ItemListModel).Selected != nil {
		t.Error("quit should not select")
	}
	if !strings.Contains(got.View(), "[4/4]") {
		t.Errorf("view:\n%s", got.View())
	}
}

func TestItemListModelWindowSize(t *testing.T) {
	db := testDatabase(t)
	m := NewItemListModel(db, db.Optional())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	if got := next.(ItemListModel).Height; got != 5 {
		t.Errorf("Height = %d, want 5", got)
	}
}
