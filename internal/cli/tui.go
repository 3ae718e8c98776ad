package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ItemListModel - Interactive optional item selection
// =============================================================================

// ItemListModel is the bubbletea model for choosing an item with alternative
// recipes.
type ItemListModel struct {
	Names    []string
	Current  []string // selected recipe per item
	Counts   []int
	IDs      []item.ID
	Cursor   int
	Selected *item.ID
	Height   int
	Offset   int
}

// NewItemListModel creates a new item list model over ids.
func NewItemListModel(db *recipe.Database, ids []item.ID) ItemListModel {
	reg := db.Items()
	m := ItemListModel{IDs: ids, Height: 15}
	for _, id := range ids {
		m.Names = append(m.Names, reg.Name(id))
		m.Counts = append(m.Counts, len(db.Candidates(id)))
		current := ""
		if r, ok := db.Recipe(id); ok {
			current = recipe.FormatRecipe(reg, r)
		}
		m.Current = append(m.Current, current)
	}
	return m
}

func (m ItemListModel) Init() tea.Cmd {
	return nil
}

func (m ItemListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.IDs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.IDs) == 0 {
				return m, tea.Quit
			}
			id := m.IDs[m.Cursor]
			m.Selected = &id
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m ItemListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Item"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.IDs))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, m.Names[i], strconv.Itoa(m.Counts[i]), m.Current[i]})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Item", "Recipes", "Current").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				if col == 3 {
					return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
				}
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.IDs))))

	return b.String()
}

// =============================================================================
// RecipeListModel - Interactive recipe selection
// =============================================================================

// RecipeListModel is the bubbletea model for choosing one of an item's
// candidate recipes. Selected is -1 until a recipe is chosen.
type RecipeListModel struct {
	Item     string
	Recipes  []string
	Current  int
	Cursor   int
	Selected int
}

// NewRecipeListModel creates a recipe list for id with the cursor on the
// current selection.
func NewRecipeListModel(db *recipe.Database, id item.ID) RecipeListModel {
	reg := db.Items()
	m := RecipeListModel{Item: reg.Name(id), Current: db.Selected(id), Selected: -1}
	for _, r := range db.Candidates(id) {
		m.Recipes = append(m.Recipes, recipe.FormatRecipe(reg, r))
	}
	m.Cursor = max(m.Current, 0)
	return m
}

func (m RecipeListModel) Init() tea.Cmd {
	return nil
}

func (m RecipeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Recipes)-1 {
				m.Cursor++
			}
		case "enter":
			if len(m.Recipes) > 0 {
				m.Selected = m.Cursor
			}
			return m, tea.Quit
		default:
			// Digits jump straight to a candidate.
			if n, err := strconv.Atoi(msg.String()); err == nil && n >= 0 && n < len(m.Recipes) {
				m.Cursor = n
			}
		}
	}
	return m, nil
}

func (m RecipeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select recipe for " + m.Item))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("arrows: navigate  0-9: jump  enter: select  q: quit"))
	b.WriteString("\n\n")

	for i, r := range m.Recipes {
		cursor := "  "
		if i == m.Cursor {
			cursor = "> "
		}

		status := " "
		if i == m.Current {
			status = StyleSuccess.Render(iconSelected)
		}

		line := fmt.Sprintf("%s%s %d) %s", cursor, status, i, r)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(strings.Repeat("-", 40)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s current recipe\n", StyleSuccess.Render(iconSelected)))

	return b.String()
}
