package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrPickCancelled is returned when the user leaves the picker without choosing.
var ErrPickCancelled = errors.New("selection cancelled")

// PickerItem is one entry shown in the picker.
type PickerItem struct {
	Label    string // primary text, e.g. network name
	SubLabel string // dimmed detail, e.g. chain id and RPC
	Value    string // returned on selection
	Current  bool   // marks the active entry; the cursor starts here
}

type pickerModel struct {
	title    string
	items    []PickerItem
	cursor   int
	selected *PickerItem
	quitting bool
}

func newPickerModel(title string, items []PickerItem) pickerModel {
	m := pickerModel{title: title, items: items}
	for i, it := range items {
		if it.Current {
			m.cursor = i
			break
		}
	}
	return m
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		item := m.items[m.cursor]
		m.selected = &item
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quitting || m.selected != nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n" + StyleTitle.Render("  "+m.title) + "\n")
	for i, item := range m.items {
		prefix := "    "
		if i == m.cursor {
			prefix = "  ▸ "
		}
		line := prefix + item.Label
		if item.Current {
			line += " (current)"
		}
		if item.SubLabel != "" {
			line += "  " + StyleMeta.Render(item.SubLabel)
		}
		if i == m.cursor {
			line = StyleSelected.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n" + StyleMeta.Render("  [ ↑↓ / jk ] navigate   [ Enter ] select   [ q ] cancel") + "\n")
	return sb.String()
}

// PickItem runs an interactive picker and returns the chosen item's Value.
// Leaving without a choice returns ErrPickCancelled.
func PickItem(title string, items []PickerItem, opts ...tea.ProgramOption) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("no items to pick from")
	}

	final, err := tea.NewProgram(newPickerModel(title, items), opts...).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	fm := final.(pickerModel)
	if fm.selected == nil {
		return "", ErrPickCancelled
	}
	return fm.selected.Value, nil
}
