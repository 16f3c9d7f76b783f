package cli

import (
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/iconstack/pkg/config"
	"github.com/matzehuels/iconstack/pkg/stack"
)

func keys(m SizeFormModel, ks ...string) SizeFormModel {
	for _, k := range ks {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(SizeFormModel)
	}
	return m
}

func newForm() SizeFormModel {
	cfg := config.Default()
	return NewSizeFormModel(cfg, cfg.DefaultSelections())
}

func TestSizeFormToggleAndConfirm(t *testing.T) {
	m := keys(newForm(), " ", "enter")

	if !m.Done || m.Cancelled {
		t.Fatalf("Done = %v, Cancelled = %v", m.Done, m.Cancelled)
	}
	want := []stack.Selection{{Enabled: false, Size: 32}, {Enabled: true, Size: 64}, {Enabled: true, Size: 128}, {Enabled: true, Size: 256}}
	if !slices.Equal(m.Selections, want) {
		t.Errorf("Selections = %v, want %v", m.Selections, want)
	}
}

func TestSizeFormNavigation(t *testing.T) {
	m := newForm()

	m = keys(m, "right")
	if m.Cursor != 1 {
		t.Errorf("after right: Cursor = %d, want 1", m.Cursor)
	}
	m = keys(m, "down")
	if m.Cursor != 3 {
		t.Errorf("after down: Cursor = %d, want 3", m.Cursor)
	}
	m = keys(m, "down", "right")
	if m.Cursor != 3 {
		t.Errorf("moving past the last slot: Cursor = %d, want 3", m.Cursor)
	}
	m = keys(m, "up")
	if m.Cursor != 1 {
		t.Errorf("after up: Cursor = %d, want 1", m.Cursor)
	}
}

func TestSizeFormEditSize(t *testing.T) {
	m := keys(newForm(), "4", "8")
	if got := m.Selections[0].Size; got != 48 {
		t.Errorf("typed size = %d, want 48", got)
	}

	m = keys(m, "backspace")
	if got := m.Selections[0].Size; got != 4 {
		t.Errorf("after backspace = %d, want 4", got)
	}

	m = keys(m, "right", "+", "+", "+", "+")
	if got := m.Selections[1].Size; got != 512 {
		t.Errorf("doubling clamps at size_max: got %d", got)
	}
	m = keys(m, "-", "-", "-", "-", "-", "-")
	if got := m.Selections[1].Size; got != 16 {
		t.Errorf("halving clamps at size_min: got %d", got)
	}
}

func TestSizeFormRejectsOutOfBounds(t *testing.T) {
	m := keys(newForm(), "8", "enter")

	if m.Done {
		t.Fatal("form accepted size 8")
	}
	if m.Err == "" {
		t.Error("expected a validation message")
	}

	m = keys(m, "backspace", "6", "4", "enter")
	if !m.Done {
		t.Errorf("form did not accept size 64: %s", m.Err)
	}
}

func TestSizeFormCancel(t *testing.T) {
	for _, k := range []string{"esc", "q"} {
		m := keys(newForm(), " ", k)
		if !m.Cancelled || m.Done {
			t.Errorf("%s: Cancelled = %v, Done = %v", k, m.Cancelled, m.Done)
		}
	}
}

func TestSizeFormView(t *testing.T) {
	view := newForm().View()
	for _, want := range []string{"Icon sizes", "Layer 1 size", "Layer 4 size", "16..512"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if got := keys(newForm(), "enter").View(); got != "" {
		t.Errorf("View() after confirm = %q, want empty", got)
	}
}
