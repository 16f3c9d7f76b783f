package cli

import (
	"context"
	stderrors "errors"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/iconstack/pkg/config"
	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/pipeline"
	"github.com/matzehuels/iconstack/pkg/stack"
)

// =============================================================================
// SizeFormModel - Interactive slot selection
// =============================================================================

// SizeFormModel is the bubbletea model for choosing icon sizes. One
// control per slot, laid out in rows of cfg.RowCapacity.
type SizeFormModel struct {
	Config     config.Config
	Selections []stack.Selection
	Cursor     int
	Done       bool
	Cancelled  bool
	Err        string

	// typed holds the digits entered for the focused slot since the
	// cursor last moved.
	typed string
}

// NewSizeFormModel creates a form seeded with defaults.
func NewSizeFormModel(cfg config.Config, defaults []stack.Selection) SizeFormModel {
	sel := make([]stack.Selection, len(defaults))
	copy(sel, defaults)
	return SizeFormModel{Config: cfg, Selections: sel}
}

func (m SizeFormModel) Init() tea.Cmd {
	return nil
}

func (m SizeFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Selections) == 0 {
		if ok && isCancelKey(key.String()) {
			m.Cancelled = true
			return m, tea.Quit
		}
		return m, nil
	}

	cur := &m.Selections[m.Cursor]
	switch k := key.String(); {
	case isCancelKey(k):
		m.Cancelled = true
		return m, tea.Quit
	case k == "enter":
		if err := m.Config.ValidateSelections(m.Selections); err != nil {
			m.Err = errors.UserMessage(err)
			return m, nil
		}
		m.Done = true
		return m, tea.Quit
	case k == "left" || k == "h" || k == "shift+tab":
		m.move(-1)
	case k == "right" || k == "l" || k == "tab":
		m.move(1)
	case k == "up" || k == "k":
		m.move(-m.Config.RowCapacity)
	case k == "down" || k == "j":
		m.move(m.Config.RowCapacity)
	case k == " " || k == "x":
		cur.Enabled = !cur.Enabled
	case k == "+":
		cur.Size = min(cur.Size*2, m.Config.SizeMax)
		m.typed = ""
	case k == "-":
		cur.Size = max(cur.Size/2, m.Config.SizeMin)
		m.typed = ""
	case k == "backspace":
		if m.typed != "" {
			m.typed = m.typed[:len(m.typed)-1]
			cur.Size, _ = strconv.Atoi(m.typed)
		}
	case len(k) == 1 && k[0] >= '0' && k[0] <= '9':
		if len(m.typed) < 4 {
			m.typed += k
			cur.Size, _ = strconv.Atoi(m.typed)
		}
	default:
		return m, nil
	}
	m.Err = ""
	return m, nil
}

// move shifts the cursor by delta slots when the target exists.
func (m *SizeFormModel) move(delta int) {
	next := m.Cursor + delta
	if next < 0 || next >= len(m.Selections) {
		return
	}
	m.Cursor = next
	m.typed = ""
}

func isCancelKey(k string) bool {
	return k == "esc" || k == "q" || k == "ctrl+c"
}

func (m SizeFormModel) View() string {
	if m.Done || m.Cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Icon sizes"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("arrows move  space toggle  0-9 size  +/- double/halve  enter confirm  esc cancel"))
	b.WriteString("\n\n")

	for _, row := range m.Config.Rows() {
		cells := make([]string, 0, len(row))
		for _, c := range row {
			if c.Slot >= len(m.Selections) {
				continue
			}
			cells = append(cells, selectionCell(c, m.Selections[c.Slot], c.Slot == m.Cursor))
		}
		b.WriteString("  " + strings.Join(cells, "   ") + "\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("sizes " + strconv.Itoa(m.Config.SizeMin) + ".." + strconv.Itoa(m.Config.SizeMax)))
	if m.Err != "" {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render(m.Err))
	}
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// formPrompter - pipeline.Prompter backed by the form
// =============================================================================

// formPrompter runs SizeFormModel on a terminal.
type formPrompter struct {
	in  io.Reader
	out io.Writer
}

func newFormPrompter(in io.Reader, out io.Writer) *formPrompter {
	return &formPrompter{in: in, out: out}
}

// Prompt implements pipeline.Prompter.
func (p *formPrompter) Prompt(ctx context.Context, cfg config.Config, defaults []stack.Selection) ([]stack.Selection, error) {
	prog := tea.NewProgram(
		NewSizeFormModel(cfg, defaults),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if err != nil {
		if stderrors.Is(err, tea.ErrProgramKilled) {
			return nil, pipeline.ErrCancelled
		}
		return nil, err
	}

	m, ok := final.(SizeFormModel)
	if !ok || m.Cancelled || !m.Done {
		return nil, pipeline.ErrCancelled
	}
	return m.Selections, nil
}

var _ pipeline.Prompter = (*formPrompter)(nil)
