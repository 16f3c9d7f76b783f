package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/iconstack/pkg/config"
	"github.com/matzehuels/iconstack/pkg/ico"
	"github.com/matzehuels/iconstack/pkg/layout"
	"github.com/matzehuels/iconstack/pkg/stack"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleEnabled = lipgloss.NewStyle().Foreground(colorGreen)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(16)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints the generated sizes and cache status on one line.
func printStats(sizes []int, cached bool) {
	parts := make([]string, 0, len(sizes)+1)
	for _, s := range sizes {
		parts = append(parts, stack.LayerName(s))
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  " + StyleDim.Render(strings.Join(parts, " · "))
	if len(parts) > 0 {
		line += StyleDim.Render(" · ")
	}
	fmt.Println(line + statusStyle.Render(status))
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// renderPlan writes the op table, one row per new layer in stack order.
func renderPlan(w io.Writer, source stack.Handle, ops []stack.LayerOp) {
	t := newTable("#", "Layer", "Position", "Scale to", "Copy of")
	for i, op := range ops {
		t.Row(
			strconv.Itoa(i),
			op.RenameTo,
			strconv.Itoa(op.InsertAt),
			fmt.Sprintf("%d×%d", op.ScaleTo.Width, op.ScaleTo.Height),
			string(op.DuplicateFrom),
		)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d layers above %s", len(ops), source)))
}

// renderSelections writes the slot selections grouped into the configured
// rows, the same arrangement the interactive form uses.
func renderSelections(w io.Writer, cfg config.Config, sel []stack.Selection) {
	for i, row := range cfg.Rows() {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = selectionCell(c, sel[c.Slot], false)
		}
		fmt.Fprintln(w, StyleDim.Render(layout.BoxName(i))+"  "+strings.Join(cells, "   "))
	}
}

func selectionCell(c layout.ControlID, s stack.Selection, focused bool) string {
	box := "[ ]"
	if s.Enabled {
		box = styleEnabled.Render("[x]")
	}
	label := c.Label()
	if focused {
		label = StyleTitle.Render(label)
	}
	return fmt.Sprintf("%s %s %s", box, label, StyleNumber.Render(fmt.Sprintf("%4d", s.Size)))
}

// renderEntries writes the directory of an .ico file.
func renderEntries(w io.Writer, entries []ico.Entry) {
	t := newTable("#", "Size", "Bytes")
	for i, e := range entries {
		t.Row(strconv.Itoa(i), fmt.Sprintf("%d×%d", e.Width, e.Height), strconv.Itoa(e.Bytes))
	}
	fmt.Fprintln(w, t.Render())
}
