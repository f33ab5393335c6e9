package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"datve-cli/model"
)

// seatLayout arranges a room's seats into lettered rows. cells hold indexes
// into the seat slice.
type seatLayout struct {
	rows  []string
	cells [][]int
}

func buildSeatLayout(seats []model.Seat) seatLayout {
	byRow := map[string][]int{}
	for i, seat := range seats {
		row := seat.Row()
		byRow[row] = append(byRow[row], i)
	}
	var layout seatLayout
	for row := range byRow {
		layout.rows = append(layout.rows, row)
	}
	sort.Slice(layout.rows, func(i, j int) bool {
		a, b := layout.rows[i], layout.rows[j]
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	for _, row := range layout.rows {
		idx := byRow[row]
		sort.SliceStable(idx, func(i, j int) bool {
			return seatNumber(seats[idx[i]]) < seatNumber(seats[idx[j]])
		})
		layout.cells = append(layout.cells, idx)
	}
	return layout
}

// position finds the row and column of seat index i.
func (l seatLayout) position(i int) (int, int) {
	for r, row := range l.cells {
		for c, idx := range row {
			if idx == i {
				return r, c
			}
		}
	}
	return 0, 0
}

// move returns the seat index reached from cursor by dr rows and dc columns.
func (l seatLayout) move(cursor, dr, dc int) int {
	if len(l.cells) == 0 {
		return cursor
	}
	r, c := l.position(cursor)
	r = clamp(r+dr, 0, len(l.cells)-1)
	c = clamp(c+dc, 0, len(l.cells[r])-1)
	if len(l.cells[r]) == 0 {
		return cursor
	}
	return l.cells[r][c]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func seatNumber(seat model.Seat) int {
	digits := strings.TrimLeftFunc(seat.Label, func(r rune) bool { return r < '0' || r > '9' })
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func seatNumberLabel(seat model.Seat) string {
	if n := seatNumber(seat); n > 0 {
		return strconv.Itoa(n)
	}
	return strings.TrimSpace(seat.Label)
}

func (m appModel) isPicked(id model.ID) bool {
	for _, seat := range m.picked {
		if seat.Id == id {
			return true
		}
	}
	return false
}

func (m appModel) renderSeatMap() string {
	if len(m.seats) == 0 {
		return "No seat map data."
	}
	layout := buildSeatLayout(m.seats)

	rowWidth := 2
	maxCols := 0
	for r, row := range layout.rows {
		rowWidth = max(rowWidth, len(row))
		maxCols = max(maxCols, len(layout.cells[r]))
	}
	cellWidth := 2
	if m.showSeatNumbers {
		for _, seat := range m.seats {
			cellWidth = max(cellWidth, len(seatNumberLabel(seat)))
		}
	}

	seatStyleAvailable := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	seatStyleOccupied := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	seatStylePicked := lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Bold(true)
	seatStyleCursor := lipgloss.NewStyle().Reverse(true)

	available, occupied := 0, 0
	var b strings.Builder
	for r, row := range layout.rows {
		b.WriteString(fmt.Sprintf("%*s ", rowWidth, row))
		for c, idx := range layout.cells[r] {
			seat := m.seats[idx]
			text := "[]"
			if m.showSeatNumbers {
				text = seatNumberLabel(seat)
			}
			rendered := padCell(text, cellWidth)
			switch {
			case m.isPicked(seat.Id):
				rendered = seatStylePicked.Render(rendered)
			case seat.Available():
				available++
				if !m.showSeatNumbers {
					rendered = padCell("[]", cellWidth)
				}
				rendered = seatStyleAvailable.Render(rendered)
			default:
				occupied++
				if !m.showSeatNumbers {
					rendered = padCell("XX", cellWidth)
				}
				rendered = seatStyleOccupied.Render(rendered)
			}
			if idx == m.seatCursor {
				rendered = seatStyleCursor.Render(rendered)
			}
			b.WriteString(rendered)
			if c < len(layout.cells[r])-1 {
				b.WriteString(" ")
			}
		}
		b.WriteString(fmt.Sprintf(" %*s\n", rowWidth, row))
	}

	gridWidth := maxCols*(cellWidth+1) - 1
	screenStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("214"))
	screenBorderStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Background(lipgloss.Color("236"))
	screenBar := screenBarBlock(gridWidth, "SCREEN")

	b.WriteString("\n")
	for _, line := range []string{screenBorderStyle.Render(screenBar.top), screenStyle.Render(screenBar.mid), screenBorderStyle.Render(screenBar.bot)} {
		b.WriteString(strings.Repeat(" ", rowWidth+1))
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	legend := "Legend: [] available • XX sold • highlighted picked"
	if m.showSeatNumbers {
		legend = "Legend: green available • red sold • highlighted picked"
	}
	picked := make([]string, 0, len(m.picked))
	for _, seat := range m.picked {
		picked = append(picked, seat.Label)
	}
	counts := fmt.Sprintf("Picked %d of %d: %s • Available: %d • Sold: %d",
		len(m.picked), m.ticketTotal(), strings.Join(picked, ", "), available, occupied)
	return b.String() + hint(legend) + "\n" + hint(counts)
}

func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if text == "" {
		return strings.Repeat(" ", width)
	}
	if len(text) >= width {
		return text[:width]
	}
	padding := width - len(text)
	left := padding / 2
	right := padding - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

type screenBlock struct {
	top string
	mid string
	bot string
}

func screenBarBlock(width int, label string) screenBlock {
	if width < len(label)+4 {
		width = len(label) + 4
	}
	if width < 10 {
		width = 10
	}

	border := "╭" + strings.Repeat("─", width-2) + "╮"
	bottom := "╰" + strings.Repeat("─", width-2) + "╯"

	labelText := " " + label + " "
	padding := width - len(labelText) - 2
	left := padding / 2
	right := padding - left
	mid := "│" + strings.Repeat(" ", left) + labelText + strings.Repeat(" ", right) + "│"
	return screenBlock{top: border, mid: mid, bot: bottom}
}
