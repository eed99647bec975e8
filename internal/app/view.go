package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rigbench/rigview/internal/chart"
	"github.com/rigbench/rigview/internal/telemetry"
	"github.com/rigbench/rigview/internal/ui"
)

// View renders the full dashboard.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderContent())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("RIGVIEW")

	var testInfo string
	if test, ok := m.selectedTest(); ok {
		testInfo = ui.DimStyle.Render(fmt.Sprintf(" | %s (%d/%d)", test.Name, m.testIndex+1, len(m.tests)))
	} else if m.testsLoaded {
		testInfo = ui.DimStyle.Render(" | no tests")
	}

	sysInfo := ui.DimStyle.Render(fmt.Sprintf(" [SYS %d]", m.system))

	var badge string
	if m.live {
		badge = ui.LiveBadgeStyle.Render(" LIVE")
	}

	return title + testInfo + sysInfo + badge
}

func (m Model) renderStatusBar() string {
	var dot string
	if m.live {
		dot = ui.LiveDotStyle.Render("● LIVE")
	} else {
		dot = ui.IdleDotStyle.Render("○ IDLE")
	}

	var updated string
	if !m.lastUpdated.IsZero() {
		updated = ui.DimStyle.Render("  updated " + m.lastUpdated.Format("15:04:05"))
	}

	var count string
	if m.live {
		count = ui.DimStyle.Render(fmt.Sprintf("  %d samples", m.series.Len()))
	}

	var pollErr string
	if m.pollError != "" {
		pollErr = "  " + ui.ErrorTextStyle.Render("poll: "+m.pollError)
	}

	var note string
	if m.exportNote != "" {
		note = "  " + ui.DimStyle.Render(m.exportNote)
	}

	return dot + count + updated + pollErr + note + "  " + ui.StatusStyle.Render(m.statusText)
}

func (m Model) renderContent() string {
	h := m.contentHeight()
	switch m.view {
	case ViewChar:
		return m.renderCharGrid(h)
	case ViewHistory:
		if m.historyLoading {
			return m.centerNote("Loading history...", h)
		}
		return m.renderCharts(m.history, h)
	default:
		return m.renderCharts(m.series.All(), h)
	}
}

// renderCharts lays the six chart kinds out in a 2x3 grid.
func (m Model) renderCharts(samples []telemetry.Sample, height int) string {
	derived := telemetry.DeriveAll(samples)

	cellW := (m.width - 1) / 2
	cellH := height / 3
	if cellH < 4 {
		cellH = 4
	}

	kinds := chart.Kinds()
	var rows []string
	for i := 0; i < len(kinds); i += 2 {
		left := chart.Plot(kinds[i], derived, cellW, cellH)
		right := chart.Plot(kinds[i+1], derived, cellW, cellH)
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	}
	return strings.Join(rows, "\n")
}

// renderCharGrid renders one table per ambient-temperature bucket: current
// buckets as rows, RPM buckets as columns, median/p95 voltage drop as cells.
func (m Model) renderCharGrid(height int) string {
	if m.charLoading {
		return m.centerNote("Loading characterization...", height)
	}
	if len(m.charGrid) == 0 {
		return m.centerNote("No characterization data. Press c to load.", height)
	}

	var lines []string
	for _, temp := range sortedKeys(m.charGrid) {
		byCurrent := m.charGrid[temp]
		lines = append(lines, ui.PanelTitleStyle.Render(fmt.Sprintf("Ambient %s °C  vdrop median/p95 [V]", temp)))

		rpms := map[string]bool{}
		for _, byRPM := range byCurrent {
			for rpm := range byRPM {
				rpms[rpm] = true
			}
		}
		rpmKeys := sortedKeySet(rpms)

		header := fmt.Sprintf("%10s", "A \\ rpm")
		for _, rpm := range rpmKeys {
			header += fmt.Sprintf("%16s", rpm)
		}
		lines = append(lines, ui.TableHeaderStyle.Render(header))

		for _, cur := range sortedKeys(byCurrent) {
			row := fmt.Sprintf("%10s", cur)
			for _, rpm := range rpmKeys {
				if cell, ok := byCurrent[cur][rpm]; ok {
					row += fmt.Sprintf("%16s", fmt.Sprintf("%.3f/%.3f", cell.Median, cell.P95))
				} else {
					row += fmt.Sprintf("%16s", "-")
				}
			}
			lines = append(lines, ui.TableCellStyle.Render(row))
		}
		lines = append(lines, "")
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) centerNote(note string, height int) string {
	lines := make([]string, height)
	lines[height/2] = ui.DimStyle.Render("  " + note)
	return strings.Join(lines, "\n")
}

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 18
	}
	// Reserve: header(1) + status(1) + dividers(2) + error(1) + footer(1)
	reserved := 6
	h := m.height - reserved
	if h < 9 {
		h = 9
	}
	return h
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string

	if m.live {
		parts = append(parts, ui.FooterKeyStyle.Render("l")+ui.FooterDescStyle.Render(" Stop"))
	} else {
		parts = append(parts, ui.FooterKeyStyle.Render("l")+ui.FooterDescStyle.Render(" Live"))
		parts = append(parts, ui.FooterKeyStyle.Render("j/k")+ui.FooterDescStyle.Render(" Test"))
		parts = append(parts, ui.FooterKeyStyle.Render("1-3")+ui.FooterDescStyle.Render(" System"))
		parts = append(parts, ui.FooterKeyStyle.Render("r")+ui.FooterDescStyle.Render(" Reload"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("h")+ui.FooterDescStyle.Render(" History"))
	parts = append(parts, ui.FooterKeyStyle.Render("c")+ui.FooterDescStyle.Render(" Charact."))
	parts = append(parts, ui.FooterKeyStyle.Render("e")+ui.FooterDescStyle.Render(" Export"))
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

// sortedKeys orders bucket labels numerically where possible.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortBuckets(keys)
	return keys
}

func sortedKeySet(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sortBuckets(keys)
	return keys
}

func sortBuckets(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.ParseFloat(keys[i], 64)
		b, errB := strconv.ParseFloat(keys[j], 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
}
