package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/specialistvlad/regiongate/internal/app"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(green)
	MutedStyle   = lipgloss.NewStyle().Foreground(dim)
)

func Muted(s string) string { return MutedStyle.Render(s) }

func SuccessMsg(format string, a ...any) string {
	return SuccessStyle.Render("✓") + " " + fmt.Sprintf(format, a...)
}

// Table renders a styled table with rounded borders.
func Table(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().
		Foreground(purple).
		Bold(true).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	oddStyle := cellStyle.Foreground(dim)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(faint)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return cellStyle
			default:
				return oddStyle
			}
		}).
		Headers(headers...).
		Rows(rows...)

	return t.String()
}

func regionTable(regions []app.RegionStatus) string {
	if len(regions) == 0 {
		return Muted("no regions attached")
	}
	rows := make([][]string, len(regions))
	for i, r := range regions {
		rows[i] = []string{
			r.Name,
			r.State,
			r.Engine,
			dash(r.CompatID),
			dash(r.Node),
			dash(strings.Join(r.Interfaces, ", ")),
		}
	}
	return Table([]string{"Region", "State", "Engine", "Compat ID", "Node", "Interfaces"}, rows)
}

func interfaceTable(ifaces []app.InterfaceStatus) string {
	if len(ifaces) == 0 {
		return Muted("no interfaces attached")
	}
	rows := make([][]string, len(ifaces))
	for i, iface := range ifaces {
		held := "free"
		if iface.Held {
			held = "held"
		}
		rows[i] = []string{iface.Name, iface.State, held, iface.Node}
	}
	return Table([]string{"Interface", "State", "Lease", "Node"}, rows)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
