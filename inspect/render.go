package inspect

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// maxPreview caps the number of payload bytes shown per custom section.
const maxPreview = 48

// Render writes the report to w. Styled output uses terminal colors.
func (r *Report) Render(w io.Writer, styled bool) error {
	p := printer{styled: styled}

	title := "module"
	if r.ModuleName != "" {
		title += " " + r.ModuleName
	}
	p.heading(fmt.Sprintf("%s (%d bytes)", title, r.Size))
	if r.Invalid != nil {
		p.line("  %s", p.dim("not valid: "+r.Invalid.Error()))
	}

	p.heading("sections")
	for _, s := range r.Sections {
		p.line("  %s %s", p.name(pad(s.Kind, 12)), p.dim(fmt.Sprintf("offset %d size %d", s.Offset, s.Size)))
	}

	p.heading("exports")
	for _, f := range r.Functions {
		p.line("  %s", p.typ(f.Signature()))
	}
	width := 0
	for _, g := range r.Globals {
		width = max(width, len(g.Name))
	}
	for _, m := range r.Memories {
		width = max(width, len(m.Export))
	}
	for _, m := range r.Memories {
		if m.Export == "" {
			continue
		}
		p.line("  %s %s", p.name(pad(m.Export, width)), p.typ("memory "+limits(m)))
	}
	for _, g := range r.Globals {
		desc := "global " + g.Type.WIT(nil, "")
		if g.Mutable {
			desc = "global mut " + g.Type.WIT(nil, "")
		}
		if g.Value != nil {
			desc += " = " + strconv.Itoa(int(*g.Value))
		}
		p.line("  %s %s", p.name(pad(g.Name, width)), p.typ(desc))
	}

	p.heading("custom sections")
	if len(r.CustomSections) == 0 {
		p.line("  %s", p.dim("(none)"))
	}
	for _, cs := range r.CustomSections {
		p.line("  %s %s %s", p.name(cs.Name), p.dim(fmt.Sprintf("%d bytes", len(cs.Data))), preview(cs))
	}

	_, err := io.WriteString(w, p.sb.String())
	return err
}

type printer struct {
	sb     strings.Builder
	styled bool
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) heading(s string) {
	if p.sb.Len() > 0 {
		p.sb.WriteByte('\n')
	}
	if p.styled {
		p.line("%s", headingStyle.Render(s))
		return
	}
	p.line("%s", strings.ToUpper(s))
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *printer) name(s string) string { return p.render(nameStyle, s) }
func (p *printer) typ(s string) string { return p.render(typeStyle, s) }
func (p *printer) dim(s string) string { return p.render(dimStyle, s) }

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func limits(m Memory) string {
	if m.Max == nil {
		return fmt.Sprintf("%d page(s)", m.Min)
	}
	return fmt.Sprintf("%d..%d page(s)", m.Min, *m.Max)
}

func preview(cs CustomSection) string {
	data := cs.Data
	suffix := ""
	if len(data) > maxPreview {
		data = data[:maxPreview]
		suffix = "..."
	}
	if cs.Printable() {
		return strconv.Quote(string(data)) + suffix
	}
	return fmt.Sprintf("% x", data) + suffix
}
