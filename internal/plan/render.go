package plan

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/argannor/gdbt/internal/differ"
)

var (
	createColor = color.New(color.FgGreen)
	removeColor = color.New(color.FgRed)
	updateColor = color.New(color.FgYellow)
	boldColor   = color.New(color.Bold)
	arrowColor  = color.New(color.FgHiBlack)
)

var actionSymbol = map[differ.Action]string{
	differ.ActionAdded:   "+",
	differ.ActionRemoved: "-",
	differ.ActionChanged: "~",
}

func colorFor(action differ.Action) *color.Color {
	switch action {
	case differ.ActionAdded:
		return createColor
	case differ.ActionRemoved:
		return removeColor
	default:
		return updateColor
	}
}

// Render prints a plan as a sequence of per-resource blocks: a colored
// heading ("+ Folder name will be created:") followed by one line per
// visible field change, matching the original's StateDiff.render.
// Returns the "up to date" message when the plan is empty.
func Render(p Plan) string {
	if !p.HasChanges() {
		return "Dashboards are up to date!"
	}

	var blocks []string
	for _, name := range p.Names() {
		e := p[name]
		blocks = append(blocks, renderEntry(name, e))
	}
	return strings.Join(blocks, "\n\n")
}

func renderEntry(name string, e *Entry) string {
	c := colorFor(e.Action)
	lines := []string{renderHeading(c, e.Action, string(e.Kind), name)}

	padding := 0
	for _, f := range e.Fields {
		if len(f.Path) > padding {
			padding = len(f.Path)
		}
	}
	for _, f := range e.Fields {
		lines = append(lines, renderField(f, padding))
	}
	return strings.Join(lines, "\n")
}

func renderHeading(c *color.Color, action differ.Action, kind, name string) string {
	verb := map[differ.Action]string{
		differ.ActionAdded:   "created",
		differ.ActionRemoved: "removed",
		differ.ActionChanged: "updated",
	}[action]
	return fmt.Sprintf("%s %s %s will be %s:",
		c.Sprint(actionSymbol[action]),
		titleCase(kind),
		boldColor.Sprint(name),
		c.Sprint(verb))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func renderField(f differ.FieldOutcome, padding int) string {
	label := (f.Path + ":")
	label = label + strings.Repeat(" ", max(0, padding+1-len(f.Path)))
	switch f.Action {
	case differ.ActionChanged:
		return fmt.Sprintf("  %s %s  %s %s %s",
			colorFor(f.Action).Sprint(actionSymbol[f.Action]),
			label,
			removeColor.Sprintf("%q", truncate(f.OldValue)),
			arrowColor.Sprint("=>"),
			createColor.Sprintf("%q", truncate(f.Value)))
	default:
		return fmt.Sprintf("  %s %s  %s",
			colorFor(f.Action).Sprint(actionSymbol[f.Action]),
			label,
			colorFor(f.Action).Sprintf("%q", truncate(f.Value)))
	}
}

// truncate mirrors Outcome.truncate_value: scalars render as-is,
// anything else is stringified and cut to 64 characters.
func truncate(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool, int, int64, float64, nil:
		return fmt.Sprintf("%v", t)
	default:
		s := fmt.Sprintf("%v", t)
		if len(s) > 64 {
			return s[:64] + "..."
		}
		return s
	}
}
