package render

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var templateVarRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// DateLayout is the layout used for {{Date}}.
const DateLayout = "2006-01-02"

// TemplateContext contains values for template variable substitution.
type TemplateContext struct {
	Name  string
	Date  time.Time
	File  string
	Page  int
	Pages int

	// Layout formats {{Date}}, DateLayout when empty.
	Layout string
}

// ExpandTemplateVariables replaces template variables in text with values from context.
//
// Supported variables:
//   - {{Name}} - Signer name
//   - {{Initials}} - Initials derived from name
//   - {{Date}} - Date, formatted with Layout
//   - {{File}} - Document file name
//   - {{Page}}, {{Pages}} - Page number and page count
func ExpandTemplateVariables(text string, ctx TemplateContext) string {
	return templateVarRegex.ReplaceAllStringFunc(text, func(match string) string {
		varName := match[2 : len(match)-2] // Remove {{ and }}
		switch varName {
		case "Name":
			return ctx.Name
		case "Initials":
			return ExtractInitials(ctx.Name)
		case "Date":
			layout := ctx.Layout
			if layout == "" {
				layout = DateLayout
			}
			if ctx.Date.IsZero() {
				return time.Now().Format(layout)
			}
			return ctx.Date.Format(layout)
		case "File":
			return ctx.File
		case "Page":
			return strconv.Itoa(ctx.Page)
		case "Pages":
			return strconv.Itoa(ctx.Pages)
		default:
			return match // Keep unknown variables as-is
		}
	})
}

// ExtractInitials extracts initials from a name.
// "John Doe" -> "JD", "Alice Bob Charlie" -> "ABC"
func ExtractInitials(name string) string {
	var initials strings.Builder
	for _, part := range strings.Fields(name) {
		for _, r := range part {
			initials.WriteRune(r)
			break
		}
	}
	return strings.ToUpper(initials.String())
}
