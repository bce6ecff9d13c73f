// Package web holds the server rendered pages of the inventory UI.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"nl2br":     nl2br,
	"bugLinks":  bugLinks,
	"selected":  selected,
	"deref":     deref,
	"rackOrder": rackOrder,
}

// Templates parses the embedded pages. Each page is addressed by its file
// name, e.g. "system_show.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// Static returns the assets served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// nl2br escapes s and turns newlines into line breaks.
func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br />"))
}

// bugRef matches "bug 123", "Bug#123" and "bug #123" in free text.
var bugRef = regexp.MustCompile(`[bB]ug#?\D#?(\d+)`)

// bugLinks renders notes like nl2br and links every bug reference to
// bugURL followed by the bug number. bugURL is any so pages rendered
// without one still execute.
func bugLinks(notes string, bugURL any) template.HTML {
	prefix, _ := bugURL.(string)
	escaped := template.HTMLEscapeString(notes)
	if prefix != "" {
		href := template.HTMLEscapeString(prefix)
		escaped = bugRef.ReplaceAllStringFunc(escaped, func(raw string) string {
			number := bugRef.FindStringSubmatch(raw)[1]
			return `<a href="` + href + number + `">` + raw + `</a>`
		})
	}
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br />"))
}

// selected reports whether an optional foreign key points at id.
func selected(ref *uint, id uint) bool {
	return ref != nil && *ref == id
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func rackOrder(order *float64) string {
	if order == nil {
		return ""
	}
	return strconv.FormatFloat(*order, 'f', 2, 64)
}
