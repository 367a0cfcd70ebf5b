package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

//go:embed templates
var templatesFS embed.FS

var pages = mustParsePages()

var funcs = template.FuncMap{
	"inc":      func(i int) int { return i + 1 },
	"initials": initials,
	"deref":    deref,
	"percent":  func(d decimal.Decimal) string { return d.String() },
}

// Every page is parsed together with the layout, so each of them may define own "content" and "title"
func mustParsePages() map[string]*template.Template {
	files, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		panic(err)
	}

	parsed := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		parsed[name] = template.Must(
			template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", file),
		)
	}

	return parsed
}

// Render page by name (file name in templates/pages without extension) with status code
func HTML(w http.ResponseWriter, page string, data any, code int) {
	tmpl, ok := pages[page]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown page %q", page), http.StatusInternalServerError)
		return
	}

	buf := &bytes.Buffer{}
	if err := tmpl.ExecuteTemplate(buf, "layout", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

// Up to two first letters of the name words: "Budi Santoso" -> "BS"
func initials(name string) string {
	letters := make([]rune, 0, 2)
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		letters = append(letters, unicode.ToUpper(r))
		if len(letters) == 2 {
			break
		}
	}
	return string(letters)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
