package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"coffee-storefront/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"landing", "home", "menu", "item", "checkout", "processing", "receipt", "error"}

type pages struct {
	byName map[string]*template.Template
}

func mustParsePages() *pages {
	funcs := template.FuncMap{
		"rupiah": func(p domain.Price) string { return p.String() },
	}
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		p.byName[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/base.html", "templates/"+name+".html"))
	}
	return p
}

// render executes the base layout for page. The body is buffered so a
// template error still produces a clean 500.
func (h *Handler) render(w http.ResponseWriter, code int, page string, data any) {
	t, ok := h.pages.byName[page]
	if !ok {
		http.Error(w, "unknown page "+page, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		h.log.Error("template_exec_failed", err, map[string]any{"page": page})
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

type layout struct {
	Title     string
	Path      string
	CartCount int
}

type itemView struct {
	domain.CatalogItem
	Favorite bool
	InCart   int
}

type categoryTab struct {
	Name   string
	URL    string
	Active bool
}

type cartView struct {
	Lines []domain.CartLine
	Total domain.Price
	Count int
}

type landingView struct {
	layout
}

type homeView struct {
	layout
	Featured   []itemView
	Favorites  []itemView
	Categories []categoryTab
}

type menuView struct {
	layout
	Categories []categoryTab
	Category   string
	Query      string
	Items      []itemView
	Cart       cartView
}

type itemDetailView struct {
	layout
	Item itemView
}

type methodView struct {
	domain.PaymentMethod
	Selected bool
}

type checkoutView struct {
	layout
	Items    []domain.CartLine
	Count    int
	Subtotal domain.Price
	Total    domain.Price
	Methods  []methodView
	Customer domain.CustomerInfo
	Error    string
}

type processingView struct {
	layout
	Total  domain.Price
	Method string
}

type receiptView struct {
	layout
	Receipt  domain.Receipt
	Date     string
	Time     string
	FileName string
}

type errorView struct {
	layout
	Message string
}
