package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/sangkips/mini-crm/internal/domain/entity"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Template names
const (
	TemplateIndex  = "customers/index"
	TemplateCreate = "customers/create"
	TemplateEdit   = "customers/edit"
	TemplateError  = "errors/error"
)

// Page holds what the shared layout needs on every page
type Page struct {
	Title   string
	Success string
	Error   string
}

// ListView feeds the customer list
type ListView struct {
	Page
	Customers     []entity.Customer
	CurrentPage   int
	TotalPages    int
	Total         int64
	Search        string
	CountDegraded bool
}

// FormView feeds the create and edit forms. Customer is nil on create.
type FormView struct {
	Page
	Customer *entity.Customer
}

// ErrorView feeds the error page. Detail is empty unless debug output is enabled.
type ErrorView struct {
	Page
	Heading string
	Message string
	Detail  string
}

// DatabaseError is the page shown when storage cannot serve a request
func DatabaseError(detail string) ErrorView {
	return ErrorView{
		Page:    Page{Title: "Chyba"},
		Heading: "Database Connection Error",
		Message: "Unable to connect to the database. Please try again later.",
		Detail:  detail,
	}
}

// Templates parses every embedded template, formatting times in loc
func Templates(loc *time.Location) (*template.Template, error) {
	if loc == nil {
		loc = time.UTC
	}
	return template.New("").Funcs(Funcs(loc)).ParseFS(templateFS, "templates/*/*.html")
}

// Funcs returns the helpers available to templates
func Funcs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time, layout string) string {
			return t.In(loc).Format(layout)
		},
		"customersLabel": CustomersLabel,
		"add":            func(a, b int) int { return a + b },
		"sub":            func(a, b int) int { return a - b },
		"year":           func() int { return time.Now().In(loc).Year() },
	}
}

// CustomersLabel returns the Slovak noun form for n customers
func CustomersLabel(n int64) string {
	switch {
	case n == 1:
		return "zákazník"
	case n >= 2 && n <= 4:
		return "zákazníci"
	default:
		return "zákazníkov"
	}
}

// Static serves the embedded stylesheet directory
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static/css")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
