package http

import (
	"embed"
	"html/template"
	"time"

	"github.com/bmp-tn/project-admin/internal/projects/console"
	"github.com/bmp-tn/project-admin/internal/projects/domain"
	"github.com/bmp-tn/project-admin/internal/projects/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options tunes the console handler.
type Options struct {
	// SecureCookie marks the session cookie Secure; enable behind TLS.
	SecureCookie bool
	// SessionTTL is the session cookie lifetime.
	SessionTTL time.Duration
}

// Handler serves the admin console pages and its JSON snapshot.
type Handler struct {
	console      *service.ConsoleService
	tmpl         *template.Template
	secureCookie bool
	sessionTTL   time.Duration
}

// New creates a Handler. Templates are parsed once, here.
func New(consoleService *service.ConsoleService, opt Options) *Handler {
	if opt.SessionTTL == 0 {
		opt.SessionTTL = console.DefaultSessionTTL
	}
	return &Handler{
		console:      consoleService,
		tmpl:         parseTemplates(),
		secureCookie: opt.SecureCookie,
		sessionTTL:   opt.SessionTTL,
	}
}

func parseTemplates() *template.Template {
	funcs := template.FuncMap{
		"budget":   domain.FormatBudget,
		"text":     domain.StringValue,
		"date":     domain.DateOnly,
		"statuses": func() []domain.Status {
			return domain.Statuses
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// consolePage is the data behind console.html.
type consolePage struct {
	State   console.State
	Rows    []projectRow
	Notices []console.Notice
	Alerts  []console.Notice
	// SearchEditing is set when the search card's project is in edit mode.
	SearchEditing bool
}

// projectRow is one line of the project list.
type projectRow struct {
	Project domain.Project
	Mode    console.RowMode
	Draft   domain.EditDraft
}

func (r projectRow) Editing() bool { return r.Mode == console.RowEditing }

func newConsolePage(st console.State, notices []console.Notice) consolePage {
	page := consolePage{
		State: st,
		Rows:  make([]projectRow, 0, len(st.Projects)),
	}
	for _, p := range st.Projects {
		row := projectRow{Project: p, Mode: st.RowMode(p.ID)}
		if row.Editing() {
			row.Draft = *st.Edit
		}
		page.Rows = append(page.Rows, row)
	}
	if st.Search != nil {
		page.SearchEditing = st.Editing(st.Search.ID)
	}
	for _, n := range notices {
		if n.Level == console.NoticeAlert {
			page.Alerts = append(page.Alerts, n)
		} else {
			page.Notices = append(page.Notices, n)
		}
	}
	return page
}

// confirmPage is the data behind confirm_delete.html.
type confirmPage struct {
	ID      int64
	Project *domain.Project
}

// createForm mirrors the creation form fields.
type createForm struct {
	ArtisanID   string `form:"artisanId"`
	Title       string `form:"title"`
	Description string `form:"description"`
	Location    string `form:"location"`
	Budget      string `form:"budget"`
	StartDate   string `form:"startDate"`
}

// editForm mirrors the inline edit fields of one row.
type editForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Location    string `form:"location"`
	Budget      string `form:"budget"`
	StartDate   string `form:"startDate"`
}

type searchForm struct {
	ID string `form:"id"`
}

type filterForm struct {
	ArtisanID string `form:"artisanId"`
}

type statusForm struct {
	Status string `form:"status"`
}

type progressForm struct {
	ProgressPercent string `form:"progressPercent"`
	Note            string `form:"note"`
}

type deleteForm struct {
	Confirm string `form:"confirm"`
}
