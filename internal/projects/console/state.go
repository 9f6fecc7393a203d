// Package console holds the per-session state of the admin console and the
// stores that persist it between requests.
//
// State is a value. Every transition returns a new State and leaves the
// receiver untouched, so handlers and tests can reason about one step at a
// time.
package console

import (
	"slices"

	"github.com/bmp-tn/project-admin/internal/projects/domain"
)

// NoticeLevel decides how a notice is shown.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
	// NoticeAlert blocks the page until dismissed.
	NoticeAlert NoticeLevel = "alert"
)

// Notice is a one-shot message rendered on the next page view.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// RowMode is the view state of one project row.
type RowMode string

const (
	RowViewing RowMode = "VIEWING"
	RowEditing RowMode = "EDITING"
)

// State is everything one console session shows.
type State struct {
	Projects      []domain.Project `json:"projects"`
	Loaded        bool             `json:"loaded"`
	ArtisanFilter int64            `json:"artisanFilter,omitempty"`

	Create domain.CreateDraft `json:"create"`

	SearchQuery string                  `json:"searchQuery"`
	Search      *domain.Project         `json:"search,omitempty"`
	Updates     []domain.ProgressUpdate `json:"updates,omitempty"`
	// UpdatesLoaded is set once Updates reflect the current search result.
	UpdatesLoaded bool `json:"updatesLoaded,omitempty"`

	Edit *domain.EditDraft `json:"edit,omitempty"`

	Notices []Notice `json:"notices,omitempty"`
}

// New returns the state of a session that has not loaded anything yet.
func New(defaultArtisanID int64) State {
	return State{
		Projects: []domain.Project{},
		Create:   domain.NewCreateDraft(defaultArtisanID),
	}
}

// ReplaceProjects swaps in a freshly fetched list.
func (s State) ReplaceProjects(items []domain.Project) State {
	if items == nil {
		items = []domain.Project{}
	}
	s.Projects = slices.Clone(items)
	s.Loaded = true
	return s
}

// SetArtisanFilter restricts the list to one artisan; 0 shows all projects.
func (s State) SetArtisanFilter(artisanID int64) State {
	if artisanID < 0 {
		artisanID = 0
	}
	s.ArtisanFilter = artisanID
	return s
}

// SetCreateDraft records the creation form as typed.
func (s State) SetCreateDraft(d domain.CreateDraft) State {
	s.Create = d
	return s
}

// ResetCreate puts the creation form back to its defaults.
func (s State) ResetCreate(defaultArtisanID int64) State {
	s.Create = domain.NewCreateDraft(defaultArtisanID)
	return s
}

// SetSearchQuery records the search box text.
func (s State) SetSearchQuery(q string) State {
	s.SearchQuery = q
	return s
}

// SetSearch shows p in the search card. Progress updates are kept only when
// they belong to the same project.
func (s State) SetSearch(p domain.Project) State {
	if s.Search == nil || s.Search.ID != p.ID {
		s.Updates = nil
		s.UpdatesLoaded = false
	}
	s.Search = &p
	return s
}

// ClearSearch empties the search card but keeps the query text.
func (s State) ClearSearch() State {
	s.Search = nil
	s.Updates = nil
	s.UpdatesLoaded = false
	return s
}

// SearchShows reports whether the search card currently shows id.
func (s State) SearchShows(id int64) bool {
	return s.Search != nil && s.Search.ID == id
}

// SetUpdates records the progress updates of the search result.
func (s State) SetUpdates(items []domain.ProgressUpdate) State {
	s.Updates = slices.Clone(items)
	s.UpdatesLoaded = true
	return s
}

// StartEdit opens p for editing. Any other draft in progress is dropped.
func (s State) StartEdit(p domain.Project) State {
	d := domain.EditDraftFrom(p)
	s.Edit = &d
	return s
}

// SetEditDraft records the edit form as typed. It is a no-op unless d
// targets the project currently being edited.
func (s State) SetEditDraft(d domain.EditDraft) State {
	if !s.Editing(d.ProjectID) {
		return s
	}
	s.Edit = &d
	return s
}

// CancelEdit returns every row to VIEWING.
func (s State) CancelEdit() State {
	s.Edit = nil
	return s
}

// Editing reports whether id is the row being edited.
func (s State) Editing(id int64) bool {
	return s.Edit != nil && s.Edit.ProjectID == id
}

// RowMode reports the view state of row id.
func (s State) RowMode(id int64) RowMode {
	if s.Editing(id) {
		return RowEditing
	}
	return RowViewing
}

// ForgetProject drops every local reference to a deleted project.
func (s State) ForgetProject(id int64) State {
	if s.SearchShows(id) {
		s = s.ClearSearch()
	}
	if s.Editing(id) {
		s = s.CancelEdit()
	}
	return s
}

// PushNotice queues a message for the next render.
func (s State) PushNotice(level NoticeLevel, msg string) State {
	s.Notices = append(slices.Clone(s.Notices), Notice{Level: level, Message: msg})
	return s
}

// TakeNotices returns the queued notices and a state without them.
func (s State) TakeNotices() (State, []Notice) {
	n := s.Notices
	s.Notices = nil
	return s, n
}

// Alerts counts queued blocking alerts.
func (s State) Alerts() int {
	n := 0
	for _, notice := range s.Notices {
		if notice.Level == NoticeAlert {
			n++
		}
	}
	return n
}
