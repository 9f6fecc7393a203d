package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bmp-tn/project-admin/internal/audit"
	"github.com/bmp-tn/project-admin/internal/projects/client"
	"github.com/bmp-tn/project-admin/internal/projects/console"
	"github.com/bmp-tn/project-admin/internal/projects/domain"
	"github.com/bmp-tn/project-admin/internal/requestctx"
)

// Operation names, used for logs and the audit trail.
const (
	OpList         = "list"
	OpCreate       = "create"
	OpFind         = "find"
	OpStartEdit    = "start_edit"
	OpSaveEdit     = "save_edit"
	OpUpdateStatus = "update_status"
	OpDelete       = "delete"
	OpListUpdates  = "list_updates"
	OpAddUpdate    = "add_update"
)

// MsgNotFound is the blocking alert raised when a lookup by id fails.
const MsgNotFound = "Project not found (check the ID)."

// ProjectGateway is the subset of the Project Service the console needs.
type ProjectGateway interface {
	List(ctx context.Context) ([]domain.Project, error)
	ListByArtisan(ctx context.Context, artisanID int64) ([]domain.Project, error)
	Get(ctx context.Context, id int64) (*domain.Project, error)
	Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error)
	Update(ctx context.Context, id int64, req domain.UpdateProjectRequest) (*domain.Project, error)
	UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.Project, error)
	Delete(ctx context.Context, id int64) error
	AddUpdate(ctx context.Context, id int64, req domain.CreateProgressUpdateRequest) (*domain.ProgressUpdate, error)
	ListUpdates(ctx context.Context, id int64) ([]domain.ProgressUpdate, error)
}

// ActionRecorder receives one entry per attempted mutation.
type ActionRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Config carries the optional collaborators of a ConsoleService.
type Config struct {
	DefaultArtisanID int64
	Recorder         ActionRecorder
}

// ConsoleService is the controller behind the admin console. Every method
// loads the session state, applies one user action, and saves the result.
// Upstream failures never escape as errors: they are logged and turned into
// notices, leaving the previous state in place. The returned error is only
// set when the session store itself fails.
type ConsoleService struct {
	projects         ProjectGateway
	store            console.Store
	recorder         ActionRecorder
	defaultArtisanID int64
}

// NewConsoleService creates a ConsoleService.
func NewConsoleService(projects ProjectGateway, store console.Store, cfg Config) *ConsoleService {
	if cfg.DefaultArtisanID == 0 {
		cfg.DefaultArtisanID = domain.DefaultArtisanID
	}
	if cfg.Recorder == nil {
		cfg.Recorder = audit.NopRecorder{}
	}
	return &ConsoleService{
		projects:         projects,
		store:            store,
		recorder:         cfg.Recorder,
		defaultArtisanID: cfg.DefaultArtisanID,
	}
}

// State returns the session state without touching the Project Service.
func (s *ConsoleService) State(ctx context.Context, sessionID string) (console.State, error) {
	return s.store.Load(ctx, sessionID)
}

// View prepares a page render: it loads the list on the session's first
// view and hands back the queued notices, which are consumed.
func (s *ConsoleService) View(ctx context.Context, sessionID string) (console.State, []console.Notice, error) {
	ctx = requestctx.WithSessionID(ctx, sessionID)

	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return console.State{}, nil, err
	}
	if !st.Loaded {
		st = s.reloadList(ctx, st)
	}
	st, notices := st.TakeNotices()
	if err := s.store.Save(ctx, sessionID, st); err != nil {
		return console.State{}, nil, err
	}
	return st, notices, nil
}

// Refresh fetches the project list again.
func (s *ConsoleService) Refresh(ctx context.Context, sessionID string) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		return s.reloadList(ctx, st)
	})
}

// FilterByArtisan narrows the list to one artisan; 0 lists every project.
func (s *ConsoleService) FilterByArtisan(ctx context.Context, sessionID string, artisanID int64) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		return s.reloadList(ctx, st.SetArtisanFilter(artisanID))
	})
}

// Create submits the creation form. On success the form resets to its
// defaults and the list is fetched again.
func (s *ConsoleService) Create(ctx context.Context, sessionID string, draft domain.CreateDraft) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		st = st.SetCreateDraft(draft)
		req, err := draft.ToRequest()
		if err != nil {
			return s.reject(ctx, st, OpCreate, 0, err)
		}
		return s.mutateThenResync(ctx, st, mutation{
			op:      OpCreate,
			failMsg: "Could not create the project.",
			call: func(ctx context.Context) error {
				_, err := s.projects.Create(ctx, req)
				return err
			},
			after: func(st console.State) console.State {
				return st.ResetCreate(s.defaultArtisanID)
			},
		})
	})
}

// Find looks a project up by the id typed in the search box. Input that does
// not parse to a non-zero number is ignored without a request. Any failure
// clears the search card and raises one blocking alert.
func (s *ConsoleService) Find(ctx context.Context, sessionID, query string) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		st = st.SetSearchQuery(query)

		id, ok, err := domain.ParseSearchID(query)
		if !ok {
			return st
		}

		var p *domain.Project
		if err == nil {
			p, err = s.projects.Get(ctx, id)
		}
		if err != nil {
			NewLogger(ctx).LogErrorf(OpFind, "lookup of %q failed: %s", query, errorPayload(err))
			return st.ClearSearch().PushNotice(console.NoticeAlert, MsgNotFound)
		}
		return st.SetSearch(*p)
	})
}

// ClearSearch empties the search box and the search card.
func (s *ConsoleService) ClearSearch(ctx context.Context, sessionID string) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		return st.SetSearchQuery("").ClearSearch()
	})
}

// StartEdit opens project id for inline editing, silently discarding any
// other unsaved draft.
func (s *ConsoleService) StartEdit(ctx context.Context, sessionID string, id int64) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		p, ok := knownProject(st, id)
		if !ok {
			return s.reject(ctx, st, OpStartEdit, id, domain.ErrProjectNotFound)
		}
		return st.StartEdit(p)
	})
}

// CancelEdit leaves edit mode without saving.
func (s *ConsoleService) CancelEdit(ctx context.Context, sessionID string) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		return st.CancelEdit()
	})
}

// SaveEdit submits the edit draft. On success edit mode ends, and the list
// and a matching search card are fetched again.
func (s *ConsoleService) SaveEdit(ctx context.Context, sessionID string, draft domain.EditDraft) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		if !st.Editing(draft.ProjectID) {
			return s.reject(ctx, st, OpSaveEdit, draft.ProjectID, domain.ErrNotEditing)
		}
		st = st.SetEditDraft(draft)
		req, err := draft.ToRequest()
		if err != nil {
			return s.reject(ctx, st, OpSaveEdit, draft.ProjectID, err)
		}
		return s.mutateThenResync(ctx, st, mutation{
			op:        OpSaveEdit,
			projectID: draft.ProjectID,
			failMsg:   fmt.Sprintf("Could not save project #%d.", draft.ProjectID),
			call: func(ctx context.Context) error {
				_, err := s.projects.Update(ctx, draft.ProjectID, req)
				return err
			},
			after: func(st console.State) console.State {
				return st.CancelEdit()
			},
		})
	})
}

// UpdateStatus moves project id to status.
func (s *ConsoleService) UpdateStatus(ctx context.Context, sessionID string, id int64, status domain.Status) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		if !status.Valid() {
			return s.reject(ctx, st, OpUpdateStatus, id, domain.ErrInvalidStatus)
		}
		return s.mutateThenResync(ctx, st, mutation{
			op:        OpUpdateStatus,
			projectID: id,
			failMsg:   fmt.Sprintf("Could not update the status of project #%d.", id),
			call: func(ctx context.Context) error {
				_, err := s.projects.UpdateStatus(ctx, id, status)
				return err
			},
		})
	})
}

// Delete removes project id. The caller is responsible for having asked the
// user to confirm.
func (s *ConsoleService) Delete(ctx context.Context, sessionID string, id int64) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		return s.mutateThenResync(ctx, st, mutation{
			op:        OpDelete,
			projectID: id,
			failMsg:   fmt.Sprintf("Could not delete project #%d.", id),
			call: func(ctx context.Context) error {
				return s.projects.Delete(ctx, id)
			},
			after: func(st console.State) console.State {
				return st.ForgetProject(id)
			},
		})
	})
}

// LoadUpdates fetches the progress updates of the project in the search card.
func (s *ConsoleService) LoadUpdates(ctx context.Context, sessionID string) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		if st.Search == nil {
			return st
		}
		return s.reloadUpdates(ctx, st, st.Search.ID)
	})
}

// AddUpdate records a progress report for project id.
func (s *ConsoleService) AddUpdate(ctx context.Context, sessionID string, id int64, progress, note string) (console.State, error) {
	return s.update(ctx, sessionID, func(ctx context.Context, st console.State) console.State {
		percent, err := domain.ParseProgress(progress)
		if err != nil {
			return s.reject(ctx, st, OpAddUpdate, id, err)
		}
		req := domain.CreateProgressUpdateRequest{ProgressPercent: percent, Note: domain.OptionalText(note)}
		return s.mutateThenResync(ctx, st, mutation{
			op:             OpAddUpdate,
			projectID:      id,
			refreshUpdates: true,
			failMsg:        fmt.Sprintf("Could not add a progress update to project #%d.", id),
			call: func(ctx context.Context) error {
				_, err := s.projects.AddUpdate(ctx, id, req)
				return err
			},
		})
	})
}

// mutation describes one write against the Project Service.
type mutation struct {
	op        string
	projectID int64
	failMsg   string
	call      func(ctx context.Context) error
	// after applies the local consequences of a successful call, before resync.
	after func(console.State) console.State
	// refreshUpdates re-fetches progress updates even if none were shown.
	refreshUpdates bool
}

// mutateThenResync is the single write path of the console: run the call,
// and on success apply the local post-update, fetch the list again, and
// fetch the search card again if it shows the mutated project. On failure
// the state is returned as it was, plus an error notice.
func (s *ConsoleService) mutateThenResync(ctx context.Context, st console.State, m mutation) console.State {
	err := m.call(ctx)
	s.record(ctx, m.op, m.projectID, err)
	if err != nil {
		NewLogger(ctx).LogErrorf(m.op, "project_id=%d: %s", m.projectID, errorPayload(err))
		return st.PushNotice(console.NoticeError, m.failMsg)
	}
	NewLogger(ctx).LogInfof(m.op, "project_id=%d applied", m.projectID)

	if m.after != nil {
		st = m.after(st)
	}
	st = s.reloadList(ctx, st)
	if m.projectID != 0 && st.SearchShows(m.projectID) {
		st = s.reloadSearch(ctx, st, m.projectID, m.refreshUpdates || st.UpdatesLoaded)
	}
	return st
}

// reject handles input that never reached the Project Service.
func (s *ConsoleService) reject(ctx context.Context, st console.State, op string, id int64, err error) console.State {
	s.record(ctx, op, id, err)
	NewLogger(ctx).LogWarnf(op, "project_id=%d rejected: %v", id, err)
	return st.PushNotice(console.NoticeError, rejectMessage(err, id))
}

func (s *ConsoleService) reloadList(ctx context.Context, st console.State) console.State {
	var (
		items []domain.Project
		err   error
	)
	if st.ArtisanFilter != 0 {
		items, err = s.projects.ListByArtisan(ctx, st.ArtisanFilter)
	} else {
		items, err = s.projects.List(ctx)
	}
	if err != nil {
		NewLogger(ctx).LogErrorf(OpList, "artisan_filter=%d: %s", st.ArtisanFilter, errorPayload(err))
		return st.PushNotice(console.NoticeError, "The project list could not be refreshed.")
	}
	return st.ReplaceProjects(items)
}

func (s *ConsoleService) reloadSearch(ctx context.Context, st console.State, id int64, withUpdates bool) console.State {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		NewLogger(ctx).LogErrorf(OpFind, "refresh of project_id=%d failed: %s", id, errorPayload(err))
		if errors.Is(err, domain.ErrProjectNotFound) {
			return st.ClearSearch().PushNotice(console.NoticeError, fmt.Sprintf("Project #%d no longer exists.", id))
		}
		return st.PushNotice(console.NoticeError, fmt.Sprintf("Project #%d could not be refreshed.", id))
	}
	st = st.SetSearch(*p)
	if withUpdates {
		st = s.reloadUpdates(ctx, st, id)
	}
	return st
}

func (s *ConsoleService) reloadUpdates(ctx context.Context, st console.State, id int64) console.State {
	items, err := s.projects.ListUpdates(ctx, id)
	if err != nil {
		NewLogger(ctx).LogErrorf(OpListUpdates, "project_id=%d: %s", id, errorPayload(err))
		return st.PushNotice(console.NoticeError, fmt.Sprintf("Progress updates of project #%d could not be loaded.", id))
	}
	return st.SetUpdates(items)
}

func (s *ConsoleService) record(ctx context.Context, op string, id int64, err error) {
	e := audit.Entry{
		SessionID: requestctx.SessionID(ctx),
		RequestID: requestctx.RequestID(ctx),
		Action:    op,
		ProjectID: id,
		OK:        err == nil,
	}
	if err != nil {
		e.Error = err.Error()
	}
	if rerr := s.recorder.Record(ctx, e); rerr != nil {
		NewLogger(ctx).LogWarnf(op, "audit record failed: %v", rerr)
	}
}

// update runs one load-apply-save cycle for the session.
func (s *ConsoleService) update(ctx context.Context, sessionID string, fn func(context.Context, console.State) console.State) (console.State, error) {
	ctx = requestctx.WithSessionID(ctx, sessionID)

	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return console.State{}, err
	}
	st = fn(ctx, st)
	if err := s.store.Save(ctx, sessionID, st); err != nil {
		return console.State{}, err
	}
	return st, nil
}

// knownProject finds id among the projects the session has seen.
func knownProject(st console.State, id int64) (domain.Project, bool) {
	if st.SearchShows(id) {
		return *st.Search, true
	}
	for _, p := range st.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}

// errorPayload prefers the service's response body over the error text.
func errorPayload(err error) string {
	var se *client.StatusError
	if errors.As(err, &se) && se.Body != "" {
		return fmt.Sprintf("status=%d body=%s", se.StatusCode, se.Body)
	}
	return err.Error()
}

func rejectMessage(err error, id int64) string {
	switch {
	case errors.Is(err, domain.ErrInvalidBudget):
		return "Budget must be a number of 0 or more."
	case errors.Is(err, domain.ErrInvalidStatus):
		return "Unknown project status."
	case errors.Is(err, domain.ErrInvalidProgress):
		return "Progress must be a whole number between 0 and 100."
	case errors.Is(err, domain.ErrNotEditing):
		return fmt.Sprintf("Project #%d is not being edited.", id)
	case errors.Is(err, domain.ErrProjectNotFound):
		return fmt.Sprintf("Project #%d is not listed; refresh and try again.", id)
	}
	return err.Error()
}
