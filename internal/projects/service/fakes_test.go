package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/bmp-tn/project-admin/internal/audit"
	"github.com/bmp-tn/project-admin/internal/projects/client"
	"github.com/bmp-tn/project-admin/internal/projects/domain"
)

// fakeProjects is an in-memory Project Service that counts calls.
type fakeProjects struct {
	mu       sync.Mutex
	nextID   int64
	projects map[int64]domain.Project
	updates  map[int64][]domain.ProgressUpdate
	calls    map[string]int
	fail     map[string]error

	lastCreate domain.CreateProjectRequest
	lastUpdate domain.UpdateProjectRequest
}

func newFakeProjects(seed ...domain.Project) *fakeProjects {
	f := &fakeProjects{
		nextID:   1,
		projects: make(map[int64]domain.Project),
		updates:  make(map[int64][]domain.ProgressUpdate),
		calls:    make(map[string]int),
		fail:     make(map[string]error),
	}
	for _, p := range seed {
		f.projects[p.ID] = p
		if p.ID >= f.nextID {
			f.nextID = p.ID + 1
		}
	}
	return f
}

func (f *fakeProjects) hit(op string) error {
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeProjects) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeProjects) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeProjects) sorted() []domain.Project {
	out := make([]domain.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func notFound(op string) error {
	return &client.StatusError{Op: op, StatusCode: 404, Body: `{"message":"Project not found"}`}
}

func (f *fakeProjects) List(context.Context) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("list"); err != nil {
		return nil, err
	}
	return f.sorted(), nil
}

func (f *fakeProjects) ListByArtisan(_ context.Context, artisanID int64) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("list_by_artisan"); err != nil {
		return nil, err
	}
	var out []domain.Project
	for _, p := range f.sorted() {
		if p.ArtisanID == artisanID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjects) Get(_ context.Context, id int64) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("get"); err != nil {
		return nil, err
	}
	p, ok := f.projects[id]
	if !ok {
		return nil, notFound("get")
	}
	return &p, nil
}

func (f *fakeProjects) Create(_ context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("create"); err != nil {
		return nil, err
	}
	f.lastCreate = req
	p := domain.Project{
		ID:        f.nextID,
		ArtisanID: req.ArtisanID,
		Title:     req.Title,
		Budget:    req.Budget,
		StartDate: req.StartDate,
		Status:    domain.StatusPlanned,
	}
	f.nextID++
	f.projects[p.ID] = p
	return &p, nil
}

func (f *fakeProjects) Update(_ context.Context, id int64, req domain.UpdateProjectRequest) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("update"); err != nil {
		return nil, err
	}
	p, ok := f.projects[id]
	if !ok {
		return nil, notFound("update")
	}
	f.lastUpdate = req
	p.Title = req.Title
	p.Description = &req.Description
	p.Location = &req.Location
	p.Budget = req.Budget
	p.StartDate = req.StartDate
	p.EndDate = req.EndDate
	f.projects[id] = p
	return &p, nil
}

func (f *fakeProjects) UpdateStatus(_ context.Context, id int64, status domain.Status) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("update_status"); err != nil {
		return nil, err
	}
	p, ok := f.projects[id]
	if !ok {
		return nil, notFound("update_status")
	}
	p.Status = status
	f.projects[id] = p
	return &p, nil
}

func (f *fakeProjects) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("delete"); err != nil {
		return err
	}
	if _, ok := f.projects[id]; !ok {
		return notFound("delete")
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeProjects) AddUpdate(_ context.Context, id int64, req domain.CreateProgressUpdateRequest) (*domain.ProgressUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("add_update"); err != nil {
		return nil, err
	}
	if _, ok := f.projects[id]; !ok {
		return nil, notFound("add_update")
	}
	u := domain.ProgressUpdate{ID: int64(len(f.updates[id]) + 1), ProgressPercent: req.ProgressPercent, Note: req.Note}
	f.updates[id] = append(f.updates[id], u)
	return &u, nil
}

func (f *fakeProjects) ListUpdates(_ context.Context, id int64) ([]domain.ProgressUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("list_updates"); err != nil {
		return nil, err
	}
	return append([]domain.ProgressUpdate(nil), f.updates[id]...), nil
}

// memRecorder keeps audit entries in memory.
type memRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memRecorder) Record(_ context.Context, e audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

var errUpstream = errors.New("connection refused")
