package domain

// Status is the lifecycle state of a project as reported by the Project Service.
// Values outside the known set are kept verbatim and rendered as-is.
type Status string

const (
	StatusPlanned    Status = "PLANNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Statuses lists the transitions offered by the console, in display order.
var Statuses = []Status{StatusPlanned, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Label is the button caption for a known status.
func (s Status) Label() string {
	switch s {
	case StatusPlanned:
		return "Planned"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

// Project is a construction job listing owned by an artisan.
// The console only ever holds snapshots of it; the Project Service is authoritative.
type Project struct {
	ID          int64   `json:"id"`
	ArtisanID   int64   `json:"artisanId"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	Budget      float64 `json:"budget"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	Status      Status  `json:"status,omitempty"`
}

// ProgressUpdate is a site progress report attached to a project.
// CreatedAt is the service's local timestamp text, which carries no zone.
type ProgressUpdate struct {
	ID              int64   `json:"id"`
	ProgressPercent int     `json:"progressPercent"`
	Note            *string `json:"note,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

// CreateProjectRequest is the body of POST /projects.
// StartDate and EndDate are always serialized, as null when unset.
type CreateProjectRequest struct {
	ArtisanID   int64   `json:"artisanId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Budget      float64 `json:"budget"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
}

// UpdateProjectRequest is the body of PUT /projects/{id}.
type UpdateProjectRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Budget      float64 `json:"budget"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
}

// UpdateStatusRequest is the body of PATCH /projects/{id}/status.
type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

// CreateProgressUpdateRequest is the body of POST /projects/{id}/updates.
type CreateProgressUpdateRequest struct {
	ProgressPercent int     `json:"progressPercent"`
	Note            *string `json:"note,omitempty"`
}

// StringValue dereferences an optional text field.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
