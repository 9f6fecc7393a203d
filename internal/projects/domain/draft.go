package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultArtisanID is the artisan preselected in the creation form until the
// console knows who is signed in.
const DefaultArtisanID int64 = 1

// dateOnlyLen is the length of an ISO 8601 calendar date (YYYY-MM-DD).
const dateOnlyLen = 10

// CreateDraft holds the creation form exactly as typed.
// Budget and StartDate stay free text until ToRequest.
type CreateDraft struct {
	ArtisanID   int64  `json:"artisanId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Budget      string `json:"budget"`
	StartDate   string `json:"startDate"`
}

// NewCreateDraft returns the blank creation form.
func NewCreateDraft(artisanID int64) CreateDraft {
	if artisanID == 0 {
		artisanID = DefaultArtisanID
	}
	return CreateDraft{ArtisanID: artisanID, Budget: "0"}
}

// ToRequest coerces the draft into the POST /projects body.
// EndDate is never set at creation.
func (d CreateDraft) ToRequest() (CreateProjectRequest, error) {
	budget, err := ParseBudget(d.Budget)
	if err != nil {
		return CreateProjectRequest{}, err
	}
	return CreateProjectRequest{
		ArtisanID:   d.ArtisanID,
		Title:       d.Title,
		Description: d.Description,
		Location:    d.Location,
		Budget:      budget,
		StartDate:   OptionalDate(d.StartDate),
		EndDate:     nil,
	}, nil
}

// EditDraft is the in-place edit of one existing project.
type EditDraft struct {
	ProjectID   int64  `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Budget      string `json:"budget"`
	StartDate   string `json:"startDate"`
}

// EditDraftFrom copies the editable fields of p. The start date is cut down
// to its date-only prefix so it fits a date input.
func EditDraftFrom(p Project) EditDraft {
	return EditDraft{
		ProjectID:   p.ID,
		Title:       p.Title,
		Description: StringValue(p.Description),
		Location:    StringValue(p.Location),
		Budget:      FormatBudget(p.Budget),
		StartDate:   DateOnly(p.StartDate),
	}
}

// ToRequest coerces the draft into the PUT /projects/{id} body.
func (d EditDraft) ToRequest() (UpdateProjectRequest, error) {
	budget, err := ParseBudget(d.Budget)
	if err != nil {
		return UpdateProjectRequest{}, err
	}
	return UpdateProjectRequest{
		Title:       d.Title,
		Description: d.Description,
		Location:    d.Location,
		Budget:      budget,
		StartDate:   OptionalDate(d.StartDate),
		EndDate:     nil,
	}, nil
}

// ParseBudget converts the budget input to a number. Blank input is 0.
func ParseBudget(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidBudget
	}
	return v, nil
}

// FormatBudget renders a budget without trailing zeros.
func FormatBudget(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// OptionalDate maps an empty date input to null.
func OptionalDate(s string) *string {
	return OptionalText(s)
}

// OptionalText maps blank text to null.
func OptionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// DateOnly returns the YYYY-MM-DD prefix of an ISO date or timestamp.
func DateOnly(s *string) string {
	if s == nil {
		return ""
	}
	if len(*s) > dateOnlyLen {
		return (*s)[:dateOnlyLen]
	}
	return *s
}

// ParseSearchID interprets the search box. ok is false when no lookup should
// happen at all: blank, zero or non-numeric input. A non-zero number that is
// not an integer, or does not fit an int64, is reported as ErrMalformedID.
func ParseSearchID(s string) (id int64, ok bool, err error) {
	v, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	// Overflow still yields a number (±Inf), just not a usable id.
	overflow := errors.Is(perr, strconv.ErrRange) && math.IsInf(v, 0)
	if (perr != nil && !overflow) || v == 0 || math.IsNaN(v) {
		return 0, false, nil
	}
	if math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) >= math.MaxInt64 {
		return 0, true, ErrMalformedID
	}
	return int64(v), true, nil
}

// ParseProgress validates a progress percentage input.
func ParseProgress(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 || v > 100 {
		return 0, ErrInvalidProgress
	}
	return v, nil
}
