package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bmp-tn/project-admin/internal/logger"
	"github.com/bmp-tn/project-admin/internal/projects/console"
	"github.com/bmp-tn/project-admin/internal/projects/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// showConsole renders the console and consumes the queued notices.
func (h *Handler) showConsole(c *gin.Context) {
	st, notices, err := h.console.View(c.Request.Context(), sessionID(c))
	if err != nil {
		h.stateUnavailable(c, err)
		return
	}
	c.Render(http.StatusOK, render.HTML{
		Template: h.tmpl,
		Name:     "console.html",
		Data:     newConsolePage(st, notices),
	})
}

func (h *Handler) refresh(c *gin.Context) {
	_, err := h.console.Refresh(c.Request.Context(), sessionID(c))
	h.backToConsole(c, err)
}

func (h *Handler) filter(c *gin.Context) {
	var form filterForm
	if !bindForm(c, &form) {
		return
	}

	// Blank or unparsable input lists every artisan.
	artisanID, _ := strconv.ParseInt(strings.TrimSpace(form.ArtisanID), 10, 64)
	if artisanID < 0 {
		artisanID = 0
	}
	_, err := h.console.FilterByArtisan(c.Request.Context(), sessionID(c), artisanID)
	h.backToConsole(c, err)
}

func (h *Handler) create(c *gin.Context) {
	var form createForm
	if !bindForm(c, &form) {
		return
	}

	artisanID, err := strconv.ParseInt(strings.TrimSpace(form.ArtisanID), 10, 64)
	if err != nil || artisanID <= 0 {
		artisanID = domain.DefaultArtisanID
	}
	draft := domain.CreateDraft{
		ArtisanID:   artisanID,
		Title:       form.Title,
		Description: form.Description,
		Location:    form.Location,
		Budget:      form.Budget,
		StartDate:   form.StartDate,
	}
	_, err = h.console.Create(c.Request.Context(), sessionID(c), draft)
	h.backToConsole(c, err)
}

func (h *Handler) search(c *gin.Context) {
	var form searchForm
	if !bindForm(c, &form) {
		return
	}

	_, err := h.console.Find(c.Request.Context(), sessionID(c), form.ID)
	h.backToConsole(c, err)
}

func (h *Handler) clearSearch(c *gin.Context) {
	_, err := h.console.ClearSearch(c.Request.Context(), sessionID(c))
	h.backToConsole(c, err)
}

func (h *Handler) loadUpdates(c *gin.Context) {
	_, err := h.console.LoadUpdates(c.Request.Context(), sessionID(c))
	h.backToConsole(c, err)
}

func (h *Handler) startEdit(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	_, err := h.console.StartEdit(c.Request.Context(), sessionID(c), id)
	h.backToConsole(c, err)
}

func (h *Handler) saveEdit(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var form editForm
	if !bindForm(c, &form) {
		return
	}

	draft := domain.EditDraft{
		ProjectID:   id,
		Title:       form.Title,
		Description: form.Description,
		Location:    form.Location,
		Budget:      form.Budget,
		StartDate:   form.StartDate,
	}
	_, err := h.console.SaveEdit(c.Request.Context(), sessionID(c), draft)
	h.backToConsole(c, err)
}

func (h *Handler) cancelEdit(c *gin.Context) {
	if _, ok := projectID(c); !ok {
		return
	}
	_, err := h.console.CancelEdit(c.Request.Context(), sessionID(c))
	h.backToConsole(c, err)
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var form statusForm
	if !bindForm(c, &form) {
		return
	}

	_, err := h.console.UpdateStatus(c.Request.Context(), sessionID(c), id, domain.Status(form.Status))
	h.backToConsole(c, err)
}

// confirmDelete asks before deleting; nothing is sent to the Project Service.
func (h *Handler) confirmDelete(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	st, err := h.console.State(c.Request.Context(), sessionID(c))
	if err != nil {
		h.stateUnavailable(c, err)
		return
	}
	c.Render(http.StatusOK, render.HTML{
		Template: h.tmpl,
		Name:     "confirm_delete.html",
		Data:     confirmPage{ID: id, Project: findListed(st, id)},
	})
}

// delete only acts on an explicit confirmation; anything else is a cancel.
func (h *Handler) delete(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var form deleteForm
	if !bindForm(c, &form) {
		return
	}
	if form.Confirm != "yes" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	_, err := h.console.Delete(c.Request.Context(), sessionID(c), id)
	h.backToConsole(c, err)
}

func (h *Handler) addUpdate(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var form progressForm
	if !bindForm(c, &form) {
		return
	}

	_, err := h.console.AddUpdate(c.Request.Context(), sessionID(c), id, form.ProgressPercent, form.Note)
	h.backToConsole(c, err)
}

// snapshot returns the session state as JSON without consuming notices.
func (h *Handler) snapshot(c *gin.Context) {
	st, err := h.console.State(c.Request.Context(), sessionID(c))
	if err != nil {
		logger.Get().Error("load console state", "session_id", sessionID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "console state unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID(c), "state": st})
}

// backToConsole finishes a form post with a 303 to the console page.
func (h *Handler) backToConsole(c *gin.Context, err error) {
	if err != nil {
		h.stateUnavailable(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) stateUnavailable(c *gin.Context, err error) {
	logger.Get().Error("console state unavailable",
		"session_id", sessionID(c),
		"path", c.Request.URL.Path,
		"error", err,
	)
	c.String(http.StatusInternalServerError, "The console is temporarily unavailable. Please retry.")
}

// projectID parses the :id path segment, answering 400 when it is not a number.
func projectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid project id")
		return 0, false
	}
	return id, true
}

// bindForm decodes the posted form, answering 400 when the body cannot be parsed.
func bindForm(c *gin.Context, form any) bool {
	if err := c.ShouldBind(form); err != nil {
		logger.Get().Debug("bind form",
			"session_id", sessionID(c),
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.String(http.StatusBadRequest, "invalid form")
		return false
	}
	return true
}

func findListed(st console.State, id int64) *domain.Project {
	if st.SearchShows(id) {
		return st.Search
	}
	for i := range st.Projects {
		if st.Projects[i].ID == id {
			return &st.Projects[i]
		}
	}
	return nil
}
