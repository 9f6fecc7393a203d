package http

import (
	"net/http"

	"github.com/bmp-tn/project-admin/internal/requestctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookie names the cookie that keys the console state.
const SessionCookie = "bmp_console"

const sessionKey = "session_id"

// session makes sure the request carries a console session, issuing a new
// cookie when the browser has none or sent a malformed one.
func (h *Handler) session(c *gin.Context) {
	sid, err := c.Cookie(SessionCookie)
	if err != nil || uuid.Validate(sid) != nil {
		sid = uuid.NewString()
	}

	// Refresh on every request so the cookie outlives the last activity.
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	c.Set(sessionKey, sid)
	c.Request = c.Request.WithContext(requestctx.WithSessionID(c.Request.Context(), sid))
	c.Next()
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
