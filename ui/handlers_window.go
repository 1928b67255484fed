package ui

import (
	"net/http"
	"time"

	"psycdata/internal/errors"
	"psycdata/internal/sse"
	"psycdata/ports"

	"github.com/gin-gonic/gin"
)

func knownLabel(label string) bool {
	switch label {
	case ports.LabelTable, ports.LabelPanel, ports.LabelResult:
		return true
	}
	return false
}

// handleWindowPage renders a window. Navigating to a window that is not
// live registers it, bootstrapping its view from the URL.
func (s *Server) handleWindowPage(c *gin.Context) {
	label := c.Param("label")
	if !knownLabel(label) {
		writeError(c, errors.NotFound("window "+label))
		return
	}

	if _, _, ok := s.host.View(label); !ok {
		target := s.baseURL + c.Request.URL.RequestURI()
		if _, _, err := s.windows.OpenOrReuse(withDirectNavigation(c.Request.Context()), label, target, nil); err != nil {
			writeError(c, err)
			return
		}
	}
	v, _, ok := s.host.View(label)
	if !ok {
		writeError(c, errors.NotFound("window "+label))
		return
	}
	s.renderTemplate(c, "window.html", newPageData(label, v.Snapshot()))
}

func (s *Server) handleWindowState(c *gin.Context) {
	v, ok := s.liveView(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, v.Snapshot())
}

func (s *Server) handleWindowEvents(c *gin.Context) {
	label := c.Param("label")
	v, ok := s.liveView(c)
	if !ok {
		return
	}
	initial := &sse.Event{Channel: label, Type: sse.EventState, Data: v.Snapshot(), Timestamp: time.Now()}
	s.hub.HandleSSE(c, initial, label, sse.Broadcast)
}

func (s *Server) handleWindowClose(c *gin.Context) {
	label := c.Param("label")
	if !knownLabel(label) {
		writeError(c, errors.NotFound("window "+label))
		return
	}
	if err := s.windows.Close(c.Request.Context(), label); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) liveView(c *gin.Context) (view, bool) {
	label := c.Param("label")
	v, _, ok := s.host.View(label)
	if !ok {
		writeError(c, errors.NotFound(label+" window"))
		return nil, false
	}
	return v, true
}
