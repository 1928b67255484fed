package ui

import (
	"net/http"

	"psycdata/domain/analysis"
	"psycdata/internal/errors"
	"psycdata/internal/tableview"
	"psycdata/ports"

	"github.com/gin-gonic/gin"
)

type tableFileRequest struct {
	Path string `json:"path"`
}

type tableSheetRequest struct {
	Sheet string `json:"sheet"`
}

type tablePanelRequest struct {
	Analysis string `json:"analysis"`
}

func (s *Server) tableController(c *gin.Context) (*tableview.Controller, bool) {
	v, _, ok := s.host.View(ports.LabelTable)
	w, isTable := v.(*tableWindow)
	if !ok || !isTable {
		writeError(c, errors.NotFound("table window"))
		return nil, false
	}
	return w.ctrl, true
}

func (s *Server) handleTableFile(c *gin.Context) {
	ctrl, ok := s.tableController(c)
	if !ok {
		return
	}
	var req tableFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ParseError("invalid request body", err))
		return
	}
	if err := ctrl.SelectFile(c.Request.Context(), req.Path); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (s *Server) handleTableSheet(c *gin.Context) {
	ctrl, ok := s.tableController(c)
	if !ok {
		return
	}
	var req tableSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ParseError("invalid request body", err))
		return
	}
	if err := ctrl.SelectSheet(req.Sheet); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (s *Server) handleTableLoad(c *gin.Context) {
	ctrl, ok := s.tableController(c)
	if !ok {
		return
	}
	if err := ctrl.Load(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (s *Server) handleTableClear(c *gin.Context) {
	ctrl, ok := s.tableController(c)
	if !ok {
		return
	}
	ctrl.Clear()
	c.JSON(http.StatusOK, ctrl.State())
}

func (s *Server) handleTableOpenPanel(c *gin.Context) {
	ctrl, ok := s.tableController(c)
	if !ok {
		return
	}
	var req tablePanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ParseError("invalid request body", err))
		return
	}
	ctx := WithOrigin(c.Request.Context(), ports.LabelTable)
	handle, err := ctrl.OpenPanel(ctx, analysis.Kind(req.Analysis))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": handle})
}
