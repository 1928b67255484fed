package ui

import (
	"net/http"

	"psycdata/domain/analysis"
	"psycdata/internal/codec"
	"psycdata/internal/errors"
	"psycdata/internal/panel"
	"psycdata/ports"

	"github.com/gin-gonic/gin"
)

type panelVariablesRequest struct {
	Variables []string `json:"variables"`
}

type panelToggleRequest struct {
	Name string `json:"name"`
}

// panelOptionsRequest sets the options present in the body; each must
// belong to the panel's analysis
type panelOptionsRequest struct {
	Sort       *string  `json:"sort"`
	Model      *string  `json:"model"`
	Methods    []string `json:"methods"`
	Tail       *string  `json:"tail"`
	Extraction *string  `json:"extraction"`
	Rotation   *string  `json:"rotation"`
	Criterion  *string  `json:"criterion"`
	Factors    *int     `json:"factors"`
}

func (r panelOptionsRequest) hasFactorOptions() bool {
	return r.Extraction != nil || r.Rotation != nil || r.Criterion != nil || r.Factors != nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *Server) panelController(c *gin.Context) (*panel.Controller, bool) {
	v, _, ok := s.host.View(ports.LabelPanel)
	w, isPanel := v.(*panelWindow)
	if !ok || !isPanel {
		writeError(c, errors.NotFound("panel window"))
		return nil, false
	}
	return w.ctrl, true
}

func (s *Server) handlePanelVariables(c *gin.Context) {
	ctrl, ok := s.panelController(c)
	if !ok {
		return
	}
	var req panelVariablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ParseError("invalid request body", err))
		return
	}
	if err := ctrl.SetVariables(req.Variables); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (s *Server) handlePanelToggle(c *gin.Context) {
	ctrl, ok := s.panelController(c)
	if !ok {
		return
	}
	var req panelToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ParseError("invalid request body", err))
		return
	}
	if _, err := ctrl.Toggle(req.Name); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (s *Server) handlePanelOptions(c *gin.Context) {
	ctrl, ok := s.panelController(c)
	if !ok {
		return
	}
	var req panelOptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ParseError("invalid request body", err))
		return
	}

	var err error
	switch {
	case req.Sort != nil:
		err = ctrl.SetSortOrder(analysis.SortOrder(*req.Sort))
	case req.Model != nil:
		err = ctrl.SetModel(analysis.Model(*req.Model))
	case req.hasFactorOptions():
		err = ctrl.SetFactorOptions(analysis.FactorOptions{
			Extraction:  deref(req.Extraction),
			Rotation:    deref(req.Rotation),
			Criterion:   deref(req.Criterion),
			FactorCount: req.Factors,
		})
	}
	if err == nil && req.Methods != nil {
		methods := make([]analysis.CorrelationMethod, len(req.Methods))
		for i, m := range req.Methods {
			methods[i] = analysis.CorrelationMethod(m)
		}
		err = ctrl.SetMethods(methods)
	}
	if err == nil && req.Tail != nil {
		err = ctrl.SetTailedness(analysis.Tailedness(*req.Tail))
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (s *Server) handlePanelConfirm(c *gin.Context) {
	ctrl, ok := s.panelController(c)
	if !ok {
		return
	}
	req, err := ctrl.Confirm(WithOrigin(c.Request.Context(), ports.LabelPanel))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": codec.EncodePayload(req)})
}

func (s *Server) handlePanelCancel(c *gin.Context) {
	ctrl, ok := s.panelController(c)
	if !ok {
		return
	}
	if err := ctrl.Cancel(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
