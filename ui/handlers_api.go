package ui

import (
	"net/http"
	"strconv"

	"psycdata/domain/analysis"
	"psycdata/internal/codec"
	"psycdata/internal/errors"
	"psycdata/ports"

	"github.com/gin-gonic/gin"
)

// openRequest opens or refreshes a window. The payload fields follow the
// load event format.
type openRequest struct {
	Label string `json:"label"`
	codec.Payload
}

type openResponse struct {
	Window  ports.WindowHandle `json:"window"`
	Outcome string             `json:"outcome"`
}

func (s *Server) handleListWindows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"windows": s.windows.Live()})
}

func (s *Server) handleOpenWindow(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ParseError("invalid request body", err))
		return
	}

	var (
		target  string
		payload interface{}
	)
	switch req.Label {
	case ports.LabelTable:
		target = codec.TableURL(s.baseURL)
	case ports.LabelPanel:
		kind := analysis.Kind(req.Analysis)
		target = codec.PanelURL(s.baseURL, req.Path, req.Sheet, kind)
		payload = codec.Payload{Path: req.Path, Sheet: req.Sheet, Analysis: req.Analysis}
	case ports.LabelResult:
		ar := codec.DecodePayload(req.Payload)
		target = codec.ResultURL(s.baseURL, ar)
		payload = codec.EncodePayload(ar)
	default:
		writeError(c, errors.InvalidInput("unknown window label "+strconv.Quote(req.Label)))
		return
	}

	handle, outcome, err := s.windows.OpenOrReuse(c.Request.Context(), req.Label, target, payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, openResponse{Window: handle, Outcome: outcome.String()})
}

func (s *Server) handleListExports(c *gin.Context) {
	if s.exports == nil {
		c.JSON(http.StatusOK, gin.H{"exports": []interface{}{}})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := s.exports.History(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exports": records})
}

type layoutReport struct {
	Width float64 `json:"width"`
}

func (s *Server) handleLayoutReport(c *gin.Context) {
	var req layoutReport
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ParseError("invalid request body", err))
		return
	}
	if req.Width < 0 {
		writeError(c, errors.InvalidInput("width must not be negative"))
		return
	}
	group := c.Param("group")
	c.JSON(http.StatusOK, LayoutEvent{Group: group, Width: s.layout.Report(group, req.Width)})
}
