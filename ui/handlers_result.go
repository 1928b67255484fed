package ui

import (
	"fmt"
	"net/http"

	"psycdata/app"
	"psycdata/domain/history"
	"psycdata/internal/errors"
	"psycdata/internal/result"
	"psycdata/ports"

	"github.com/gin-gonic/gin"
)

type exportRequest struct {
	Path   string                 `json:"path"`
	Format string                 `json:"format"`
	Meta   map[string]interface{} `json:"meta"`
}

func (s *Server) resultLoader(c *gin.Context) (*result.Loader, bool) {
	v, _, ok := s.host.View(ports.LabelResult)
	w, isResult := v.(*resultWindow)
	if !ok || !isResult {
		writeError(c, errors.NotFound("result window"))
		return nil, false
	}
	return w.loader, true
}

// exportSource builds the export request for the current result
func (s *Server) exportSource(c *gin.Context) (app.ExportRequest, bool) {
	if s.exports == nil {
		writeError(c, errors.NotFound("export service"))
		return app.ExportRequest{}, false
	}
	loader, ok := s.resultLoader(c)
	if !ok {
		return app.ExportRequest{}, false
	}
	t, ok := loader.Table()
	if !ok {
		writeError(c, errors.ValidationError("there is no result to export"))
		return app.ExportRequest{}, false
	}
	req := loader.Request()
	return app.ExportRequest{
		Analysis:  string(req.Kind),
		Sheet:     req.Sheet,
		Variables: req.Variables,
		Table:     t,
	}, true
}

func (s *Server) handleResultExport(c *gin.Context) {
	var body exportRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, errors.ParseError("invalid request body", err))
		return
	}
	req, ok := s.exportSource(c)
	if !ok {
		return
	}
	req.Path = body.Path
	req.Format = history.Format(body.Format)
	req.Meta = body.Meta

	rec, err := s.exports.Export(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"export": rec})
}

// handleResultDownload returns the export as an attachment instead of
// writing it on the host
func (s *Server) handleResultDownload(c *gin.Context) {
	req, ok := s.exportSource(c)
	if !ok {
		return
	}
	req.Format = history.Format(c.DefaultQuery("format", string(history.FormatCSV)))

	content, format, err := s.exports.Render(req)
	if err != nil {
		writeError(c, err)
		return
	}
	contentType := "text/csv; charset=utf-8"
	if format == history.FormatJSON {
		contentType = "application/json; charset=utf-8"
	}
	name := req.Analysis
	if name == "" {
		name = "sheet"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-result%s"`, name, format.Extension()))
	c.Data(http.StatusOK, contentType, []byte(content))
}
