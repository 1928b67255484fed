package ui

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log"

	"github.com/gin-gonic/gin"
)

var windowTitles = map[string]string{
	"table":  "Data viewer",
	"panel":  "Analysis options",
	"result": "Analysis result",
}

var templateFuncs = template.FuncMap{
	"title": func(label string) string {
		if t, ok := windowTitles[label]; ok {
			return t
		}
		return label
	},
	"json": func(v interface{}) (template.JS, error) {
		data, err := json.Marshal(v)
		return template.JS(data), err
	},
}

// pageData is the input to window.html
type pageData struct {
	Label       string
	State       interface{}
	ActionGroup string
}

// renderTemplate executes a template into a buffer first so a failure
// never leaves a half-written page
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("[UI] Template error for %s: %v", templateName, err)
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(200)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		log.Printf("[UI] Error writing template response: %v", err)
	}
}

func newPageData(label string, state interface{}) pageData {
	return pageData{
		Label:       label,
		State:       state,
		ActionGroup: ActionGroup,
	}
}
