package api

import (
	"psycdata/domain/analysis"
)

// Route paths served by Server and called by Client
const (
	RouteHealth      = "/healthz"
	RouteSheets      = "/api/sheets"
	RouteExcel       = "/api/excel"
	RouteDescriptive = "/api/descriptive"
	RouteCorrelation = "/api/correlation"
	RouteReliability = "/api/reliability"
	RouteFiles       = "/api/files"
)

// SheetsRequest asks for the sheet names of a workbook
type SheetsRequest struct {
	Path string `json:"path"`
}

// SheetsResponse lists sheet names in workbook order
type SheetsResponse struct {
	Sheets []string `json:"sheets"`
}

// SheetRequest selects one sheet of a workbook
type SheetRequest struct {
	Path  string `json:"path"`
	Sheet string `json:"sheet"`
}

// AnalysisRequest carries the arguments of the three analysis calls.
// Sort is read only by descriptive, Model only by reliability.
type AnalysisRequest struct {
	Path      string             `json:"path"`
	Sheet     string             `json:"sheet"`
	Variables []string           `json:"variables"`
	Sort      analysis.SortOrder `json:"sort,omitempty"`
	Model     analysis.Model     `json:"model,omitempty"`
}

// SaveRequest writes content to path on the backend host
type SaveRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
