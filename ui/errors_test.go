package ui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"psycdata/internal/errors"
	"psycdata/internal/panel"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", errors.ValidationError("select at least one variable"), http.StatusUnprocessableEntity, errors.CodeValidation},
		{"not found", errors.NotFound("result window"), http.StatusNotFound, errors.CodeNotFound},
		{"backend io", errors.IOError("analysis failed", fmt.Errorf("dial tcp: refused")), http.StatusBadGateway, errors.CodeIO},
		{"preview pending", panel.ErrPreviewPending, http.StatusConflict, "UNKNOWN"},
		{"uncoded failure", fmt.Errorf("template exploded"), http.StatusInternalServerError, errors.CodeInternalError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/x", nil)

			writeError(c, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["code"])
			assert.Equal(t, tc.err.Error(), body["error"])
		})
	}
}
