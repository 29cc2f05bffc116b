package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akozyrev/surveys-api/model"
)

func TestLogValidationError(t *testing.T) {
	var errs *multierror.Error
	errs = multierror.Append(errs,
		model.FieldError{Field: "title", Message: "must not be empty"},
		model.FieldError{Field: "date_end", Message: "must be a valid timestamp"},
	)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/", nil)
	LogValidationError(w, r, "test.validate", errs.ErrorOrNil())

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]string{
		"title":    "must not be empty",
		"date_end": "must be a valid timestamp",
	}, resp.Errors)
}

func TestLogValidationErrorSingleFieldError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/", nil)
	LogValidationError(w, r, "test.validate", model.FieldError{Field: "question_id", Message: "survey is closed"})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "survey is closed", resp.Errors["question_id"])
}
