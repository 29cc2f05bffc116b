package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/hashicorp/go-multierror"

	"github.com/akozyrev/surveys-api/log"
	"github.com/akozyrev/surveys-api/model"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// LogValidationError unpacks field errors collected by the model validators
// and sends a 400 response shaped as {"errors": {"field": "message"}}.
func LogValidationError(w http.ResponseWriter, r *http.Request, code string, err error) {
	fields := map[string]string{}

	collect := func(err error) {
		var fieldErr model.FieldError
		if errors.As(err, &fieldErr) {
			fields[fieldErr.Field] = fieldErr.Message
		} else {
			fields["non_field_errors"] = err.Error()
		}
	}

	if merr, ok := err.(*multierror.Error); ok {
		for _, e := range merr.Errors {
			collect(e)
		}
	} else {
		collect(err)
	}

	log.Debugf("%s: %s", code, err)
	w.WriteHeader(http.StatusBadRequest)
	render.JSON(w, r, map[string]any{
		"errors": fields,
	})
}
