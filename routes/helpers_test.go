package routes

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
	"github.com/stretchr/testify/require"

	"github.com/akozyrev/surveys-api/app"
	"github.com/akozyrev/surveys-api/config"
	"github.com/akozyrev/surveys-api/database"
	"github.com/akozyrev/surveys-api/httpx"
)

// newTestApp opens a migrated in-memory database unique to the test.
func newTestApp(t *testing.T) app.App {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := config.Config{
		DBUrl:       "file:" + name + "?mode=memory&cache=shared",
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)

	// pin one connection so the shared in-memory db survives pool churn
	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		db.Close()
	})

	return app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
	}
}

func createUser(t *testing.T, db *sql.DB, username string, staff bool) int {
	t.Helper()

	var id int
	err := db.QueryRow(
		"INSERT INTO user (username, password_hash, is_staff) VALUES (?, ?, ?) RETURNING id",
		username, "x", staff,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func createSurvey(t *testing.T, db *sql.DB, title string, start, end time.Time) int {
	t.Helper()

	var id int
	err := db.QueryRow(
		"INSERT INTO survey (title, description, date_start, date_end) VALUES (?, ?, ?, ?) RETURNING id",
		title, title+" description", start.UTC(), end.UTC(),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func createQuestion(t *testing.T, db *sql.DB, surveyId int, text, qType string) int {
	t.Helper()

	var id int
	err := db.QueryRow(
		"INSERT INTO question (survey_id, question_text, question_type) VALUES (?, ?, ?) RETURNING id",
		surveyId, text, qType,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func createChoice(t *testing.T, db *sql.DB, questionId int, text string) int {
	t.Helper()

	var id int
	err := db.QueryRow(
		"INSERT INTO choice (question_id, choice_text) VALUES (?, ?) RETURNING id",
		questionId, text,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// jsonRequest builds a request carrying the given payload, an "id" URL
// parameter when id > 0, and token claims for userId when userId > 0.
func jsonRequest(t *testing.T, method string, payload any, id, userId int) *http.Request {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	r := httptest.NewRequest(method, "/", body)
	ctx := r.Context()

	if id > 0 {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", strconv.Itoa(id))
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	if userId > 0 {
		ctx = context.WithValue(ctx, oauth.ClaimsContext, map[string]string{
			"user_id": strconv.Itoa(userId),
			"roles":   "user",
		})
	}

	return r.WithContext(ctx)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// createdId runs a create handler and returns the id of the new entity.
func createdId(t *testing.T, handler http.HandlerFunc, r *http.Request) int {
	t.Helper()

	w := httptest.NewRecorder()
	handler(w, r)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var resp struct {
		ID int `json:"id"`
	}
	decodeBody(t, w, &resp)
	require.NotZero(t, resp.ID)
	return resp.ID
}

// validationErrors runs a handler expected to fail with 400 and returns the
// field error map.
func validationErrors(t *testing.T, handler http.HandlerFunc, r *http.Request) map[string]string {
	t.Helper()

	w := httptest.NewRecorder()
	handler(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code, "body: %s", w.Body.String())

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decodeBody(t, w, &resp)
	return resp.Errors
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM "+table).Scan(&n))
	return n
}
