package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/akozyrev/surveys-api/app"
	"github.com/akozyrev/surveys-api/httpx"
	"github.com/akozyrev/surveys-api/log"
	"github.com/akozyrev/surveys-api/model"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey := model.Survey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		// date_start is server assigned, whatever the payload says
		survey.DateStart = time.Now().UTC()

		err = survey.Validate()
		if err != nil {
			httpx.LogValidationError(w, r, "create_survey.validate", err)
			return
		}

		var surveyId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO survey (title, description, date_start, date_end)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			survey.Title,
			survey.Description,
			survey.DateStart,
			survey.DateEnd.UTC(),
		).Scan(&surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": surveyId,
		})
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `
			SELECT s.id, s.title, s.description, s.date_start, s.date_end
			FROM survey s`
		args := []any{}

		if r.URL.Query().Get("active") == "true" {
			query += `
			WHERE s.date_start <= ? AND s.date_end >= ?`
			now := time.Now().UTC()
			args = append(args, now, now)
		}

		rows, err := app.QueryContext(r.Context(), query, args...)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}
		defer rows.Close()

		surveys := []model.Survey{}
		for rows.Next() {
			s := model.Survey{}
			err = rows.Scan(&s.ID, &s.Title, &s.Description, &s.DateStart, &s.DateEnd)
			if err != nil {
				httpx.LogInternalError(w, "db.get_surveys.scan", err)
				return
			}

			surveys = append(surveys, s)
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey, err := fetchSurvey(app, r, surveyId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		render.JSON(w, r, survey)
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey := model.Survey{}
		err = render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		// date_start is immutable: the UPDATE below never touches it
		err = survey.Validate()
		if err != nil {
			httpx.LogValidationError(w, r, "update_survey.validate", err)
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE survey
			SET
				title = ?,
				description = ?,
				date_end = ?
			WHERE id = ?`,
			survey.Title,
			survey.Description,
			survey.DateEnd.UTC(),
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_survey", surveyId)
			return
		}

		updated, err := fetchSurvey(app, r, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.fetch", err)
			return
		}
		render.JSON(w, r, updated)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		// questions, choices and answers go with it (ON DELETE CASCADE)
		res, err := app.ExecContext(r.Context(), `
			DELETE FROM survey WHERE id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// fetchSurvey loads one survey with its questions and their choice texts.
// Returns sql.ErrNoRows when the survey does not exist.
func fetchSurvey(app app.App, r *http.Request, surveyId int) (model.Survey, error) {
	survey := model.Survey{}
	err := app.QueryRowContext(r.Context(), `
		SELECT s.id, s.title, s.description, s.date_start, s.date_end
		FROM survey s
		WHERE s.id = ?`,
		surveyId,
	).Scan(&survey.ID, &survey.Title, &survey.Description, &survey.DateStart, &survey.DateEnd)
	if err != nil {
		return survey, err
	}

	rows, err := app.QueryContext(r.Context(), `
		SELECT q.id, q.question_text, q.question_type, c.choice_text
		FROM question q
		LEFT OUTER JOIN choice c ON (q.id = c.question_id)
		WHERE q.survey_id = ?
		ORDER BY q.id, c.id`,
		surveyId,
	)
	if err != nil {
		return survey, err
	}
	defer rows.Close()

	for rows.Next() {
		q := model.Question{SurveyID: surveyId, Survey: survey.Title}
		var choiceText sql.NullString
		err = rows.Scan(&q.ID, &q.Text, &q.Type, &choiceText)
		if err != nil {
			return survey, err
		}

		lastIdx := len(survey.Questions) - 1
		if lastIdx > -1 && survey.Questions[lastIdx].ID == q.ID {
			if choiceText.Valid {
				survey.Questions[lastIdx].Choices = append(survey.Questions[lastIdx].Choices, choiceText.String)
			}
		} else {
			if choiceText.Valid {
				q.Choices = append(q.Choices, choiceText.String)
			}
			survey.Questions = append(survey.Questions, q)
		}
	}
	return survey, rows.Err()
}
