package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/akozyrev/surveys-api/app"
	"github.com/akozyrev/surveys-api/httpx"
	"github.com/akozyrev/surveys-api/log"
	"github.com/akozyrev/surveys-api/model"
)

func CreateChoice(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		choice := model.Choice{}
		err := render.DecodeJSON(r.Body, &choice)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		questionExists, err := rowExists(app, r, "SELECT 1 FROM question WHERE id = ?", choice.QuestionID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_question", err)
			return
		}

		err = choice.Validate(questionExists)
		if err != nil {
			httpx.LogValidationError(w, r, "create_choice.validate", err)
			return
		}

		var choiceId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO choice (question_id, choice_text)
			VALUES (?, ?)
			RETURNING id`,
			choice.QuestionID,
			choice.Text,
		).Scan(&choiceId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_choice", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": choiceId,
		})
	}
}

func ListChoices(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT c.id, c.question_id, q.question_text, c.choice_text
			FROM choice c
			INNER JOIN question q ON (q.id = c.question_id)
			ORDER BY c.id`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_choices", err)
			return
		}
		defer rows.Close()

		choices := []model.Choice{}
		for rows.Next() {
			c := model.Choice{}
			err = rows.Scan(&c.ID, &c.QuestionID, &c.Question, &c.Text)
			if err != nil {
				httpx.LogInternalError(w, "db.get_choices.scan", err)
				return
			}

			choices = append(choices, c)
		}

		render.JSON(w, r, map[string]any{
			"choices": choices,
		})
	}
}

func GetChoiceById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		choiceId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		choice, err := fetchChoice(app, r, choiceId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_choice", choiceId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_choice", err)
			return
		}

		render.JSON(w, r, choice)
	}
}

func UpdateChoice(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		choiceId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		choice := model.Choice{}
		err = render.DecodeJSON(r.Body, &choice)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		questionExists, err := rowExists(app, r, "SELECT 1 FROM question WHERE id = ?", choice.QuestionID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_question", err)
			return
		}

		err = choice.Validate(questionExists)
		if err != nil {
			httpx.LogValidationError(w, r, "update_choice.validate", err)
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE choice
			SET
				question_id = ?,
				choice_text = ?
			WHERE id = ?`,
			choice.QuestionID,
			choice.Text,
			choiceId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_choice", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_choice.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_choice", choiceId)
			return
		}

		updated, err := fetchChoice(app, r, choiceId)
		if err != nil {
			httpx.LogInternalError(w, "db.update_choice.fetch", err)
			return
		}
		render.JSON(w, r, updated)
	}
}

func DeleteChoice(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		choiceId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM choice WHERE id = ?`,
			choiceId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_choice", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_choice.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_choice", choiceId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func fetchChoice(app app.App, r *http.Request, choiceId int) (model.Choice, error) {
	choice := model.Choice{}
	err := app.QueryRowContext(r.Context(), `
		SELECT c.id, c.question_id, q.question_text, c.choice_text
		FROM choice c
		INNER JOIN question q ON (q.id = c.question_id)
		WHERE c.id = ?`,
		choiceId,
	).Scan(&choice.ID, &choice.QuestionID, &choice.Question, &choice.Text)
	return choice, err
}
