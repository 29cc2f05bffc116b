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
	"github.com/akozyrev/surveys-api/routes/middlewares"
)

func CreateAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, ok := middlewares.UserID(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "create_answer.user")
			return
		}

		answer := model.Answer{}
		err := render.DecodeJSON(r.Body, &answer)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		snap, err := answerSnapshot(app, r, answer, userId, 0)
		if err != nil {
			httpx.LogInternalError(w, "db.answer_snapshot", err)
			return
		}

		err = answer.Validate(snap, time.Now().UTC())
		if err != nil {
			httpx.LogValidationError(w, r, "create_answer.validate", err)
			return
		}

		// user is always the requester, whatever the payload says
		var answerId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO answer (user_id, question_id, choice_id, answer_text)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			userId,
			answer.QuestionID,
			answer.ChoiceID,
			nullableText(answer.Text),
		).Scan(&answerId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_answer", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": answerId,
		})
	}
}

func ListAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, ok := middlewares.UserID(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "get_answers.user")
			return
		}

		rows, err := app.QueryContext(r.Context(), answerQuery+`
			WHERE a.user_id = ?
			ORDER BY a.id`,
			userId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_answers", err)
			return
		}
		defer rows.Close()

		answers := []model.Answer{}
		for rows.Next() {
			a, err := scanAnswer(rows)
			if err != nil {
				httpx.LogInternalError(w, "db.get_answers.scan", err)
				return
			}

			answers = append(answers, a)
		}

		render.JSON(w, r, map[string]any{
			"answers": answers,
		})
	}
}

func GetAnswerById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, ok := middlewares.UserID(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "get_answer.user")
			return
		}

		answerId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		// the owner filter makes foreign answers plain 404s
		answer, err := fetchAnswer(app, r, answerId, userId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_answer", answerId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_answer", err)
			return
		}

		render.JSON(w, r, answer)
	}
}

func UpdateAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, ok := middlewares.UserID(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "update_answer.user")
			return
		}

		answerId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		owned, err := rowExists(app, r, "SELECT 1 FROM answer WHERE id = ? AND user_id = ?", answerId, userId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_answer", err)
			return
		}
		if !owned {
			httpx.LogNotFound(w, "update_answer", answerId)
			return
		}

		answer := model.Answer{}
		err = render.DecodeJSON(r.Body, &answer)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		snap, err := answerSnapshot(app, r, answer, userId, answerId)
		if err != nil {
			httpx.LogInternalError(w, "db.answer_snapshot", err)
			return
		}

		err = answer.Validate(snap, time.Now().UTC())
		if err != nil {
			httpx.LogValidationError(w, r, "update_answer.validate", err)
			return
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE answer
			SET
				question_id = ?,
				choice_id = ?,
				answer_text = ?
			WHERE id = ? AND user_id = ?`,
			answer.QuestionID,
			answer.ChoiceID,
			nullableText(answer.Text),
			answerId,
			userId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_answer", err)
			return
		}

		updated, err := fetchAnswer(app, r, answerId, userId)
		if err != nil {
			httpx.LogInternalError(w, "db.update_answer.fetch", err)
			return
		}
		render.JSON(w, r, updated)
	}
}

func DeleteAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, ok := middlewares.UserID(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "delete_answer.user")
			return
		}

		answerId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM answer WHERE id = ? AND user_id = ?`,
			answerId,
			userId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_answer", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_answer.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_answer", answerId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

const answerQuery = `
	SELECT
		a.id, u.username, s.title,
		a.question_id, q.question_text,
		a.choice_id, c.choice_text,
		a.answer_text
	FROM answer a
	INNER JOIN question q ON (q.id = a.question_id)
	INNER JOIN survey s ON (s.id = q.survey_id)
	INNER JOIN user u ON (u.id = a.user_id)
	LEFT OUTER JOIN choice c ON (c.id = a.choice_id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnswer(row rowScanner) (model.Answer, error) {
	a := model.Answer{}
	var choiceId sql.NullInt64
	var choiceText, answerText sql.NullString

	err := row.Scan(
		&a.ID, &a.User, &a.Survey,
		&a.QuestionID, &a.Question,
		&choiceId, &choiceText,
		&answerText,
	)
	if err != nil {
		return a, err
	}

	if choiceId.Valid {
		id := int(choiceId.Int64)
		a.ChoiceID = &id
	}
	a.Choice = choiceText.String
	a.Text = answerText.String
	return a, nil
}

func fetchAnswer(app app.App, r *http.Request, answerId, userId int) (model.Answer, error) {
	row := app.QueryRowContext(r.Context(), answerQuery+`
		WHERE a.id = ? AND a.user_id = ?`,
		answerId,
		userId,
	)
	return scanAnswer(row)
}

// answerSnapshot gathers the datastore state the answer rules run against.
// excludeId > 0 leaves the row being updated out of the duplicate check.
// The check-then-insert sequence is not atomic: two concurrent submissions
// can slip through the window.
func answerSnapshot(app app.App, r *http.Request, answer model.Answer, userId, excludeId int) (snap model.AnswerSnapshot, err error) {
	err = app.QueryRowContext(r.Context(), `
		SELECT q.question_type, s.date_start, s.date_end
		FROM question q
		INNER JOIN survey s ON (s.id = q.survey_id)
		WHERE q.id = ?`,
		answer.QuestionID,
	).Scan(&snap.QuestionType, &snap.SurveyStart, &snap.SurveyEnd)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, nil
	}
	if err != nil {
		return snap, err
	}
	snap.QuestionExists = true

	if answer.ChoiceID != nil {
		ok, err := rowExists(app, r,
			"SELECT 1 FROM choice WHERE id = ? AND question_id = ?",
			*answer.ChoiceID, answer.QuestionID)
		if err != nil {
			return snap, err
		}
		snap.ChoiceMissing = !ok
	}

	if snap.QuestionType == model.TypeManyOptions {
		snap.AlreadyAnswered, err = rowExists(app, r, `
			SELECT 1 FROM answer
			WHERE user_id = ?
				AND question_id = ?
				AND choice_id IS ?
				AND id <> ?`,
			userId, answer.QuestionID, answer.ChoiceID, excludeId)
	} else {
		snap.AlreadyAnswered, err = rowExists(app, r, `
			SELECT 1 FROM answer
			WHERE user_id = ?
				AND question_id = ?
				AND id <> ?`,
			userId, answer.QuestionID, excludeId)
	}
	return snap, err
}

func nullableText(text string) any {
	if text == "" {
		return nil
	}
	return text
}
