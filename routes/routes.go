package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/akozyrev/surveys-api/app"
	"github.com/akozyrev/surveys-api/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	admin := middlewares.Admin(app.Config)
	authenticated := middlewares.Authenticated(app.Config)

	// reads are public, writes require the admin role
	api.Route("/surveys", func(r chi.Router) {
		r.Get("/", ListSurveys(app))
		r.Get(`/{id:^\d+$}`, GetSurveyById(app))
		r.With(admin).Post("/", CreateSurvey(app))
		r.With(admin).Put(`/{id:^\d+$}`, UpdateSurvey(app))
		r.With(admin).Delete(`/{id:^\d+$}`, DeleteSurvey(app))
	})

	api.Route("/questions", func(r chi.Router) {
		r.Get("/", ListQuestions(app))
		r.Get(`/{id:^\d+$}`, GetQuestionById(app))
		r.With(admin).Post("/", CreateQuestion(app))
		r.With(admin).Put(`/{id:^\d+$}`, UpdateQuestion(app))
		r.With(admin).Delete(`/{id:^\d+$}`, DeleteQuestion(app))
	})

	api.Route("/choices", func(r chi.Router) {
		r.Get("/", ListChoices(app))
		r.Get(`/{id:^\d+$}`, GetChoiceById(app))
		r.With(admin).Post("/", CreateChoice(app))
		r.With(admin).Put(`/{id:^\d+$}`, UpdateChoice(app))
		r.With(admin).Delete(`/{id:^\d+$}`, DeleteChoice(app))
	})

	// answers are visible to their owner only
	api.Route("/answers", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/", ListAnswers(app))
		r.Get(`/{id:^\d+$}`, GetAnswerById(app))
		r.Post("/", CreateAnswer(app))
		r.Put(`/{id:^\d+$}`, UpdateAnswer(app))
		r.Delete(`/{id:^\d+$}`, DeleteAnswer(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}
