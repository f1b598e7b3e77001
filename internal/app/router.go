package app

import (
	"database/sql"
	"net/http"
	"time"

	"quizadmin/internal/admin"
	"quizadmin/internal/app/observability"
	"quizadmin/internal/auth"
	"quizadmin/internal/question"
	"quizadmin/internal/quiz"
	"quizadmin/internal/taxonomy"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg Config, db *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	collector := observability.NewCollector(db)
	r.Use(collector.Middleware)

	mailer := auth.NewSMTPMailer(auth.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})

	authSvc := auth.NewService(db, auth.ServiceConfig{
		SessionTTL:     time.Duration(cfg.SessionTTLHours) * time.Hour,
		BootstrapToken: cfg.BootstrapToken,
		Mailer:         mailer,
	})
	authHandler := auth.NewHandler(authSvc)

	taxonomyHandler := taxonomy.NewHandler(taxonomy.NewService(db))
	questionHandler := question.NewHandler(question.NewService(db), question.HandlerConfig{
		ExportRowLimit: cfg.ExportRowLimit,
	})
	quizHandler := quiz.NewHandler(quiz.NewService(db))
	adminHandler := admin.NewHandler(admin.NewService(db))

	loginLimiter := NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(pub chi.Router) {
			pub.Use(RateLimitMiddleware(loginLimiter))
			pub.Post("/bootstrap/init", authHandler.BootstrapInit)
			pub.Post("/auth/login", authHandler.Login)
		})

		api.Group(func(secure chi.Router) {
			secure.Use(authHandler.RequireAuth)
			secure.Use(CSRFMiddleware(cfg.CSRFEnforced))

			secure.Get("/auth/me", authHandler.Me)
			secure.Post("/auth/logout", authHandler.Logout)

			// Taxonomy is readable by every signed-in staff role.
			secure.Get("/exams", taxonomyHandler.ListExams)
			secure.Get("/subjects", taxonomyHandler.ListSubjects)
			secure.Get("/topics", taxonomyHandler.ListTopics)
			secure.Get("/subtopics", taxonomyHandler.ListSubtopics)

			secure.Get("/questions", questionHandler.List)
			secure.Get("/questions/export", questionHandler.Export)
			secure.Get("/questions/{id}", questionHandler.Get)
			secure.Get("/comprehension-groups", questionHandler.ListGroups)
			secure.Get("/comprehension-groups/{id}", questionHandler.GetGroup)

			secure.Get("/quizzes", quizHandler.List)
			secure.Get("/quizzes/{id}", quizHandler.Get)

			secure.Group(func(editor chi.Router) {
				editor.Use(authHandler.RequireRoles("admin", "editor"))

				editor.Post("/exams", taxonomyHandler.CreateExam)
				editor.Put("/exams/{id}", taxonomyHandler.UpdateExam)
				editor.Delete("/exams/{id}", taxonomyHandler.DeactivateExam)
				editor.Post("/subjects", taxonomyHandler.CreateSubject)
				editor.Put("/subjects/{id}", taxonomyHandler.UpdateSubject)
				editor.Delete("/subjects/{id}", taxonomyHandler.DeactivateSubject)
				editor.Post("/topics", taxonomyHandler.CreateTopic)
				editor.Put("/topics/{id}", taxonomyHandler.UpdateTopic)
				editor.Delete("/topics/{id}", taxonomyHandler.DeactivateTopic)
				editor.Post("/subtopics", taxonomyHandler.CreateSubtopic)
				editor.Put("/subtopics/{id}", taxonomyHandler.UpdateSubtopic)
				editor.Delete("/subtopics/{id}", taxonomyHandler.DeactivateSubtopic)

				editor.Post("/questions", questionHandler.Create)
				editor.Put("/questions/{id}", questionHandler.Update)
				editor.Delete("/questions/{id}", questionHandler.Delete)
				editor.Post("/comprehension-groups", questionHandler.CreateGroup)
				editor.Put("/comprehension-groups/{id}", questionHandler.UpdateGroup)
				editor.Delete("/comprehension-groups/{id}", questionHandler.DeleteGroup)

				editor.Post("/quizzes", quizHandler.Create)
				editor.Put("/quizzes/{id}", quizHandler.Update)
				editor.Delete("/quizzes/{id}", quizHandler.Delete)
				editor.Post("/sections", quizHandler.CreateSection)
				editor.Put("/sections/{id}", quizHandler.UpdateSection)
				editor.Delete("/sections/{id}", quizHandler.DeleteSection)
				editor.Post("/sections/{id}/questions", quizHandler.AssignQuestion)
				editor.Delete("/sections/{id}/questions/{questionID}", quizHandler.RemoveQuestion)
				editor.Put("/sections/{id}/questions/order", quizHandler.ReorderQuestions)
				editor.Post("/sections/{id}/questions/move", quizHandler.MoveQuestion)
			})

			// Publishing is a reviewer decision.
			secure.Group(func(reviewer chi.Router) {
				reviewer.Use(authHandler.RequireRoles("admin", "reviewer"))
				reviewer.Post("/questions/{id}/publish", questionHandler.Publish)
				reviewer.Post("/questions/{id}/unpublish", questionHandler.Unpublish)
				reviewer.Post("/quizzes/{id}/publish", quizHandler.Publish)
				reviewer.Post("/quizzes/{id}/unpublish", quizHandler.Unpublish)
			})

			secure.Group(func(adm chi.Router) {
				adm.Use(authHandler.RequireRoles("admin"))
				adm.Get("/admin/dashboard", adminHandler.Dashboard)
				adm.Get("/admin/feedback", adminHandler.ListFeedback)
				adm.Post("/admin/feedback/{id}/resolve", adminHandler.ResolveFeedback)
				adm.Get("/admin/question-reports", adminHandler.ListQuestionReports)
				adm.Post("/admin/question-reports/{id}/resolve", adminHandler.ResolveQuestionReport)
				adm.Get("/admin/audit-logs", adminHandler.ListAuditLogs)
				adm.Get("/admin/users", authHandler.ListUsers)
				adm.Post("/admin/users", authHandler.CreateUser)
				adm.Put("/admin/users/{id}", authHandler.UpdateUser)
				adm.Delete("/admin/users/{id}", authHandler.DeactivateUser)
				adm.Get("/admin/users/export", authHandler.ExportUsers)
				adm.Post("/admin/users/import", authHandler.ImportUsers)
			})
		})
	})

	return r
}
