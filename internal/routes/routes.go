package routes

import (
	"github.com/AnshRaj112/mindnest-backend/internal/handlers"
	"github.com/AnshRaj112/mindnest-backend/internal/middleware"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r *chi.Mux, tokens middleware.TokenParser) {
	auth := middleware.Authenticate(tokens)
	clientOnly := middleware.RequireRole(models.RoleClient)
	therapistOnly := middleware.RequireRole(models.RoleTherapist)

	r.Get("/health", handlers.Health)
	r.Get("/ws/chatbot", handlers.ChatbotWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		// Auth routes
		r.Post("/auth/signup", handlers.Signup)
		r.Post("/auth/login", handlers.Login)
		r.With(auth).Post("/auth/logout", handlers.Logout)

		// Profile routes
		r.Route("/profile", func(r chi.Router) {
			r.Use(auth)
			r.Get("/", handlers.GetProfile)
			r.Put("/", handlers.UpdateProfile)
			r.Delete("/", handlers.DeleteProfile)
			r.Post("/picture", handlers.UploadProfilePicture)
		})

		// Assessment routes
		r.Route("/assessment", func(r chi.Router) {
			r.Get("/metadata", handlers.GetAssessmentMetadata)
			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Get("/", handlers.ListAssessments)
				r.Post("/", handlers.CreateAssessment)
				r.Post("/dynamic", handlers.SubmitDynamicAssessment)
				r.Post("/submit", handlers.SubmitDynamicAssessment)
				r.Get("/{id}", handlers.GetAssessment)
			})
		})

		// Therapist routes
		r.Route("/therapists", func(r chi.Router) {
			r.Get("/", handlers.ListTherapists)
			r.Get("/search/{specialization}", handlers.SearchTherapists)
			r.Group(func(r chi.Router) {
				r.Use(auth, therapistOnly)
				r.Post("/", handlers.CreateTherapist)
				r.Post("/ensure", handlers.EnsureTherapistProfile)
				r.Post("/onboard", handlers.OnboardTherapist)
				r.Get("/profile", handlers.GetMyTherapistProfile)
				r.Get("/stats", handlers.GetTherapistStats)
				r.Get("/clients", handlers.GetTherapistClients)
				r.Get("/clients/assessments", handlers.GetTherapistClientAssessments)
				r.Put("/{id}", handlers.UpdateTherapist)
			})
			r.Get("/{id}", handlers.GetTherapist)
			r.Get("/{id}/availability", handlers.GetTherapistAvailability)
		})

		// Client dashboard routes
		r.Route("/clients", func(r chi.Router) {
			r.Use(auth, clientOnly)
			r.Get("/stats", handlers.GetClientStats)
			r.Get("/assessments/recent", handlers.GetRecentAssessments)
			r.Get("/therapists/recommended", handlers.GetRecommendedTherapists)
		})

		// Appointment routes
		r.Route("/appointments", func(r chi.Router) {
			r.Use(auth)
			r.Get("/", handlers.ListAppointments)
			r.Get("/upcoming", handlers.ListUpcomingAppointments)
			r.With(clientOnly).Get("/client/scheduled", handlers.ListUpcomingAppointments)
			r.With(therapistOnly).Get("/therapist/upcoming", handlers.ListUpcomingAppointments)
			r.Get("/therapist/{therapistId}", handlers.GetTherapistSchedule)
			r.With(clientOnly).Post("/", handlers.BookAppointment)
			r.Get("/{id}", handlers.GetAppointment)
			r.Patch("/{id}/status", handlers.UpdateAppointmentStatus)
			r.Put("/{id}/confirm", handlers.ConfirmAppointment)
			r.Put("/{id}/complete", handlers.CompleteAppointment)
			r.Put("/{id}/cancel", handlers.CancelAppointment)
			r.Put("/{id}/reschedule", handlers.RescheduleAppointment)
			r.Delete("/{id}", handlers.CancelAppointment)
		})

		// Chatbot routes
		r.With(auth, middleware.ChatbotRateLimit).Post("/chatbot/chat", handlers.Chat)

		// Contact us routes
		r.Post("/contact", handlers.SubmitContact)
	})
}
