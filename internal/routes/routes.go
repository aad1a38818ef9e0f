package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nevalis/whispr-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Get("/api/auth/me", handlers.GetMe)

	// Contact list (every registered user, with live presence)
	r.Get("/api/contacts", handlers.GetContacts)

	// Conversation routes (MongoDB history + Redis Pub/Sub fan-out)
	r.Get("/api/threads", handlers.GetThreads)
	r.Get("/api/threads/messages", handlers.GetThreadMessages)
	r.Post("/api/threads/read", handlers.MarkThreadRead)

	// Avatar upload
	r.Post("/api/upload/avatar", handlers.UploadAvatar)

	// WebSocket endpoint for the live chat gateway
	r.Get("/ws/chat", handlers.ChatWebSocket)
}
