package routes

import (
	"github.com/gorilla/mux"

	"github.com/BetJor/plantilla-sub000/handlers"
	"github.com/BetJor/plantilla-sub000/middleware"
	"github.com/BetJor/plantilla-sub000/websocket"
)

// HTTP method constants for better maintainability
var (
	MethodsGetOnly  = []string{"GET", "OPTIONS"}
	MethodsPostOnly = []string{"POST", "OPTIONS"}
	MethodsPutOnly  = []string{"PUT", "OPTIONS"}
)

const (
	PathAPI    = "/api"
	PathHealth = "/health"
)

func RegisterRoutes(r *mux.Router) {
	// ====================
	// PUBLIC ROUTES
	// ====================
	r.HandleFunc(PathHealth, handlers.HealthCheck).Methods(MethodsGetOnly...)
	r.HandleFunc("/api/auth/login", handlers.Login).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/logout", handlers.Logout).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/validate", handlers.ValidateToken).Methods(MethodsGetOnly...)
	r.HandleFunc("/ws", websocket.HandleWebSocket)

	// ====================
	// PROTECTED API ROUTES
	// ====================
	apiRouter := r.PathPrefix(PathAPI).Subrouter()
	apiRouter.Use(middleware.AuthMiddleware)

	// Users
	apiRouter.HandleFunc("/users", handlers.ListUsers).Methods(MethodsGetOnly...)

	// Corrective actions. No DELETE: annulment is a terminal status, not a
	// deletion.
	apiRouter.HandleFunc("/actions", handlers.ListActions).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/actions", handlers.CreateAction).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/actions/{id}", handlers.GetActionByID).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/actions/{id}", handlers.UpdateAction).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/actions/{id}/can-advance", handlers.CanAdvance).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/actions/{id}/advance", handlers.AdvanceAction).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/actions/{id}/annul", handlers.AnnulAction).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/actions/{id}/bis", handlers.GetBisActions).Methods(MethodsGetOnly...)

	// Comments
	apiRouter.HandleFunc("/actions/{id}/comments", handlers.ListComments).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/actions/{id}/comments", handlers.AddComment).Methods(MethodsPostOnly...)

	// AI collaborators
	apiRouter.HandleFunc("/actions/{id}/similarity-check", handlers.CheckSimilarity).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/actions/{id}/suggestions", handlers.GenerateSuggestions).Methods(MethodsPostOnly...)

	// Notifications
	apiRouter.HandleFunc("/notifications", handlers.ListNotifications).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/notifications/{id}/read", handlers.MarkNotificationRead).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/notifications/sweep", handlers.RunDeadlineSweep).Methods(MethodsPostOnly...)

	// Audit log
	apiRouter.HandleFunc("/audit", handlers.ListAuditEntries).Methods(MethodsGetOnly...)
}
