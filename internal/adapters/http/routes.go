package web

import (
	"net/http"

	"churchconsole/internal/adapters/http/middleware"
)

// registerRoutes maps every console route. Everything under /api/ needs a
// signed-in operator.
func (s *server) registerRoutes(mux *http.ServeMux) {
	public := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, noteRoute(pattern, h))
	}
	private := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, noteRoute(pattern, middleware.RequireAuth(h)))
	}

	public("GET /health", handleHealth)
	public("POST /login", s.handleLogin)
	private("POST /logout", s.handleLogout)
	private("GET /api/me", handleMe)

	// Overview
	private("GET /api/dashboard", handleDashboard)
	private("GET /api/search", handleGlobalSearch)

	// Members
	private("GET /api/members", handleMemberList)
	private("GET /api/members/{id}", handleMemberProfile)
	private("PUT /api/members/{id}/ministry", handleAssignMinistry)
	private("POST /api/members/{id}/deletion", handleRequestMemberDeletion)

	// Ministries
	private("GET /api/ministries", handleMinistryList)
	private("POST /api/ministries", handleCreateMinistry)
	private("POST /api/ministries/{id}/deletion", handleRequestMinistryDeletion)

	// Deletion confirmations
	private("POST /api/deletions/{rid}/confirm", handleConfirmDeletion)
	private("POST /api/deletions/{rid}/cancel", handleCancelDeletion)

	// Registration wizard
	private("POST /api/registrations", handleOpenRegistration)
	private("GET /api/registrations/{id}", handleGetRegistration)
	private("PATCH /api/registrations/{id}", handleEditRegistration)
	private("DELETE /api/registrations/{id}", handleCancelRegistration)
	private("POST /api/registrations/{id}/next", handleRegistrationNext)
	private("POST /api/registrations/{id}/back", handleRegistrationBack)
	private("POST /api/registrations/{id}/step/{n}", handleRegistrationGoTo)
	private("POST /api/registrations/{id}/children", handleAppendChild)
	private("DELETE /api/registrations/{id}/children/{i}", handleRemoveChild)
	private("PUT /api/registrations/{id}/photo", s.handleRegistrationPhoto)
	private("POST /api/registrations/{id}/submit", handleSubmitRegistration)

	// Events and attendance sign-in
	private("GET /api/events", handleEventList)
	private("POST /api/events", handleCreateEvent)
	private("GET /api/signin", handleSignInView)
	private("DELETE /api/signin", handleEndSignIn)
	private("POST /api/signin/event", handleOpenSignIn)
	private("POST /api/signin/sunday", handleStartSunday)
	private("POST /api/signin/toggle", handleToggleAttendance)
	private("POST /api/signin/visitors", handleRecordVisitor)
	private("PUT /api/signin/tab", handleSignInTab)
}

// noteRoute labels the request with pattern for timing and metrics.
func noteRoute(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.NoteRoute(r.Context(), pattern)
		next.ServeHTTP(w, r)
	})
}
