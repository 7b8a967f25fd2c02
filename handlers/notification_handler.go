// handlers/notification_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/store"
	"github.com/BetJor/plantilla-sub000/utils"
)

// ListNotifications returns the notifications addressed to the requesting
// user, or to an explicit recipient for admin/quality roles.
func ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r)

	recipient := actor.ID
	if q := r.URL.Query().Get("recipient"); q != "" && (actor.Role == "admin" || actor.Role == "quality") {
		recipient = q
	}

	notifications := NotificationStore.ListForRecipient(recipient)
	if notifications == nil {
		notifications = []models.Notification{}
	}
	utils.RespondWithJSON(w, http.StatusOK, notifications)
}

func MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := NotificationStore.MarkRead(r.Context(), vars["id"]); err != nil {
		if errors.Is(err, store.ErrNotificationNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Notification not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to mark notification read")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"read": true})
}

// RunDeadlineSweep triggers one pass of the overdue/upcoming-deadline scan
// outside the cron schedule.
func RunDeadlineSweep(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r)
	if actor.Role != "admin" && actor.Role != "quality" {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient role")
		return
	}
	DeadlineSweep.Run(r.Context())
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"completed": true})
}
