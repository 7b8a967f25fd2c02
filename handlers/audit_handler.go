// handlers/audit_handler.go
package handlers

import (
	"net/http"

	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/utils"
)

// ListAuditEntries returns the retained audit trail, optionally filtered by
// action id. Oldest first, as stored.
func ListAuditEntries(w http.ResponseWriter, r *http.Request) {
	actionID := r.URL.Query().Get("actionId")

	var entries []models.AuditEntry
	if actionID != "" {
		entries = AuditLog.ListForAction(actionID)
	} else {
		entries = AuditLog.List()
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	utils.RespondWithJSON(w, http.StatusOK, entries)
}
