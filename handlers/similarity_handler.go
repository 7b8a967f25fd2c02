// handlers/similarity_handler.go
package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BetJor/plantilla-sub000/similarity"
	"github.com/BetJor/plantilla-sub000/utils"
)

// CheckSimilarity runs the duplicate detector for one action and, on any
// completed invocation (matches or none), marks the action as checked. A
// failed invocation leaves hasCheckedSimilarity untouched so the analysis
// stage stays gated.
func CheckSimilarity(w http.ResponseWriter, r *http.Request) {
	if Detector == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable,
			"Similarity check unavailable: no AI credential configured")
		return
	}

	actor := actorFromContext(r)
	vars := mux.Vars(r)

	action, err := Actions.Get(vars["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Action not found")
		return
	}

	candidate := similarity.Candidate{
		ID:          action.ID,
		Title:       action.Title,
		Description: action.Description,
		Type:        action.Type,
		Category:    action.Category,
		Centre:      action.Centre,
		Department:  action.Department,
	}

	matches, err := Detector.Compare(r.Context(), candidate, Actions.List())
	if err != nil {
		log.Printf("Similarity check failed for %s: %v", action.ID, err)
		utils.RespondWithError(w, http.StatusBadGateway, "Similarity check failed, please retry")
		return
	}
	if matches == nil {
		matches = []similarity.Match{}
	}

	updated, err := Engine.MarkSimilarityChecked(r.Context(), action.ID, actor)
	if err != nil {
		respondWorkflowError(w, err, "Failed to record similarity check")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"matches":              matches,
		"hasCheckedSimilarity": updated.HasCheckedSimilarity,
	})
}

// GenerateSuggestions asks the AI collaborator for draft proposed-action
// items. Malformed model output degrades to the text parser inside the
// suggester, so this only fails on transport or credential problems.
func GenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	if Suggester == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable,
			"Suggestions unavailable: no AI credential configured")
		return
	}

	vars := mux.Vars(r)
	action, err := Actions.Get(vars["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Action not found")
		return
	}

	items, err := Suggester.ProposeActions(r.Context(), action)
	if err != nil {
		log.Printf("Suggestion generation failed for %s: %v", action.ID, err)
		utils.RespondWithError(w, http.StatusBadGateway, "Suggestion generation failed, please retry")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"proposedActions": items,
	})
}
