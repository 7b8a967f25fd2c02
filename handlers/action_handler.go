// handlers/action_handler.go
package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/store"
	"github.com/BetJor/plantilla-sub000/utils"
	"github.com/BetJor/plantilla-sub000/websocket"
	"github.com/BetJor/plantilla-sub000/workflow"
)

func CreateAction(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r)
	if actor.ID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "User identity not found")
		return
	}

	var actionData models.Action
	if err := utils.ParseJSON(r, &actionData); err != nil {
		log.Printf("Error decoding request body: %v", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(actionData.Title) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Action title is required")
		return
	}

	created, err := Engine.CreateAction(r.Context(), actionData, actor)
	if err != nil {
		log.Printf("Error creating action: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create action")
		return
	}

	log.Printf("Created action %s by user %s", created.ID, actor.ID)
	websocket.SendActionCreated(created, actor)
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

func ListActions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	isBis := r.URL.Query().Get("isBis")

	// Always return [] not null, never error out on empty
	actions := []models.Action{}
	for _, a := range Actions.List() {
		if status != "" && string(a.Status) != status {
			continue
		}
		if isBis == "true" && !a.IsBis {
			continue
		}
		if isBis == "false" && a.IsBis {
			continue
		}
		actions = append(actions, a)
	}

	utils.RespondWithJSON(w, http.StatusOK, actions)
}

func GetActionByID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	action, err := Actions.Get(vars["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Action not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, action)
}

// GetBisActions returns the ids of BIS actions derived from this action.
func GetBisActions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := Actions.Get(vars["id"]); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Action not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bisActionIds": Actions.BisFor(vars["id"]),
	})
}

func UpdateAction(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r)
	vars := mux.Vars(r)

	var actionData models.Action
	if err := utils.ParseJSON(r, &actionData); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	actionData.ID = vars["id"]

	updated, err := Engine.UpdateAction(r.Context(), actionData, actor)
	if err != nil {
		respondWorkflowError(w, err, "Failed to update action")
		return
	}

	websocket.SendActionUpdated(updated, actor)
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// CanAdvance reports whether the forward transition is currently permitted
// and, if not, which fields are missing.
func CanAdvance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	action, err := Actions.Get(vars["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Action not found")
		return
	}

	missing := Engine.CanAdvance(action)
	if missing == nil {
		missing = []string{}
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"canAdvance": len(missing) == 0,
		"missing":    missing,
	})
}

func AdvanceAction(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r)
	vars := mux.Vars(r)

	before, err := Actions.Get(vars["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Action not found")
		return
	}

	advanced, err := Engine.Advance(r.Context(), vars["id"], actor)
	if err != nil {
		var vErr *workflow.ValidationError
		if errors.As(err, &vErr) {
			utils.RespondWithJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":   "validation failed",
				"missing": vErr.Missing,
			})
			return
		}
		respondWorkflowError(w, err, "Failed to advance action")
		return
	}

	log.Printf("Action %s advanced %s -> %s by %s", advanced.ID, before.Status, advanced.Status, actor.ID)
	websocket.SendStatusChange(advanced.ID, before.Status, advanced.Status, actor)
	utils.RespondWithJSON(w, http.StatusOK, advanced)
}

func AnnulAction(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r)
	vars := mux.Vars(r)

	before, err := Actions.Get(vars["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Action not found")
		return
	}

	annulled, err := Engine.Annul(r.Context(), vars["id"], actor)
	if err != nil {
		respondWorkflowError(w, err, "Failed to annul action")
		return
	}

	log.Printf("Action %s annulled by %s", annulled.ID, actor.ID)
	websocket.SendStatusChange(annulled.ID, before.Status, annulled.Status, actor)
	utils.RespondWithJSON(w, http.StatusOK, annulled)
}

func ListComments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := Actions.Get(vars["id"]); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Action not found")
		return
	}
	comments := Comments.ListForAction(vars["id"])
	if comments == nil {
		comments = []models.Comment{}
	}
	utils.RespondWithJSON(w, http.StatusOK, comments)
}

func AddComment(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r)
	vars := mux.Vars(r)

	var body struct {
		Text string `json:"text"`
	}
	if err := utils.ParseJSON(r, &body); err != nil || strings.TrimSpace(body.Text) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Comment text is required")
		return
	}

	comment, err := Engine.AddComment(r.Context(), vars["id"], actor, body.Text)
	if err != nil {
		respondWorkflowError(w, err, "Failed to add comment")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, comment)
}

// respondWorkflowError maps engine errors onto HTTP statuses.
func respondWorkflowError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrActionNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Action not found")
	case errors.Is(err, workflow.ErrNotAllowed):
		utils.RespondWithError(w, http.StatusForbidden, "You are not allowed to edit this action")
	case errors.Is(err, workflow.ErrTerminalStatus):
		utils.RespondWithError(w, http.StatusConflict, "No transition is possible from the current status")
	default:
		log.Printf("%s: %v", fallback, err)
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
