// handlers/user_handler.go
package handlers

import (
	"log"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/utils"
)

// ListUsers returns the users that can be assigned as responsible parties
// or notification recipients.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	if userCollection == nil {
		utils.RespondWithJSON(w, http.StatusOK, []models.User{})
		return
	}

	cursor, err := userCollection.Find(r.Context(), bson.M{})
	if err != nil {
		log.Printf("Mongo Find error for users: %v", err)
		utils.RespondWithJSON(w, http.StatusOK, []models.User{})
		return
	}
	defer cursor.Close(r.Context())

	var users []models.User
	if err = cursor.All(r.Context(), &users); err != nil {
		log.Printf("Cursor decode error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode users")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	utils.RespondWithJSON(w, http.StatusOK, users)
}
