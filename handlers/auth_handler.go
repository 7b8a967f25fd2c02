// handlers/auth_handler.go
package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/utils"
)

func Login(w http.ResponseWriter, r *http.Request) {
	if userCollection == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "User database not available")
		return
	}

	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.ParseJSON(r, &credentials); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var user models.User
	err := userCollection.FindOne(r.Context(), bson.M{"email": strings.ToLower(credentials.Email)}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		} else {
			log.Printf("Login lookup failed: %v", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	if !utils.CheckPasswordHash(credentials.Password, user.PasswordHash) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	token, err := utils.GenerateJWT(user.ID.Hex(), name, user.Role)
	if err != nil {
		log.Printf("Token generation failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	log.Printf("User %s logged in", user.Email)
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func Logout(w http.ResponseWriter, r *http.Request) {
	// Stateless tokens: nothing to revoke server-side.
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func ValidateToken(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing token")
		return
	}

	claims, err := utils.ValidateJWT(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"valid":     true,
		"userId":    claims.UserID,
		"name":      claims.Name,
		"role":      claims.Role,
		"expiresAt": claims.ExpiresAt.Format(time.RFC3339),
	})
}
