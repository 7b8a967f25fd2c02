// handlers/services.go
package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/BetJor/plantilla-sub000/audit"
	"github.com/BetJor/plantilla-sub000/config"
	"github.com/BetJor/plantilla-sub000/database"
	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/notifications"
	"github.com/BetJor/plantilla-sub000/similarity"
	"github.com/BetJor/plantilla-sub000/store"
	"github.com/BetJor/plantilla-sub000/websocket"
	"github.com/BetJor/plantilla-sub000/workflow"
)

var (
	Actions           *store.ActionStore
	Comments          *store.CommentStore
	NotificationStore *store.NotificationStore
	AuditLog          *store.AuditStore
	Engine            *workflow.Engine
	Dispatcher        *notifications.Dispatcher
	Recorder          *audit.Recorder
	DeadlineSweep     *notifications.Sweep

	// Nil when OPENAI_API_KEY is not configured; the similarity and
	// suggestion endpoints then answer with a configuration error.
	Detector  similarity.Detector
	Suggester *similarity.Suggester

	userCollection *mongo.Collection
)

// InitServices wires the stores, the workflow engine and its collaborators
// on top of the given blob backend. Called once at startup.
func InitServices(ctx context.Context, blobs store.Blobs) error {
	var err error
	if Actions, err = store.NewActionStore(ctx, blobs); err != nil {
		return fmt.Errorf("init action store: %w", err)
	}
	if Comments, err = store.NewCommentStore(ctx, blobs); err != nil {
		return fmt.Errorf("init comment store: %w", err)
	}
	if NotificationStore, err = store.NewNotificationStore(ctx, blobs); err != nil {
		return fmt.Errorf("init notification store: %w", err)
	}
	if AuditLog, err = store.NewAuditStore(ctx, blobs, config.AuditLogCap); err != nil {
		return fmt.Errorf("init audit store: %w", err)
	}

	Recorder = audit.NewRecorder(AuditLog, websocket.SendAuditEntry)
	Dispatcher = notifications.NewDispatcher(NotificationStore, websocket.SendNotification, config.QualityDirection)
	Engine = workflow.NewEngine(Actions, Comments, Recorder, Dispatcher, workflow.RoleAuthorizer{})
	DeadlineSweep = notifications.NewSweep(Actions, NotificationStore, Dispatcher, notifications.DefaultUpcomingWindow)

	if config.OpenAIKey != "" {
		detector, err := similarity.NewOpenAIDetector(config.OpenAIKey, config.OpenAIModel)
		if err != nil {
			return fmt.Errorf("init similarity detector: %w", err)
		}
		Detector = detector
		if Suggester, err = similarity.NewSuggester(config.OpenAIKey, config.OpenAIModel); err != nil {
			return fmt.Errorf("init suggester: %w", err)
		}
	} else {
		log.Println("Similarity detector disabled: OPENAI_API_KEY not configured")
	}

	if database.Client != nil {
		userCollection = database.Client.Database(database.Name).Collection("users")
	}
	return nil
}

// actorFromContext reads the identity the auth middleware stored.
func actorFromContext(r *http.Request) models.Actor {
	actor := models.Actor{}
	if v, ok := r.Context().Value("userID").(string); ok {
		actor.ID = v
	}
	if v, ok := r.Context().Value("userName").(string); ok {
		actor.Name = v
	}
	if v, ok := r.Context().Value("userRole").(string); ok {
		actor.Role = v
	}
	return actor
}
