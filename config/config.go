// config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

var (
	Port          string
	MongoURI      string
	JWTKey        []byte
	JWTExpiration time.Duration

	// OpenAI credential for the similarity/suggestion features. May be
	// empty: core CRUD and the workflow keep working without it.
	OpenAIKey   string
	OpenAIModel string

	// Recipient id for quality-direction notifications.
	QualityDirection string

	// Soft cap on retained audit entries (oldest evicted first).
	AuditLogCap int

	// Cron expression for the overdue/upcoming-deadline sweep.
	DeadlineSweepCron string
)

func LoadConfig() {
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "8080"
	}

	MongoURI = os.Getenv("MONGODB_URI")
	if MongoURI == "" {
		MongoURI = "mongodb://localhost:27017"
	}

	JWTKey = []byte(os.Getenv("JWT_SECRET"))
	if len(JWTKey) == 0 {
		JWTKey = []byte("secret")
	}

	expireStr := os.Getenv("JWT_EXPIRE")
	dur := 24 * time.Hour
	if expireStr != "" {
		if expireStr == "7d" {
			dur = 7 * 24 * time.Hour
		} else {
			var err error
			dur, err = time.ParseDuration(expireStr)
			if err != nil {
				log.Printf("Invalid JWT_EXPIRE: %s, using 24h", expireStr)
				dur = 24 * time.Hour
			}
		}
	}
	JWTExpiration = dur

	OpenAIKey = os.Getenv("OPENAI_API_KEY")
	OpenAIModel = os.Getenv("OPENAI_MODEL")
	if OpenAIModel == "" {
		OpenAIModel = "gpt-4o-mini"
	}
	if OpenAIKey == "" {
		log.Println("OPENAI_API_KEY not set - similarity and suggestion features disabled")
	}

	QualityDirection = os.Getenv("QUALITY_DIRECTION_RECIPIENT")
	if QualityDirection == "" {
		QualityDirection = "quality-direction"
	}

	AuditLogCap = 1000
	if capStr := os.Getenv("AUDIT_LOG_CAP"); capStr != "" {
		n, err := strconv.Atoi(capStr)
		if err != nil || n <= 0 {
			log.Printf("Invalid AUDIT_LOG_CAP: %s, using 1000", capStr)
		} else {
			AuditLogCap = n
		}
	}

	DeadlineSweepCron = os.Getenv("DEADLINE_SWEEP_CRON")
	if DeadlineSweepCron == "" {
		// Hourly is plenty for deadline notifications.
		DeadlineSweepCron = "0 * * * *"
	}
}
