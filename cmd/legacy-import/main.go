package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/encounter-space/core/internal/config"
	"github.com/encounter-space/core/internal/database"
	"github.com/encounter-space/core/internal/models"
	"github.com/encounter-space/core/internal/modules/sync/webhook"
)

// legacy-import backfills this deployment from the original MongoDB
// instance: the webhookevents collection replays through the same
// reconciliation rules as live traffic, then any user the event log
// never covered is copied over directly.

type legacyEvent struct {
	EventID        string    `bson:"eventId"`
	EventType      string    `bson:"eventType"`
	Timestamp      time.Time `bson:"timestamp"`
	ReceivedAt     time.Time `bson:"receivedAt"`
	Payload        bson.M    `bson:"payload"`
	Signature      string    `bson:"signature"`
	SignatureValid bool      `bson:"signatureValid"`
	Status         string    `bson:"status"`
}

type legacyUser struct {
	UserID      string     `bson:"userId"`
	Email       string     `bson:"email"`
	DisplayName string     `bson:"displayName"`
	Metadata    bson.M     `bson:"metadata"`
	DeletedAt   *time.Time `bson:"deletedAt"`
}

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file")
	dryRun := flag.Bool("dry-run", false, "Scan the legacy database without writing")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}
	if cfg.LegacyMongo.URI == "" || cfg.LegacyMongo.Database == "" {
		logger.Fatal("legacy_mongo.uri and legacy_mongo.database must be configured")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		logger.Fatal("mysql connect failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.LegacyMongo.URI))
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("mongo ping failed", zap.Error(err))
	}

	legacy := client.Database(cfg.LegacyMongo.Database)

	imported, skipped, err := importEvents(ctx, legacy, db, logger, *dryRun)
	if err != nil {
		logger.Fatal("event import failed", zap.Error(err))
	}
	logger.Info("event import done", zap.Int("imported", imported), zap.Int("skipped", skipped))

	created, err := importUsers(ctx, legacy, db, logger, *dryRun)
	if err != nil {
		logger.Fatal("user import failed", zap.Error(err))
	}
	logger.Info("user import done", zap.Int("created", created))
}

// importEvents replays the legacy audit trail oldest first so the
// ordering rules see events in their natural sequence.
func importEvents(ctx context.Context, legacy *mongo.Database, db *gorm.DB, logger *zap.Logger, dryRun bool) (int, int, error) {
	cursor, err := legacy.Collection("webhookevents").Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	store := webhook.NewStore(db)
	rec := webhook.NewReconciler(db, logger.Named("reconcile"))

	imported, skipped := 0, 0
	for cursor.Next(ctx) {
		var ev legacyEvent
		if err := cursor.Decode(&ev); err != nil {
			return imported, skipped, err
		}
		if ev.EventID == "" {
			skipped++
			continue
		}
		if dryRun {
			imported++
			continue
		}

		record := &models.SyncEventModel{
			EventID:        ev.EventID,
			EventType:      ev.EventType,
			EventTimestamp: ev.Timestamp,
			ReceivedAt:     ev.ReceivedAt,
			UserID:         payloadUserID(ev.Payload),
			Payload:        models.JSONMap(ev.Payload),
			Signature:      ev.Signature,
			SignatureValid: ev.SignatureValid,
		}
		result, err := store.Append(ctx, record)
		if err != nil {
			return imported, skipped, err
		}
		if result == webhook.Duplicate {
			skipped++
			continue
		}

		env := &webhook.Envelope{
			EventID:   ev.EventID,
			EventType: ev.EventType,
			Timestamp: ev.Timestamp,
			User:      userFieldsFromPayload(ev.Payload),
		}
		if _, err := rec.Apply(ctx, env); err != nil {
			logger.Warn("legacy event not reconciled",
				zap.String("event_id", ev.EventID),
				zap.Error(err),
			)
			if markErr := store.MarkFailed(ctx, record.ID, err.Error()); markErr != nil {
				return imported, skipped, markErr
			}
		} else if err := store.MarkProcessed(ctx, record.ID); err != nil {
			return imported, skipped, err
		}
		imported++
	}
	return imported, skipped, cursor.Err()
}

// importUsers copies over users the event log never mentioned. Existing
// projections are left alone.
func importUsers(ctx context.Context, legacy *mongo.Database, db *gorm.DB, logger *zap.Logger, dryRun bool) (int, error) {
	cursor, err := legacy.Collection("users").Find(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	created := 0
	for cursor.Next(ctx) {
		var u legacyUser
		if err := cursor.Decode(&u); err != nil {
			return created, err
		}
		if u.UserID == "" || dryRun {
			continue
		}

		account := models.AccountModel{
			UserID:      u.UserID,
			Email:       strings.ToLower(u.Email),
			DisplayName: u.DisplayName,
			Metadata:    models.JSONMap(u.Metadata),
		}
		if account.Metadata == nil {
			account.Metadata = models.JSONMap{}
		}
		if u.DeletedAt != nil {
			account.DeletedAt = gorm.DeletedAt{Time: *u.DeletedAt, Valid: true}
		}

		res := db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoNothing: true,
			}).
			Create(&account)
		if res.Error != nil {
			return created, res.Error
		}
		if res.RowsAffected > 0 {
			created++
			logger.Info("legacy user imported", zap.String("user_id", u.UserID))
		}
	}
	return created, cursor.Err()
}

func payloadUserID(payload bson.M) string {
	if id, ok := payload["userId"].(string); ok {
		return id
	}
	return ""
}

func userFieldsFromPayload(payload bson.M) webhook.UserFields {
	fields := webhook.UserFields{UserID: payloadUserID(payload)}
	if v, ok := payload["email"].(string); ok {
		fields.Email = &v
	}
	if v, ok := payload["displayName"].(string); ok {
		fields.DisplayName = &v
	}
	if v, ok := payload["metadata"].(bson.M); ok {
		fields.Metadata = map[string]interface{}(v)
	}
	return fields
}
