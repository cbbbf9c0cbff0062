package repository

import (
	"context"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"
	"planpilot-service/pkg/money"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDiagnosticRepository implements the DiagnosticRepository interface.
// Provider calls and errors are append-only documents; nothing in the
// pipeline ever reads them back.
type MongoDiagnosticRepository struct {
	calls  *mongo.Collection
	errors *mongo.Collection
}

// NewMongoDiagnosticRepository creates a new MongoDB diagnostic repository
func NewMongoDiagnosticRepository(db *mongo.Database) repository.DiagnosticRepository {
	calls := db.Collection("provider_calls")
	errs := db.Collection("provider_errors")

	// Create indexes for better performance
	ctx := context.Background()

	providerTimeIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "provider", Value: 1},
			{Key: "createdAt", Value: -1},
		},
	}
	planIndex := mongo.IndexModel{
		Keys: bson.M{"planId": 1},
	}

	calls.Indexes().CreateMany(ctx, []mongo.IndexModel{providerTimeIndex, planIndex})
	errs.Indexes().CreateMany(ctx, []mongo.IndexModel{providerTimeIndex, planIndex})

	return &MongoDiagnosticRepository{
		calls:  calls,
		errors: errs,
	}
}

// RecordCall appends one provider call outcome
func (r *MongoDiagnosticRepository) RecordCall(ctx context.Context, call *entity.ProviderCall) error {
	if call.ID == "" {
		call.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.calls.InsertOne(ctx, call)
	return err
}

// RecordError appends one classified provider failure
func (r *MongoDiagnosticRepository) RecordError(ctx context.Context, record *entity.ProviderErrorRecord) error {
	if record.ID == "" {
		record.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.errors.InsertOne(ctx, record)
	return err
}

// HealthByProvider aggregates success rate and error counts over the most
// recent calls for one provider
func (r *MongoDiagnosticRepository) HealthByProvider(ctx context.Context, provider string, limit int) (*entity.ProviderHealth, error) {
	limit64 := int64(limit)
	cursor, err := r.calls.Find(ctx, bson.M{"provider": provider}, &options.FindOptions{
		Limit: &limit64,
		Sort:  bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	health := &entity.ProviderHealth{
		Provider:    provider,
		ErrorCounts: make(map[string]int),
	}

	successes := 0
	for cursor.Next(ctx) {
		var call entity.ProviderCall
		if err := cursor.Decode(&call); err != nil {
			continue
		}
		health.TotalCalls++
		if call.Success {
			successes++
			continue
		}
		errorType := call.ErrorType
		if errorType == "" {
			errorType = entity.ErrorUnknown
		}
		health.ErrorCounts[errorType]++
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	if health.TotalCalls > 0 {
		health.SuccessRate = money.Round2(float64(successes) / float64(health.TotalCalls) * 100)
	}
	return health, nil
}
