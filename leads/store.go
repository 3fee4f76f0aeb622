// Package leads persists the durable side of the onboarding funnel in
// MongoDB: abandoned leads captured by the sweep, permanent client records,
// and client login credentials.
//
// The store implements the engine's LeadStore interface. Abandoned leads are
// insert-only; deduplication is deliberately absent (the sweep's documented
// at-least-once behavior).
package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/cloudfive/onboard/session"
)

// ErrDuplicateEmail is returned when a client insert collides with the unique
// email index.
var ErrDuplicateEmail = errors.New("leads: emailAddress value is already taken")

// ErrClientNotFound is returned when no client matches the lookup.
var ErrClientNotFound = errors.New("leads: client not found")

// ErrCredentialNotFound is returned when a client has no stored credential.
var ErrCredentialNotFound = errors.New("leads: credential not found")

const (
	abandonedCollection  = "abandoned"
	clientCollection     = "clients"
	credentialCollection = "clientCredentials"
)

// Store wraps the Mongo collections. The caller owns the client's lifecycle.
type Store struct {
	abandoned   *mongo.Collection
	clients     *mongo.Collection
	credentials *mongo.Collection
}

// NewStore binds the store to the given database.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		abandoned:   db.Collection(abandonedCollection),
		clients:     db.Collection(clientCollection),
		credentials: db.Collection(credentialCollection),
	}
}

// EnsureIndexes creates the unique lookup indexes on the client and
// credential collections. The abandoned collection stays unindexed: repeated
// captures of one session must insert cleanly. Idempotent; call once at
// startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	emailIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "emailAddress", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniqueEmail"),
	}
	if _, err := s.clients.Indexes().CreateOne(ctx, emailIndex); err != nil {
		return fmt.Errorf("leads: create client index: %w", err)
	}
	clientIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "clientId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniqueClientId"),
	}
	if _, err := s.credentials.Indexes().CreateOne(ctx, clientIDIndex); err != nil {
		return fmt.Errorf("leads: create credential index: %w", err)
	}
	return nil
}

// CreateAbandoned inserts a lead copied from a near-expiry onboarding
// session and returns its generated id. Every call inserts: repeated sweeps
// of the same session produce distinct documents.
func (s *Store) CreateAbandoned(ctx context.Context, rec session.Record) (string, error) {
	lead := leadFromRecord(rec, time.Now())
	res, err := s.abandoned.InsertOne(ctx, lead)
	if err != nil {
		return "", fmt.Errorf("leads: insert abandoned: %w", err)
	}
	id, _ := res.InsertedID.(bson.ObjectID)
	return id.Hex(), nil
}

// CreateClient inserts the permanent client record. A unique-index collision
// on the email address surfaces as ErrDuplicateEmail.
func (s *Store) CreateClient(ctx context.Context, client *Client) error {
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}
	res, err := s.clients.InsertOne(ctx, client)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("leads: insert client: %w", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		client.ID = id
	}
	return nil
}

// FindClientByEmail looks a client up by email address.
func (s *Store) FindClientByEmail(ctx context.Context, email string) (*Client, error) {
	var client Client
	err := s.clients.FindOne(ctx, bson.D{{Key: "emailAddress", Value: email}}).Decode(&client)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leads: find client: %w", err)
	}
	return &client, nil
}

// PutCredential stores or replaces the client's login credential.
func (s *Store) PutCredential(ctx context.Context, clientID, passwordHash string) error {
	filter := bson.D{{Key: "clientId", Value: clientID}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "password", Value: passwordHash},
		{Key: "createdAt", Value: time.Now()},
	}}}
	_, err := s.credentials.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("leads: put credential: %w", err)
	}
	return nil
}

// GetCredential fetches the client's stored credential.
func (s *Store) GetCredential(ctx context.Context, clientID string) (*Credential, error) {
	var cred Credential
	err := s.credentials.FindOne(ctx, bson.D{{Key: "clientId", Value: clientID}}).Decode(&cred)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leads: get credential: %w", err)
	}
	return &cred, nil
}

func leadFromRecord(rec session.Record, capturedAt time.Time) *AbandonedLead {
	return &AbandonedLead{
		FirstName:          rec.FirstName,
		LastName:           rec.LastName,
		MiddleName:         rec.MiddleName,
		SuffixName:         rec.SuffixName,
		EmailAddress:       rec.EmailAddress,
		MobileNumber:       rec.MobileNumber,
		TelephoneNumber:    rec.TelephoneNumber,
		Gender:             rec.Gender,
		CivilStatus:        rec.CivilStatus,
		Birthdate:          rec.Birthdate,
		Birthplace:         rec.Birthplace,
		Nationality:        rec.Nationality,
		Address1:           rec.Address1,
		Address2:           rec.Address2,
		Region:             rec.Region,
		Province:           rec.Province,
		City:               rec.City,
		Zipcode:            rec.Zipcode,
		IncomeType:         rec.IncomeType,
		TIN:                rec.TIN,
		EmployerBusiness:   rec.EmployerBusiness,
		WorkBusinessNature: rec.WorkBusinessNature,
		Occupation:         rec.Occupation,
		MonthlyIncome:      rec.MonthlyIncome,
		CapturedAt:         capturedAt,
	}
}
