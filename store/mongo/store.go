// Package mongo provides the MongoDB store driver on the official
// go.mongodb.org/mongo-driver/v2 client.
//
// Sequential product ids and ordering sequences come from an atomic
// counter collection; ownership transitions are single-document updates,
// so every store method is individually atomic.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	marketplace "github.com/xraph/marketplace"
	"github.com/xraph/marketplace/donation"
	"github.com/xraph/marketplace/event"
	"github.com/xraph/marketplace/product"
	"github.com/xraph/marketplace/service"
	marketstore "github.com/xraph/marketplace/store"
	"github.com/xraph/marketplace/types"
)

// Collection name constants.
const (
	colProducts  = "marketplace_products"
	colDonations = "marketplace_donations"
	colServices  = "marketplace_services"
	colEvents    = "marketplace_events"
	colCounters  = "marketplace_counters"
)

// Counter document ids.
const (
	counterProductID   = "product_id"
	counterAcquiredSeq = "acquired_seq"
	counterServiceSeq  = "service_seq"
	counterEventSeq    = "event_seq"
)

// compile-time interface check
var _ marketstore.Store = (*Store)(nil)

// Store implements store.Store on a MongoDB database.
type Store struct {
	db *mongo.Database
}

// New creates a MongoDB store on an existing database handle.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// DB returns the underlying mongo database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates indexes for all marketplace collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colProducts: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "acquired_seq", Value: 1}}},
		},
		colDonations: {
			{Keys: bson.D{{Key: "donor", Value: 1}}},
		},
		colEvents: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "seq", Value: 1}}},
		},
	}

	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("marketplace/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.db.Client().Disconnect(ctx)
}

// nextSeq atomically increments and returns the named counter.
func (s *Store) nextSeq(ctx context.Context, name string) (uint64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.db.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("marketplace/mongo: next %s: %w", name, err)
	}
	return uint64(doc.Value), nil
}

// ==================== Product Store ====================

func (s *Store) CreateProduct(ctx context.Context, p *product.Product) (uint64, error) {
	productID, err := s.nextSeq(ctx, counterProductID)
	if err != nil {
		return 0, err
	}
	seq, err := s.nextSeq(ctx, counterAcquiredSeq)
	if err != nil {
		return 0, err
	}

	p.ID = productID
	if _, err := s.db.Collection(colProducts).InsertOne(ctx, toProductModel(p, seq)); err != nil {
		return 0, fmt.Errorf("marketplace/mongo: create product: %w", err)
	}
	return p.ID, nil
}

func (s *Store) GetProduct(ctx context.Context, productID uint64) (*product.Product, error) {
	var m productModel
	err := s.db.Collection(colProducts).FindOne(ctx, bson.M{"_id": productID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, marketplace.ErrNotFound
		}
		return nil, fmt.Errorf("marketplace/mongo: get product: %w", err)
	}
	return fromProductModel(&m), nil
}

func (s *Store) ProductCount(ctx context.Context) (uint64, error) {
	count, err := s.db.Collection(colProducts).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("marketplace/mongo: product count: %w", err)
	}
	return uint64(count), nil
}

func (s *Store) OwnedItems(ctx context.Context, owner types.Account) ([]uint64, error) {
	cursor, err := s.db.Collection(colProducts).Find(ctx,
		bson.M{"owner": string(owner)},
		options.Find().
			SetSort(bson.D{{Key: "acquired_seq", Value: 1}}).
			SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("marketplace/mongo: owned items: %w", err)
	}
	defer cursor.Close(ctx)

	ids := make([]uint64, 0)
	for cursor.Next(ctx) {
		var doc struct {
			ID uint64 `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (s *Store) TransferProduct(ctx context.Context, productID uint64, t product.Transfer) error {
	seq, err := s.nextSeq(ctx, counterAcquiredSeq)
	if err != nil {
		return err
	}

	// Owner, purchased flag, seller bookmark and acquisition order all live
	// on the one product document, so the UpdateOne is the whole transition.
	res, err := s.db.Collection(colProducts).UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$set": bson.M{
			"owner":        string(t.To),
			"purchased":    t.Purchased,
			"seller":       string(t.Seller),
			"acquired_seq": seq,
			"updated_at":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("marketplace/mongo: transfer product: %w", err)
	}
	if res.MatchedCount == 0 {
		return marketplace.ErrNotFound
	}
	return nil
}

// ==================== Donation Store ====================

func (s *Store) AppendDonation(ctx context.Context, rec *donation.Record) error {
	if _, err := s.db.Collection(colDonations).InsertOne(ctx, toDonationModel(rec)); err != nil {
		return fmt.Errorf("marketplace/mongo: append donation: %w", err)
	}
	return nil
}

func (s *Store) ListDonations(ctx context.Context, opts donation.ListOpts) ([]*donation.Record, error) {
	filter := bson.M{}
	if !opts.Donor.IsZero() {
		filter["donor"] = string(opts.Donor)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.db.Collection(colDonations).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("marketplace/mongo: list donations: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*donation.Record, 0)
	for cursor.Next(ctx) {
		var m donationModel
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		rec, err := fromDonationModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, cursor.Err()
}

// ==================== Service Store ====================

func (s *Store) PutService(ctx context.Context, off *service.Offering) error {
	seq, err := s.nextSeq(ctx, counterServiceSeq)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.Collection(colServices).UpdateOne(ctx,
		bson.M{"_id": off.Type},
		bson.M{
			"$set": bson.M{
				"price_amount":   off.Price.Amount,
				"price_currency": off.Price.Currency,
				"updated_at":     now,
			},
			// seq fixes registration order; only set on first insert.
			"$setOnInsert": bson.M{
				"seq":        seq,
				"created_at": now,
			},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("marketplace/mongo: put service: %w", err)
	}
	return nil
}

func (s *Store) GetService(ctx context.Context, typ string) (*service.Offering, error) {
	var m serviceModel
	err := s.db.Collection(colServices).FindOne(ctx, bson.M{"_id": typ}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, marketplace.ErrUnknownServiceType
		}
		return nil, fmt.Errorf("marketplace/mongo: get service: %w", err)
	}
	return fromServiceModel(&m), nil
}

func (s *Store) ListServiceTypes(ctx context.Context) ([]string, error) {
	cursor, err := s.db.Collection(colServices).Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "seq", Value: 1}}).
			SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("marketplace/mongo: list service types: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]string, 0)
	for cursor.Next(ctx) {
		var doc struct {
			Type string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.Type)
	}
	return result, cursor.Err()
}

// ==================== Event Store ====================

func (s *Store) AppendEvent(ctx context.Context, rec *event.Record) error {
	seq, err := s.nextSeq(ctx, counterEventSeq)
	if err != nil {
		return err
	}
	if _, err := s.db.Collection(colEvents).InsertOne(ctx, toEventModel(rec, seq)); err != nil {
		return fmt.Errorf("marketplace/mongo: append event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Record, error) {
	filter := bson.M{}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.db.Collection(colEvents).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("marketplace/mongo: list events: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*event.Record, 0)
	for cursor.Next(ctx) {
		var m eventModel
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		rec, err := fromEventModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, cursor.Err()
}
