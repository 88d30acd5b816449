package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/romcheg/offline-cards/internal/interchange"
	"github.com/romcheg/offline-cards/internal/walletsvc/models"
)

const cardsCollection = "cards"

// MongoCardStore keeps cards in a MongoDB collection. Apply needs a replica
// set, since it runs inside a multi-document transaction.
type MongoCardStore struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewMongoCardStore(db *mongo.Database) *MongoCardStore {
	return &MongoCardStore{db: db, coll: db.Collection(cardsCollection)}
}

// EnsureIndexes makes card_number unique.
func (s *MongoCardStore) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "card_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create card_number index: %w", err)
	}
	return nil
}

func (s *MongoCardStore) List(ctx context.Context, search string) ([]models.Card, error) {
	filter := bson.M{}
	if search != "" {
		filter["store_name"] = bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "store_name", Value: 1}, {Key: "card_number", Value: 1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	cards := []models.Card{}
	if err := cursor.All(ctx, &cards); err != nil {
		return nil, fmt.Errorf("failed to decode cards: %w", err)
	}
	return cards, nil
}

func (s *MongoCardStore) Get(ctx context.Context, number string) (*models.Card, error) {
	var card models.Card
	err := s.coll.FindOne(ctx, bson.M{"card_number": number}).Decode(&card)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card by number: %w", err)
	}
	return &card, nil
}

func (s *MongoCardStore) Insert(ctx context.Context, card models.Card) error {
	return s.insert(ctx, card)
}

func (s *MongoCardStore) Update(ctx context.Context, card models.Card) error {
	update := bson.M{"$set": bson.M{
		"store_name":  card.StoreName,
		"holder_name": card.HolderName,
		"use_qr_code": card.UseQRCode,
		"color_hex":   card.ColorHex,
		"photo_data":  card.PhotoData,
	}}
	res, err := s.coll.UpdateOne(ctx, bson.M{"card_number": card.CardNumber}, update)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (s *MongoCardStore) Delete(ctx context.Context, number string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"card_number": number})
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (s *MongoCardStore) Apply(ctx context.Context, plan interchange.Plan) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if plan.EraseAll {
			if _, err := s.coll.DeleteMany(sc, bson.M{}); err != nil {
				return nil, fmt.Errorf("erase cards: %w", err)
			}
		}
		if len(plan.Delete) > 0 {
			if _, err := s.coll.DeleteMany(sc, bson.M{"card_number": bson.M{"$in": plan.Delete}}); err != nil {
				return nil, fmt.Errorf("delete duplicate cards: %w", err)
			}
		}
		for _, card := range plan.Insert {
			if err := s.insert(sc, card); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (s *MongoCardStore) insert(ctx context.Context, card models.Card) error {
	if _, err := s.coll.InsertOne(ctx, card); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateCard, card.CardNumber)
		}
		return fmt.Errorf("failed to insert card %s: %w", card.CardNumber, err)
	}
	return nil
}
