package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messagesCollection = "messages"

// messageDoc is the stored shape of a message; user ids are kept as strings.
type messageDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SenderID   string             `bson:"sender_id"`
	ReceiverID string             `bson:"receiver_id"`
	Text       string             `bson:"text"`
	Read       bool               `bson:"read"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (d messageDoc) model() (models.Message, error) {
	sender, err := uuid.Parse(d.SenderID)
	if err != nil {
		return models.Message{}, fmt.Errorf("message %s sender: %w", d.ID.Hex(), err)
	}
	receiver, err := uuid.Parse(d.ReceiverID)
	if err != nil {
		return models.Message{}, fmt.Errorf("message %s receiver: %w", d.ID.Hex(), err)
	}
	return models.Message{
		ID:         d.ID.Hex(),
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       d.Text,
		Read:       d.Read,
		CreatedAt:  d.CreatedAt,
	}, nil
}

// MongoStore keeps messages in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(messagesCollection)}
}

// EnsureIndexes creates the indexes conversation and unread lookups rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "read", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, msg *models.Message) error {
	doc := messageDoc{
		SenderID:   msg.SenderID.String(),
		ReceiverID: msg.ReceiverID.String(),
		Text:       msg.Text,
		Read:       msg.Read,
		CreatedAt:  msg.CreatedAt,
	}
	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	msg.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *MongoStore) Conversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a.String(), "receiver_id": b.String()},
		bson.M{"sender_id": b.String(), "receiver_id": a.String()},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	msgs := make([]models.Message, len(docs))
	for i, d := range docs {
		m, err := d.model()
		if err != nil {
			return nil, err
		}
		msgs[len(docs)-1-i] = m
	}
	return msgs, nil
}

func (s *MongoStore) MarkRead(ctx context.Context, sender, receiver uuid.UUID) error {
	_, err := s.col.UpdateMany(ctx,
		bson.M{"sender_id": sender.String(), "receiver_id": receiver.String(), "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

func (s *MongoStore) UnreadCount(ctx context.Context, receiver uuid.UUID) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"receiver_id": receiver.String(), "read": false})
}
