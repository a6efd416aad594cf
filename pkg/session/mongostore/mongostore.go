// Package mongostore persists sessions in a MongoDB collection. Expired
// documents are removed by a TTL index on expires_at and filtered on read,
// since the TTL monitor only runs once a minute.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessiontier/pkg/session"
)

// Store is a session.Backend over a MongoDB collection.
type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

var (
	_ session.Backend = (*Store)(nil)
	_ session.Toucher = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store and ensures the TTL index exists.
func New(ctx context.Context, coll *mongo.Collection, opts ...Option) (*Store, error) {
	s := &Store{coll: coll, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
	})
	if err != nil {
		return nil, errors.Join(ErrIndex, err)
	}
	return s, nil
}

// document is the stored form. ExpiresAt is nil for sessions without a TTL
// so the index never removes them.
type document struct {
	ID         string         `bson:"_id"`
	LoggedInAt *time.Time     `bson:"logged_in_at,omitempty"`
	RemoteAddr string         `bson:"remote_addr,omitempty"`
	UserAgent  string         `bson:"user_agent,omitempty"`
	Data       map[string]any `bson:"data,omitempty"`
	CreatedAt  time.Time      `bson:"created_at"`
	ExpiresAt  *time.Time     `bson:"expires_at,omitempty"`
}

func toDocument(s *session.Session, expiresAt *time.Time) document {
	return document{
		ID:         s.ID,
		LoggedInAt: s.LoggedInAt,
		RemoteAddr: s.RemoteAddr,
		UserAgent:  s.UserAgent,
		Data:       s.Data,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  expiresAt,
	}
}

func (d document) session() *session.Session {
	s := &session.Session{
		ID:         d.ID,
		RemoteAddr: d.RemoteAddr,
		UserAgent:  d.UserAgent,
		Data:       d.Data,
		CreatedAt:  d.CreatedAt,
	}
	if d.LoggedInAt != nil {
		at := *d.LoggedInAt
		s.LoggedInAt = &at
	}
	if d.ExpiresAt != nil {
		s.ExpiresAt = *d.ExpiresAt
	}
	return s
}

func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, session.ErrSessionNotFound
		}
		return nil, errors.Join(ErrMongo, err)
	}

	if doc.ExpiresAt != nil && !s.now().Before(*doc.ExpiresAt) {
		return nil, session.ErrSessionExpired
	}
	return doc.session(), nil
}

// Set upserts the session. A non-positive ttl stores it without expiry.
func (s *Store) Set(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	if sess == nil || sess.ID == "" {
		return session.ErrInvalidSession
	}

	var expiresAt *time.Time
	if ttl > 0 {
		at := s.now().Add(ttl)
		expiresAt = &at
	}

	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: sess.ID}},
		toDocument(sess, expiresAt),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Join(ErrMongo, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return errors.Join(ErrMongo, err)
	}
	return nil
}

func (s *Store) Touch(ctx context.Context, id string, ttl time.Duration) error {
	now := s.now()
	var update bson.D
	if ttl > 0 {
		update = bson.D{{Key: "$set", Value: bson.D{{Key: "expires_at", Value: now.Add(ttl)}}}}
	} else {
		update = bson.D{{Key: "$unset", Value: bson.D{{Key: "expires_at", Value: ""}}}}
	}

	// The TTL monitor lags, so expired documents may still be present.
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "expires_at", Value: bson.D{{Key: "$exists", Value: false}}}},
			bson.D{{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}}},
		}},
	}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Join(ErrMongo, err)
	}
	if res.MatchedCount == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}
