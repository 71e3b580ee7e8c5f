// Package mongostore implements the document store adapter on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"soundscape/model"
	"soundscape/store"
)

// Store is a MongoDB-backed store.Adapter over a single sound collection.
// The underlying client is safe for concurrent use, so one Store serves all
// requests.
type Store struct {
	coll *mongo.Collection
}

// New creates a Store over the named collection.
func New(db *mongo.Database, collection string) *Store {
	return &Store{coll: db.Collection(collection)}
}

// EnsureIndexes creates the 2dsphere index on location plus the single-field
// indexes the search and analytics queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "emotions", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "author", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return model.NewStorageError("ensure indexes", err)
	}
	return nil
}

// objectID parses a caller-supplied id. A malformed id cannot resolve to any
// document, so it is reported as not found rather than as a storage failure.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, model.ErrNotFound
	}
	return oid, nil
}

func (s *Store) Insert(ctx context.Context, doc *model.SoundDocument) (string, error) {
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", model.NewStorageError("insert", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", model.NewStorageError("insert", errors.New("unexpected inserted id type"))
	}
	doc.ID = oid
	return oid.Hex(), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*model.SoundDocument, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc model.SoundDocument
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, model.NewStorageError("find by id", err)
	}
	return &doc, nil
}

func (s *Store) FindMany(ctx context.Context, filter store.Filter, sort *store.Sort, limit int64) ([]*model.SoundDocument, error) {
	query, err := filterToBson(filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if sort != nil {
		dir := 1
		if sort.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: sort.Field, Value: dir}})
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, model.NewStorageError("find", err)
	}
	defer cursor.Close(ctx)

	docs := make([]*model.SoundDocument, 0)
	for cursor.Next(ctx) {
		var doc model.SoundDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, model.NewStorageError("decode", err)
		}
		docs = append(docs, &doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, model.NewStorageError("cursor", err)
	}
	return docs, nil
}

func (s *Store) UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, nil
	}
	if len(patch) == 0 {
		return false, nil
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": patch})
	if err != nil {
		return false, model.NewStorageError("update", err)
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) AddToSet(ctx context.Context, id, field, value string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, nil
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$addToSet": bson.M{field: value}})
	if err != nil {
		return false, model.NewStorageError("add to set", err)
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, nil
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, model.NewStorageError("delete", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) NearPoint(ctx context.Context, lng, lat, maxMeters float64, limit int64) ([]*model.SoundDocument, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near":          model.NewGeoPoint(lng, lat),
			"distanceField": "distanceMeters",
			"maxDistance":   maxMeters,
			"spherical":     true,
		}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, model.NewStorageError("geo near", err)
	}
	defer cursor.Close(ctx)

	docs := make([]*model.SoundDocument, 0)
	for cursor.Next(ctx) {
		var doc model.SoundDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, model.NewStorageError("decode", err)
		}
		docs = append(docs, &doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, model.NewStorageError("cursor", err)
	}
	return docs, nil
}

// Aggregate streams the collection (projected down to the fields grouping can
// see) through the shared fold, so grouping semantics match the in-memory
// store exactly.
func (s *Store) Aggregate(ctx context.Context, spec store.GroupSpec) ([]store.Group, error) {
	opts := options.Find().SetProjection(bson.M{
		"name":      1,
		"emotions":  1,
		"tags":      1,
		"location":  1,
		"createdAt": 1,
	})

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, model.NewStorageError("aggregate", err)
	}
	defer cursor.Close(ctx)

	docs := make([]*model.SoundDocument, 0)
	for cursor.Next(ctx) {
		var doc model.SoundDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, model.NewStorageError("decode", err)
		}
		docs = append(docs, &doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, model.NewStorageError("cursor", err)
	}
	return store.FoldGroups(docs, spec), nil
}

// filterToBson translates the portable filter vocabulary to Mongo operators.
func filterToBson(f store.Filter) (bson.M, error) {
	conds := make([]bson.M, 0, len(f.Must)+1)
	for _, m := range f.Must {
		c, err := matchToBson(m)
		if err != nil {
			return nil, err
		}
		if c != nil {
			conds = append(conds, c)
		}
	}
	if len(f.Any) > 0 {
		or := make([]bson.M, 0, len(f.Any))
		for _, m := range f.Any {
			c, err := matchToBson(m)
			if err != nil {
				return nil, err
			}
			if c != nil {
				or = append(or, c)
			}
		}
		if len(or) > 0 {
			conds = append(conds, bson.M{"$or": or})
		}
	}

	switch len(conds) {
	case 0:
		return bson.M{}, nil
	case 1:
		return conds[0], nil
	default:
		return bson.M{"$and": conds}, nil
	}
}

func matchToBson(m store.FieldMatch) (bson.M, error) {
	switch m.Kind {
	case store.MatchElem:
		if len(m.Values) == 0 {
			return nil, nil
		}
		return bson.M{m.Field: m.Values[0]}, nil
	case store.MatchElemIn:
		if len(m.Values) == 0 {
			return nil, nil
		}
		return bson.M{m.Field: bson.M{"$in": m.Values}}, nil
	case store.MatchSubstring:
		if len(m.Values) == 0 {
			return nil, nil
		}
		return bson.M{m.Field: bson.M{
			"$regex":   regexp.QuoteMeta(m.Values[0]),
			"$options": "i",
		}}, nil
	case store.MatchNotID:
		if len(m.Values) == 0 {
			return nil, nil
		}
		oid, err := objectID(m.Values[0])
		if err != nil {
			return nil, err
		}
		// Typed $ne: comparing the hex string against stored ObjectIDs would
		// silently match everything.
		return bson.M{"_id": bson.M{"$ne": oid}}, nil
	}
	return nil, nil
}
