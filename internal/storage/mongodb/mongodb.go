// Package mongodb provides the MongoDB implementation of storage.Storage.
//
// Students live in one collection as documents shaped like studentDocument.
// A unique compound index on (name, phone) is created at startup, so a
// duplicate insert fails in the database even when two requests race past
// the handler's existence check.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

const uniqueIndexName = "name_phone_unique"

// MongoDB is the concrete implementation of storage.Storage.
// *mongo.Client pools connections and is safe for concurrent use.
type MongoDB struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ storage.Storage = (*MongoDB)(nil)

// studentDocument is the stored shape of a student.
type studentDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Phone        string             `bson:"phone"`
	Dob          time.Time          `bson:"dob"`
	StudentClass string             `bson:"studentClass"`
	FeePaid      bool               `bson:"feePaid"`
}

func toDocument(s types.Student) studentDocument {
	return studentDocument{
		Name:         s.Name,
		Phone:        s.Phone,
		Dob:          s.Dob.Time,
		StudentClass: s.StudentClass,
		FeePaid:      s.FeePaid,
	}
}

func (d studentDocument) student() types.Student {
	return types.Student{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Phone:        d.Phone,
		Dob:          types.DateOf(d.Dob.UTC()),
		StudentClass: d.StudentClass,
		FeePaid:      d.FeePaid,
	}
}

// New connects to cfg.Mongo.URI, verifies the connection and makes sure the
// unique (name, phone) index exists.
func New(ctx context.Context, cfg *config.Config) (*MongoDB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb.New: connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb.New: ping: %w", err)
	}

	m := &MongoDB{
		client:     client,
		collection: client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection),
	}

	if err := m.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return m, nil
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}, {Key: "phone", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(uniqueIndexName),
	})
	if err != nil {
		return fmt.Errorf("mongodb.New: create unique index: %w", err)
	}
	return nil
}

// parseID converts a public id into an ObjectID. A string that is not an
// ObjectID can never match a record, so it maps to storage.ErrNotFound.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, storage.ErrNotFound
	}
	return oid, nil
}

// filterDocument builds the query for a filter; an empty filter matches
// every document.
func filterDocument(filter types.StudentFilter) bson.D {
	doc := bson.D{}
	if filter.Name != "" {
		doc = append(doc, bson.E{Key: "name", Value: filter.Name})
	}
	if filter.Phone != "" {
		doc = append(doc, bson.E{Key: "phone", Value: filter.Phone})
	}
	return doc
}

// setDocument builds the $set body for the fields present in patch.
func setDocument(patch types.StudentPatch) bson.D {
	set := bson.D{}
	if patch.Name.Set {
		set = append(set, bson.E{Key: "name", Value: patch.Name.Value})
	}
	if patch.Phone.Set {
		set = append(set, bson.E{Key: "phone", Value: patch.Phone.Value})
	}
	if patch.Dob.Set {
		set = append(set, bson.E{Key: "dob", Value: patch.Dob.Value.Time})
	}
	if patch.StudentClass.Set {
		set = append(set, bson.E{Key: "studentClass", Value: patch.StudentClass.Value})
	}
	if patch.FeePaid.Set {
		set = append(set, bson.E{Key: "feePaid", Value: patch.FeePaid.Value})
	}
	return set
}

func decodeOne(op string, res *mongo.SingleResult) (types.Student, error) {
	var doc studentDocument
	err := res.Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return types.Student{}, storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return types.Student{}, storage.ErrDuplicate
	case err != nil:
		return types.Student{}, fmt.Errorf("%s: %w", op, err)
	}
	return doc.student(), nil
}

// ListStudents returns every document sorted by _id, which follows
// insertion order.
func (m *MongoDB) ListStudents(ctx context.Context) ([]types.Student, error) {
	return m.find(ctx, "ListStudents", bson.D{})
}

func (m *MongoDB) FindStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error) {
	return m.find(ctx, "FindStudents", filterDocument(filter))
}

func (m *MongoDB) find(ctx context.Context, op string, filter bson.D) ([]types.Student, error) {
	cursor, err := m.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cursor.Close(ctx)

	students := make([]types.Student, 0)
	for cursor.Next(ctx) {
		var doc studentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}
		students = append(students, doc.student())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return students, nil
}

func (m *MongoDB) FindStudent(ctx context.Context, filter types.StudentFilter) (types.Student, error) {
	return decodeOne("FindStudent", m.collection.FindOne(ctx, filterDocument(filter),
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})))
}

func (m *MongoDB) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}
	return decodeOne("GetStudentByID", m.collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}))
}

// CreateStudent inserts the record; the server-side unique index turns a
// duplicate (name, phone) into storage.ErrDuplicate.
func (m *MongoDB) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	doc := toDocument(student)
	doc.ID = primitive.NewObjectID()

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.Student{}, storage.ErrDuplicate
		}
		return types.Student{}, fmt.Errorf("CreateStudent: insert: %w", err)
	}

	return doc.student(), nil
}

// UpdateStudentByID applies $set with only the patched fields and returns
// the document as it is after the update.
func (m *MongoDB) UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}

	set := setDocument(patch)
	if len(set) == 0 {
		return m.GetStudentByID(ctx, id)
	}

	return decodeOne("UpdateStudentByID", m.collection.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	))
}

func (m *MongoDB) DeleteStudentByID(ctx context.Context, id string) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}
	return decodeOne("DeleteStudentByID", m.collection.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}))
}

// Close disconnects the client, waiting for in-use connections up to ctx.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
