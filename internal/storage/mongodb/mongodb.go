// Package mongodb implements storage.Storage on a MongoDB collection.
//
// This is the primary backend: the student code uniqueness rule is
// enforced by a unique index on studentCode, created at startup, so the
// store itself arbitrates concurrent writers.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/qe-students/students-api/internal/storage"
	"github.com/qe-students/students-api/internal/types"
	"github.com/qe-students/students-api/internal/validation"
)

// CollectionName is the collection holding student documents.
const CollectionName = "students"

// studentDocument is the stored shape of a types.Student.
type studentDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	FullName    string             `bson:"fullName"`
	StudentCode string             `bson:"studentCode"`
	IsActive    bool               `bson:"isActive"`
}

func (d studentDocument) toStudent() types.Student {
	return types.Student{
		ID:          d.ID.Hex(),
		FullName:    d.FullName,
		StudentCode: d.StudentCode,
		IsActive:    d.IsActive,
	}
}

// setFields builds the $set document for the supplied patch fields.
func setFields(p types.StudentPatch) bson.M {
	set := bson.M{}
	if v := p.FullName.Ptr(); v != nil {
		set["fullName"] = *v
	}
	if v := p.StudentCode.Ptr(); v != nil {
		set["studentCode"] = *v
	}
	if v := p.IsActive.Ptr(); v != nil {
		set["isActive"] = *v
	}
	return set
}

// Mongo is the concrete implementation of storage.Storage.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// New connects to uri, verifies the connection, and ensures the unique
// index on studentCode exists in database.
func New(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.New: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo.New: ping: %w", err)
	}

	m := &Mongo{
		client:     client,
		collection: client.Database(database).Collection(CollectionName),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "studentCode", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("studentCode_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongo.New: create studentCode index: %w", err)
	}
	return nil
}

// objectID parses a hex id. A malformed id can never match a document.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, storage.ErrNotFound
	}
	return oid, nil
}

func (m *Mongo) CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error) {
	if err := validation.ValidateInput(in); err != nil {
		return types.Student{}, err
	}

	s := in.ToStudent()
	doc := studentDocument{
		ID:          primitive.NewObjectID(),
		FullName:    s.FullName,
		StudentCode: s.StudentCode,
		IsActive:    s.IsActive,
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.Student{}, storage.ErrDuplicateKey
		}
		return types.Student{}, storage.Wrap("CreateStudent: insert", err)
	}

	return doc.toStudent(), nil
}

func (m *Mongo) GetStudents(ctx context.Context) ([]types.Student, error) {
	cursor, err := m.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, storage.Wrap("GetStudents: find", err)
	}
	defer cursor.Close(ctx)

	var docs []studentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storage.Wrap("GetStudents: decode", err)
	}

	students := make([]types.Student, 0, len(docs))
	for _, d := range docs {
		students = append(students, d.toStudent())
	}
	return students, nil
}

func (m *Mongo) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.Student{}, err
	}

	var doc studentDocument
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, storage.Wrap("GetStudentByID: find", err)
	}

	return doc.toStudent(), nil
}

func (m *Mongo) UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	if err := validation.ValidatePatch(patch); err != nil {
		return types.Student{}, err
	}

	oid, err := objectID(id)
	if err != nil {
		return types.Student{}, err
	}

	// Mongo rejects an empty $set, and there is nothing to change anyway.
	if patch.Empty() {
		return m.GetStudentByID(ctx, id)
	}

	var doc studentDocument
	err = m.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": setFields(patch)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return types.Student{}, storage.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return types.Student{}, storage.ErrDuplicateKey
		}
		return types.Student{}, storage.Wrap("UpdateStudentByID: find and update", err)
	}

	return doc.toStudent(), nil
}

func (m *Mongo) DeleteStudentByID(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return storage.Wrap("DeleteStudentByID: delete", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return storage.Wrap("mongo.Ping", m.client.Ping(ctx, readpref.Primary()))
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
