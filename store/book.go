package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storyforge/backend/models"
)

func (db *DB) CreateBook(ctx context.Context, book *models.Book) error {
	_, err := db.Books().InsertOne(ctx, book)
	return err
}

func (db *DB) BookByID(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (db *DB) BooksByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.M{"lastModified": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) UpdateCover(ctx context.Context, id, coverURL, coverS3Key string) error {
	res, err := db.Books().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"coverImageUrl": coverURL,
		"coverS3Key":    coverS3Key,
		"lastModified":  time.Now().UTC().Truncate(time.Millisecond),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateChapterContent(ctx context.Context, id, chapterID, content string, expected *time.Time) error {
	book, err := db.BookByID(ctx, id)
	if err != nil {
		return err
	}
	ch := book.ChapterByID(chapterID)
	if ch == nil {
		return ErrNotFound
	}
	ch.Content = content

	filter := bson.M{"_id": id}
	if expected != nil {
		filter["lastModified"] = expected.UTC().Truncate(time.Millisecond)
	}
	res, err := db.Books().UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"chapters":     book.Chapters,
		"lastModified": time.Now().UTC().Truncate(time.Millisecond),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// The book existed above, so the revision moved under us.
		return ErrConflict
	}
	return nil
}

func (db *DB) DeleteBook(ctx context.Context, id string) (string, error) {
	var book models.Book
	err := db.Books().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return book.CoverS3Key, nil
}
