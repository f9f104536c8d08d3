package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vincent-petithory/dataurl"
	"go.uber.org/zap"

	"github.com/storyforge/backend/models"
	"github.com/storyforge/backend/notify"
	"github.com/storyforge/backend/store"
)

// CoverService runs cover-image generation detached from the request that
// created or updated a book. Failures leave the current cover in place and
// are logged as warnings; the book is never rolled back or marked errored.
type CoverService struct {
	covers  CoverGenerator
	store   store.Store
	s3      *S3Service // nil when object storage is not configured
	notify  notify.Notifier
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewCoverService(covers CoverGenerator, st store.Store, s3 *S3Service, n notify.Notifier, logger *zap.Logger, timeout time.Duration) *CoverService {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CoverService{
		covers:  covers,
		store:   st,
		s3:      s3,
		notify:  n,
		logger:  logger,
		timeout: timeout,
	}
}

// Dispatch starts cover generation for the book and returns immediately.
// The detached task is not tied to the caller's request context: navigating
// away does not abort it, and the result still lands in the store.
func (s *CoverService) Dispatch(book *models.Book, req CoverRequest) {
	snapshot := *book
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.generate(ctx, &snapshot, req); err != nil {
			s.logger.Warn("cover generation failed, keeping current cover",
				zap.String("bookId", snapshot.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until all dispatched generations finish.
func (s *CoverService) Wait() {
	s.wg.Wait()
}

func (s *CoverService) generate(ctx context.Context, book *models.Book, req CoverRequest) error {
	img, err := s.covers.GenerateCover(ctx, req)
	if err != nil {
		return err
	}

	var coverURL, coverKey string
	if s.s3 != nil {
		coverKey = "covers/" + uuid.NewString() + extForMIME(img.MIMEType)
		if err := s.s3.Put(ctx, coverKey, img.Data, img.MIMEType); err != nil {
			return err
		}
		coverURL = "/api/books/" + book.ID + "/cover"
	} else {
		coverURL = dataurl.New(img.Data, img.MIMEType).String()
	}

	if err := s.store.UpdateCover(ctx, book.ID, coverURL, coverKey); err != nil {
		if coverKey != "" {
			_ = s.s3.Delete(ctx, coverKey)
		}
		return err
	}
	if old := book.CoverS3Key; s.s3 != nil && old != "" && old != coverKey {
		_ = s.s3.Delete(ctx, old)
	}

	s.logger.Info("cover updated", zap.String("bookId", book.ID))
	if s.notify != nil {
		s.notify.BookChanged(notify.Event{
			BookID: book.ID,
			UserID: book.UserID.Hex(),
			Kind:   notify.KindCover,
		})
	}
	return nil
}

func extForMIME(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
