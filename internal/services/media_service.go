package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sitescope/backend/internal/config"
	"github.com/sitescope/backend/internal/models"
	"gorm.io/gorm"
)

// MediaService owns media records: equality queries for the feeds,
// write-through creation for the uploader, deletion and file access.
type MediaService struct {
	db             *gorm.DB
	cfg            *config.Config
	s3Service      *S3Service
	storageService *StorageService
}

func NewMediaService(db *gorm.DB, cfg *config.Config, s3Service *S3Service, storageService *StorageService) *MediaService {
	return &MediaService{
		db:             db,
		cfg:            cfg,
		s3Service:      s3Service,
		storageService: storageService,
	}
}

// ListByProjectKind returns all media records matching both equality
// predicates, newest first. This is the feed's fetch function.
func (s *MediaService) ListByProjectKind(ctx context.Context, projectID uuid.UUID, kind models.MediaKind) ([]models.MediaItem, error) {
	var items []models.MediaItem
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND kind = ?", projectID, kind).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list media for project %s kind %s: %w", projectID, kind, err)
	}
	return items, nil
}

// ValidateUpload checks the detected content type and size against the
// limits for the kind before any bytes go to the bucket.
func (s *MediaService) ValidateUpload(kind models.MediaKind, contentType string, size int64) error {
	if !kind.AcceptsContentType(contentType) {
		return fmt.Errorf("invalid content type for %s upload: %s", kind, contentType)
	}
	limit := s.cfg.UploadMaxImageSize
	if kind == models.MediaKindVideo {
		limit = s.cfg.UploadMaxVideoSize
	}
	if size > limit {
		return fmt.Errorf("file too large: %d bytes (max: %d)", size, limit)
	}
	return nil
}

// CreateMedia persists a completed upload and bumps the owning project's
// counter in the same transaction. Implements feed.Persister: GORM's create
// hook replaces the synthesized identifier with the store-assigned one.
func (s *MediaService) CreateMedia(ctx context.Context, item *models.MediaItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("create media record: %w", err)
		}
		col := item.Kind.CounterColumn()
		if err := tx.Model(&models.Project{}).
			Where("id = ?", item.ProjectID).
			UpdateColumn(col, gorm.Expr(col+" + 1")).Error; err != nil {
			return fmt.Errorf("bump project counter: %w", err)
		}
		return nil
	})
}

// GetByID returns a single media record.
func (s *MediaService) GetByID(ctx context.Context, id string) (*models.MediaItem, error) {
	var item models.MediaItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes a media item: bucket object first so a failed record
// delete cannot orphan the object, then the record, then the counter.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("media %s not found: %w", id, err)
		}
		return err
	}

	if err := s.s3Service.Delete(ctx, item.Key); err != nil {
		log.Printf("WARN: delete object %s: %v", item.Key, err)
	}
	if s.storageService != nil {
		_ = s.storageService.Remove(item.Key)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.MediaItem{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete media record: %w", err)
		}
		col := item.Kind.CounterColumn()
		return tx.Model(&models.Project{}).
			Where("id = ? AND "+col+" > 0", item.ProjectID).
			UpdateColumn(col, gorm.Expr(col+" - 1")).Error
	})
}

// DeleteMany deletes a batch of items, continuing past individual failures.
// Returns how many were deleted.
func (s *MediaService) DeleteMany(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	var firstErr error
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}

// PresignedURL resolves a fresh retrieval address for a stored object.
func (s *MediaService) PresignedURL(ctx context.Context, key string) (string, error) {
	ttl := time.Duration(s.cfg.PresignedURLTTLMinutes) * time.Minute
	return s.s3Service.PresignGet(ctx, key, ttl)
}

// LocalMediaPath returns the on-disk path for an object, downloading it into
// the cache on a miss.
func (s *MediaService) LocalMediaPath(ctx context.Context, key string) (string, error) {
	if s.storageService == nil {
		return "", fmt.Errorf("no local storage configured")
	}
	if s.storageService.Exists(key) {
		return s.storageService.LocalPath(key), nil
	}

	buf, err := s.s3Service.Download(ctx, key)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", key, err)
	}
	absPath, _, _, err := s.storageService.SaveStream(ctx, key, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", fmt.Errorf("cache %s: %w", key, err)
	}
	return absPath, nil
}
