package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/sitescope/backend/internal/models"
	"gorm.io/gorm"
)

// ErrProjectNotFound lets handlers turn an absent project into a 404 the
// client redirects on.
var ErrProjectNotFound = errors.New("project not found")

type ProjectService struct {
	db        *gorm.DB
	s3Service *S3Service
}

func NewProjectService(db *gorm.DB, s3Service *S3Service) *ProjectService {
	return &ProjectService{db: db, s3Service: s3Service}
}

// List returns all projects, optionally filtered by a case-insensitive name
// substring, newest first.
func (s *ProjectService) List(ctx context.Context, search string) ([]models.Project, error) {
	var projects []models.Project
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where("name ILIKE ?", "%"+search+"%")
	}
	if err := q.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetByID returns one project or ErrProjectNotFound.
func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// Create stores a new project.
func (s *ProjectService) Create(ctx context.Context, project *models.Project) error {
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Delete removes a project, its media records and (best effort) its objects.
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	// Objects are prefixed by project, so one prefix walk covers all kinds.
	prefix := fmt.Sprintf("projects/%s/", id)
	if keys, err := s.s3Service.ListKeys(ctx, prefix, 1000); err != nil {
		log.Printf("WARN: list objects for project %s: %v", id, err)
	} else {
		for _, key := range keys {
			if err := s.s3Service.Delete(ctx, key); err != nil {
				log.Printf("WARN: delete object %s: %v", key, err)
			}
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.MediaItem{}, "project_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete project media: %w", err)
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
}

// Locations returns the projects that carry a location, for the map view.
func (s *ProjectService) Locations(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("has_location = ?", true).
		Order("name ASC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list project locations: %w", err)
	}
	return projects, nil
}
