package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sitescope/backend/internal/feed"
	"github.com/sitescope/backend/internal/models"
	"github.com/sitescope/backend/internal/services"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	feeds          *feed.Manager
}

func NewProjectHandler(projectService *services.ProjectService, feeds *feed.Manager) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, feeds: feeds}
}

// GetProjects lists all projects, optionally filtered by name
// GET /user/projects?q=
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve projects"})
		return
	}

	list := make([]gin.H, len(projects))
	for i, p := range projects {
		list[i] = projectJSON(&p)
	}
	c.JSON(http.StatusOK, gin.H{"projects": list, "total": len(list)})
}

// GetProject returns one project; 404 tells the client to navigate away
// GET /user/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	project, err := h.projectService.GetByID(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve project"})
		return
	}

	c.JSON(http.StatusOK, projectJSON(project))
}

// GetProjectLocations returns map markers for projects with a location
// GET /user/projects/locations
func (h *ProjectHandler) GetProjectLocations(c *gin.Context) {
	projects, err := h.projectService.Locations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve locations"})
		return
	}

	markers := make([]gin.H, len(projects))
	for i, p := range projects {
		markers[i] = gin.H{
			"id":            p.ID,
			"name":          p.Name,
			"location_name": p.LocationName,
			"latitude":      p.Latitude,
			"longitude":     p.Longitude,
		}
	}
	c.JSON(http.StatusOK, gin.H{"markers": markers})
}

// CreateProject stores a new project
// POST /admin/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req struct {
		Name         string   `json:"name" binding:"required"`
		Description  string   `json:"description"`
		Thumbnail    string   `json:"thumbnail"`
		LocationName string   `json:"location_name"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
	}
	if req.Latitude != nil && req.Longitude != nil {
		project.LocationName = req.LocationName
		project.Latitude = *req.Latitude
		project.Longitude = *req.Longitude
		project.HasLocation = true
	}

	if err := h.projectService.Create(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, projectJSON(project))
}

// DeleteProject removes a project and all of its media
// DELETE /admin/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.feeds.Drop(projectID)
	c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
}

func projectJSON(p *models.Project) gin.H {
	out := gin.H{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"thumbnail":   p.Thumbnail,
		"orders":      p.Orders,
		"maps":        p.Maps,
		"images":      p.Images,
		"videos":      p.Videos,
		"panos":       p.Panos,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
	if p.HasLocation {
		out["location"] = gin.H{
			"name":      p.LocationName,
			"latitude":  p.Latitude,
			"longitude": p.Longitude,
		}
	}
	if p.LastOrder != nil {
		out["last_order"] = p.LastOrder
	}
	return out
}
