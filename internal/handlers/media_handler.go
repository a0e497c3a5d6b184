package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sitescope/backend/internal/feed"
	"github.com/sitescope/backend/internal/models"
	"github.com/sitescope/backend/internal/services"
	"github.com/sitescope/backend/pkg/validation"
)

type MediaHandler struct {
	feeds          *feed.Manager
	mediaService   *services.MediaService
	projectService *services.ProjectService
	storageService *services.StorageService
	shareService   *services.ShareService
}

func NewMediaHandler(feeds *feed.Manager, mediaService *services.MediaService, projectService *services.ProjectService, storageService *services.StorageService, shareService *services.ShareService) *MediaHandler {
	return &MediaHandler{
		feeds:          feeds,
		mediaService:   mediaService,
		projectService: projectService,
		storageService: storageService,
		shareService:   shareService,
	}
}

// entryFor resolves the feed entry for the project/kind named in the route.
// Writes the error response itself and returns nil on failure.
func (h *MediaHandler) entryFor(c *gin.Context) (*feed.Entry, uuid.UUID, models.MediaKind) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return nil, uuid.Nil, ""
	}

	kind, err := models.ParseMediaKind(c.DefaultQuery("kind", "image"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, uuid.Nil, ""
	}

	if _, err := h.projectService.GetByID(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return nil, uuid.Nil, ""
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load project"})
		return nil, uuid.Nil, ""
	}

	return h.feeds.Get(c.Request.Context(), projectID, kind), projectID, kind
}

// GetMedia returns the feed's current list, filtered by ?q=
// GET /user/projects/:id/media?kind=image&q=&wait=
func (h *MediaHandler) GetMedia(c *gin.Context) {
	entry, _, kind := h.entryFor(c)
	if entry == nil {
		return
	}

	// wait=1 blocks until the in-flight fetch lands; default returns the
	// snapshot immediately so callers can render a placeholder
	if c.Query("wait") == "1" {
		select {
		case <-entry.Feed.Wait():
		case <-c.Request.Context().Done():
			c.JSON(http.StatusRequestTimeout, gin.H{"error": "request cancelled"})
			return
		}
	}

	items, loading, fetchErr := entry.Feed.Snapshot()
	items = feed.FilterByName(items, c.Query("q"))

	list := make([]gin.H, len(items))
	for i, item := range items {
		list[i] = mediaJSON(&item)
	}

	resp := gin.H{
		"media":   list,
		"kind":    kind,
		"total":   len(list),
		"loading": loading,
	}
	if fetchErr != nil {
		resp["error"] = "media list may be stale: " + fetchErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// RefreshMedia re-issues the fetch for the feed
// POST /user/projects/:id/media/refresh?kind=
func (h *MediaHandler) RefreshMedia(c *gin.Context) {
	entry, projectID, _ := h.entryFor(c)
	if entry == nil {
		return
	}
	entry.Feed.Restart(c.Request.Context(), projectID)
	c.JSON(http.StatusAccepted, gin.H{"message": "refresh started"})
}

// UploadMedia transfers one file into the object store and materializes the
// record on the feed
// POST /user/projects/:id/media?kind=
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	entry, _, kind := h.entryFor(c)
	if entry == nil {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	name := validation.SanitizeFilename(header.Filename)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
		return
	}

	contentType, err := sniffContentType(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	if err := h.mediaService.ValidateUpload(kind, contentType, header.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := entry.Uploader.Upload(c.Request.Context(), name, contentType, header.Size, file)
	if err != nil {
		if errors.Is(err, feed.ErrUploadInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "an upload is already in progress"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, mediaJSON(&item))
}

// GetUploadProgress reports the uploader's state machine
// GET /user/projects/:id/media/progress?kind=
func (h *MediaHandler) GetUploadProgress(c *gin.Context) {
	entry, _, _ := h.entryFor(c)
	if entry == nil {
		return
	}
	uploading, progress := entry.Uploader.State()
	state := "idle"
	if uploading {
		state = "uploading"
	}
	c.JSON(http.StatusOK, gin.H{"state": state, "progress": progress})
}

// ToggleSelection toggles one identifier in the feed's selection set
// POST /user/projects/:id/media/selection?kind=
func (h *MediaHandler) ToggleSelection(c *gin.Context) {
	entry, _, _ := h.entryFor(c)
	if entry == nil {
		return
	}

	var req struct {
		ID string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	selected := entry.Selection.Toggle(req.ID)
	c.JSON(http.StatusOK, gin.H{"id": req.ID, "selected": selected, "count": entry.Selection.Len()})
}

// GetSelection lists the selected identifiers
// GET /user/projects/:id/media/selection?kind=
func (h *MediaHandler) GetSelection(c *gin.Context) {
	entry, _, _ := h.entryFor(c)
	if entry == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": entry.Selection.IDs(), "count": entry.Selection.Len()})
}

// ClearSelection empties the selection set
// DELETE /user/projects/:id/media/selection?kind=
func (h *MediaHandler) ClearSelection(c *gin.Context) {
	entry, _, _ := h.entryFor(c)
	if entry == nil {
		return
	}
	entry.Selection.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "selection cleared"})
}

// DeleteSelected bulk-deletes the currently selected items
// POST /user/projects/:id/media/selection/delete?kind=
func (h *MediaHandler) DeleteSelected(c *gin.Context) {
	entry, _, _ := h.entryFor(c)
	if entry == nil {
		return
	}

	ids := entry.Selection.IDs()
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "selection is empty"})
		return
	}

	deleted, err := h.mediaService.DeleteMany(c.Request.Context(), ids)
	entry.Feed.Remove(ids...)
	entry.Selection.Clear()

	resp := gin.H{"deleted": deleted, "requested": len(ids)}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteMedia removes a single media item
// DELETE /user/media/:mediaID
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	mediaID := c.Param("mediaID")

	item, err := h.mediaService.GetByID(c.Request.Context(), mediaID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		return
	}

	if err := h.mediaService.Delete(c.Request.Context(), mediaID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := h.feeds.Get(c.Request.Context(), item.ProjectID, item.Kind)
	entry.Feed.Remove(mediaID)
	c.JSON(http.StatusOK, gin.H{"message": "media deleted"})
}

// GetMediaURL resolves a fresh retrieval address for an item
// GET /user/media/:mediaID/url
func (h *MediaHandler) GetMediaURL(c *gin.Context) {
	item, err := h.mediaService.GetByID(c.Request.Context(), c.Param("mediaID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		return
	}

	url, err := h.mediaService.PresignedURL(c.Request.Context(), item.Key)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to resolve url"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": item.ID, "url": url})
}

// ServeMediaFile streams the object from the local cache
// GET /user/media/:mediaID/file
func (h *MediaHandler) ServeMediaFile(c *gin.Context) {
	item, err := h.mediaService.GetByID(c.Request.Context(), c.Param("mediaID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		return
	}

	localPath, err := h.mediaService.LocalMediaPath(c.Request.Context(), item.Key)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to retrieve media"})
		return
	}

	c.Header("Content-Type", item.ContentType)
	c.Header("Cache-Control", "private, max-age=3600")
	_ = h.storageService.ServeFileWithRange(c.Writer, c.Request, localPath, item.Name)
}

// ShareMedia creates a signed, expiring share link
// POST /user/media/:mediaID/share
func (h *MediaHandler) ShareMedia(c *gin.Context) {
	item, err := h.mediaService.GetByID(c.Request.Context(), c.Param("mediaID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		return
	}

	link, err := h.shareService.CreateShareLink(item.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create share link"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": link.URL, "token": link.Token, "expires_at": link.ExpiresAt})
}

// ShareMediaQR renders the share link as a QR PNG
// GET /user/media/:mediaID/share/qr.png
func (h *MediaHandler) ShareMediaQR(c *gin.Context) {
	item, err := h.mediaService.GetByID(c.Request.Context(), c.Param("mediaID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		return
	}

	link, err := h.shareService.CreateShareLink(item.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create share link"})
		return
	}
	png, err := h.shareService.QRCodePNG(link.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ResolveSharedMedia exchanges a share token for a presigned URL
// GET /public/media/shared?token=
func (h *MediaHandler) ResolveSharedMedia(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	mediaID, err := h.shareService.ResolveShareToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired share token"})
		return
	}

	item, err := h.mediaService.GetByID(c.Request.Context(), mediaID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		return
	}

	url, err := h.mediaService.PresignedURL(c.Request.Context(), item.Key)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to resolve url"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   item.ID,
		"name": item.Name,
		"kind": item.Kind,
		"url":  url,
	})
}

// sniffContentType detects the MIME type from the file's leading bytes and
// rewinds the reader for the upload.
func sniffContentType(file io.ReadSeeker) (string, error) {
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

func mediaJSON(m *models.MediaItem) gin.H {
	metadata := gin.H{"content_type": m.ContentType}
	switch m.Kind {
	case models.MediaKindVideo:
		metadata["duration"] = m.Duration
	default:
		metadata["dimensions"] = gin.H{"width": m.Width, "height": m.Height}
	}

	out := gin.H{
		"id":         m.ID,
		"project_id": m.ProjectID,
		"kind":       m.Kind,
		"name":       m.Name,
		"url":        m.URL,
		"size":       m.Size,
		"created_at": m.CreatedAt,
		"metadata":   metadata,
		"persisted":  !m.IsLocal(),
	}
	if m.Thumbnail != "" {
		out["thumbnail"] = m.Thumbnail
	}
	return out
}
