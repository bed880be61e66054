package api

import (
	"net/http"

	"alcyxob/blockcoach/internal/service"

	"github.com/gin-gonic/gin"
)

// MediaHandler serves the set video upload flow.
type MediaHandler struct {
	mediaService service.MediaService
}

func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// RequestUploadURLRequest defines the body for requesting an upload URL.
type RequestUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"` // e.g., "video/mp4"
}

// ConfirmUploadRequest defines the body for confirming an upload.
type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
	FileName  string `json:"fileName" binding:"required"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// RequestUploadURL godoc
// @Summary Get a pre-signed URL to upload a set video
// @Tags Media
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param setId path string true "Set ID"
// @Param uploadRequest body RequestUploadURLRequest true "Upload content type"
// @Success 200 {object} service.UploadURLResponse "Pre-signed URL and object key"
// @Failure 400 {object} gin.H "Not a video content type"
// @Failure 403 {object} gin.H "Not the block's athlete"
// @Failure 503 {object} gin.H "Storage not configured"
// @Router /sets/{setId}/video/upload-url [post]
func (h *MediaHandler) RequestUploadURL(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	setID, ok := objectIDParam(c, "setId")
	if !ok {
		return
	}
	var req RequestUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	resp, err := h.mediaService.RequestUploadURL(c.Request.Context(), actor, setID, req.ContentType)
	if err != nil {
		writeServiceError(c, err, "Failed to generate upload URL.")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmUpload godoc
// @Summary Confirm a finished set video upload
// @Description Stores the upload and links it to the set, replacing a previous video.
// @Tags Media
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param setId path string true "Set ID"
// @Param confirmRequest body ConfirmUploadRequest true "Upload confirmation details"
// @Success 201 {object} domain.Upload
// @Failure 400 {object} gin.H "Object key mismatch or object missing"
// @Router /sets/{setId}/video/confirm [post]
func (h *MediaHandler) ConfirmUpload(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	setID, ok := objectIDParam(c, "setId")
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	upload, err := h.mediaService.ConfirmUpload(c.Request.Context(), actor, setID, service.ConfirmUploadInput{
		ObjectKey: req.ObjectKey,
		FileName:  req.FileName,
	})
	if err != nil {
		writeServiceError(c, err, "Failed to confirm upload.")
		return
	}
	c.JSON(http.StatusCreated, upload)
}

// GetVideoURL godoc
// @Summary Get a pre-signed URL to watch a set video
// @Tags Media
// @Produce json
// @Security BearerAuth
// @Param setId path string true "Set ID"
// @Success 200 {object} DownloadURLResponse
// @Failure 404 {object} gin.H "No video for this set"
// @Router /sets/{setId}/video [get]
func (h *MediaHandler) GetVideoURL(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	setID, ok := objectIDParam(c, "setId")
	if !ok {
		return
	}
	url, err := h.mediaService.GetDownloadURL(c.Request.Context(), actor, setID)
	if err != nil {
		writeServiceError(c, err, "Failed to generate download URL.")
		return
	}
	c.JSON(http.StatusOK, DownloadURLResponse{DownloadURL: url})
}

// DeleteVideo godoc
// @Summary Remove a set video
// @Tags Media
// @Security BearerAuth
// @Param setId path string true "Set ID"
// @Success 204
// @Router /sets/{setId}/video [delete]
func (h *MediaHandler) DeleteVideo(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	setID, ok := objectIDParam(c, "setId")
	if !ok {
		return
	}
	if err := h.mediaService.DeleteUpload(c.Request.Context(), actor, setID); err != nil {
		writeServiceError(c, err, "Failed to delete video.")
		return
	}
	c.Status(http.StatusNoContent)
}
