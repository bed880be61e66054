package api

import (
	"net/http"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramHandler serves blocks, templates and the copy operations between them.
type ProgramHandler struct {
	programService service.ProgramService
}

func NewProgramHandler(programService service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// --- DTOs ---

// Dates are YYYY-MM-DD strings.
type CreateBlockRequest struct {
	AthleteID   string `json:"athleteId" binding:"required"`
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type UpdateBlockRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type TemplateRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// CopyBlockRequest is optional on duplicate and assign; empty fields keep the source's values.
type CopyBlockRequest struct {
	AthleteID string `json:"athleteId"`
	Name      string `json:"name" binding:"max=200"`
	StartDate string `json:"startDate"`
}

type CopyTemplateRequest struct {
	Name string `json:"name" binding:"max=200"`
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return false
	}
	return true
}

// --- Blocks ---

// CreateBlock godoc
// @Summary Create a block for a connected athlete
// @Tags Blocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param block body CreateBlockRequest true "Block details"
// @Success 201 {object} domain.Block
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Not a coach or athlete not connected"
// @Router /blocks [post]
func (h *ProgramHandler) CreateBlock(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	athleteID, err := primitive.ObjectIDFromHex(req.AthleteID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid athleteId format.")
		return
	}
	start, ok := optionalDate(c, "startDate", req.StartDate)
	if !ok {
		return
	}
	end, ok := optionalDate(c, "endDate", req.EndDate)
	if !ok {
		return
	}

	block, err := h.programService.CreateBlock(c.Request.Context(), actor, service.BlockInput{
		AthleteID:   athleteID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		writeServiceError(c, err, "Failed to create block.")
		return
	}
	c.JSON(http.StatusCreated, block)
}

// ListBlocks godoc
// @Summary List blocks
// @Description Athletes get their assigned blocks. Coaches get the blocks they own, optionally for one athlete.
// @Tags Blocks
// @Produce json
// @Security BearerAuth
// @Param athleteId query string false "Filter by athlete (coach only)"
// @Success 200 {array} domain.Block
// @Router /blocks [get]
func (h *ProgramHandler) ListBlocks(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	athleteID, ok := optionalObjectID(c, "athleteId", c.Query("athleteId"))
	if !ok {
		return
	}
	blocks, err := h.programService.ListBlocks(c.Request.Context(), actor, athleteID)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve blocks.")
		return
	}
	if blocks == nil {
		blocks = []domain.Block{}
	}
	c.JSON(http.StatusOK, blocks)
}

// GetBlock godoc
// @Summary Get a block with its full tree
// @Tags Blocks
// @Produce json
// @Security BearerAuth
// @Param blockId path string true "Block ID"
// @Success 200 {object} service.ProgramTree
// @Failure 403 {object} gin.H "Not the owner or assigned athlete"
// @Failure 404 {object} gin.H "Block not found"
// @Router /blocks/{blockId} [get]
func (h *ProgramHandler) GetBlock(c *gin.Context) {
	h.getTree(c, domain.KindBlock, "blockId")
}

// UpdateBlock godoc
// @Summary Update block metadata
// @Description Moving the start date reschedules every day of the block.
// @Tags Blocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param blockId path string true "Block ID"
// @Param block body UpdateBlockRequest true "Block fields"
// @Success 200 {object} domain.Block
// @Router /blocks/{blockId} [put]
func (h *ProgramHandler) UpdateBlock(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	blockID, ok := objectIDParam(c, "blockId")
	if !ok {
		return
	}
	var req UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	start, ok := optionalDate(c, "startDate", req.StartDate)
	if !ok {
		return
	}
	end, ok := optionalDate(c, "endDate", req.EndDate)
	if !ok {
		return
	}
	block, err := h.programService.UpdateBlock(c.Request.Context(), actor, blockID, service.ProgramUpdate{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		writeServiceError(c, err, "Failed to update block.")
		return
	}
	c.JSON(http.StatusOK, block)
}

// DeleteBlock godoc
// @Summary Delete a block and everything under it
// @Tags Blocks
// @Security BearerAuth
// @Param blockId path string true "Block ID"
// @Success 204
// @Router /blocks/{blockId} [delete]
func (h *ProgramHandler) DeleteBlock(c *gin.Context) {
	h.deleteProgram(c, domain.KindBlock, "blockId")
}

// DuplicateBlock godoc
// @Summary Copy a block
// @Description Copies the live tree without athlete logs. The copy can target another connected athlete and start date.
// @Tags Blocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param blockId path string true "Block ID"
// @Param options body CopyBlockRequest false "Copy options"
// @Success 201 {object} domain.Block
// @Router /blocks/{blockId}/duplicate [post]
func (h *ProgramHandler) DuplicateBlock(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	blockID, ok := objectIDParam(c, "blockId")
	if !ok {
		return
	}
	opts, ok := h.copyOptions(c)
	if !ok {
		return
	}
	block, err := h.programService.DuplicateBlock(c.Request.Context(), actor, blockID, opts)
	if err != nil {
		writeServiceError(c, err, "Failed to duplicate block.")
		return
	}
	c.JSON(http.StatusCreated, block)
}

// SaveBlockAsTemplate godoc
// @Summary Save a block's structure as a new template
// @Tags Blocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param blockId path string true "Block ID"
// @Param options body CopyTemplateRequest false "Template name"
// @Success 201 {object} domain.Template
// @Router /blocks/{blockId}/save-as-template [post]
func (h *ProgramHandler) SaveBlockAsTemplate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	blockID, ok := objectIDParam(c, "blockId")
	if !ok {
		return
	}
	var req CopyTemplateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	template, err := h.programService.SaveBlockAsTemplate(c.Request.Context(), actor, blockID, req.Name)
	if err != nil {
		writeServiceError(c, err, "Failed to save block as template.")
		return
	}
	c.JSON(http.StatusCreated, template)
}

// --- Templates ---

// CreateTemplate godoc
// @Summary Create an empty template
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template body TemplateRequest true "Template details"
// @Success 201 {object} domain.Template
// @Router /templates [post]
func (h *ProgramHandler) CreateTemplate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	template, err := h.programService.CreateTemplate(c.Request.Context(), actor, req.Name, req.Description)
	if err != nil {
		writeServiceError(c, err, "Failed to create template.")
		return
	}
	c.JSON(http.StatusCreated, template)
}

// ListTemplates godoc
// @Summary List the coach's templates
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Template
// @Router /templates [get]
func (h *ProgramHandler) ListTemplates(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	templates, err := h.programService.ListTemplates(c.Request.Context(), actor)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve templates.")
		return
	}
	if templates == nil {
		templates = []domain.Template{}
	}
	c.JSON(http.StatusOK, templates)
}

// GetTemplate godoc
// @Summary Get a template with its full tree
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param templateId path string true "Template ID"
// @Success 200 {object} service.ProgramTree
// @Router /templates/{templateId} [get]
func (h *ProgramHandler) GetTemplate(c *gin.Context) {
	h.getTree(c, domain.KindTemplate, "templateId")
}

// UpdateTemplate godoc
// @Summary Update template metadata
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param templateId path string true "Template ID"
// @Param template body TemplateRequest true "Template fields"
// @Success 200 {object} domain.Template
// @Router /templates/{templateId} [put]
func (h *ProgramHandler) UpdateTemplate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	templateID, ok := objectIDParam(c, "templateId")
	if !ok {
		return
	}
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	template, err := h.programService.UpdateTemplate(c.Request.Context(), actor, templateID, service.ProgramUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(c, err, "Failed to update template.")
		return
	}
	c.JSON(http.StatusOK, template)
}

// DeleteTemplate godoc
// @Summary Delete a template and everything under it
// @Tags Templates
// @Security BearerAuth
// @Param templateId path string true "Template ID"
// @Success 204
// @Router /templates/{templateId} [delete]
func (h *ProgramHandler) DeleteTemplate(c *gin.Context) {
	h.deleteProgram(c, domain.KindTemplate, "templateId")
}

// DuplicateTemplate godoc
// @Summary Copy a template
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param templateId path string true "Template ID"
// @Param options body CopyTemplateRequest false "Name of the copy"
// @Success 201 {object} domain.Template
// @Router /templates/{templateId}/duplicate [post]
func (h *ProgramHandler) DuplicateTemplate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	templateID, ok := objectIDParam(c, "templateId")
	if !ok {
		return
	}
	var req CopyTemplateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	template, err := h.programService.DuplicateTemplate(c.Request.Context(), actor, templateID, req.Name)
	if err != nil {
		writeServiceError(c, err, "Failed to duplicate template.")
		return
	}
	c.JSON(http.StatusCreated, template)
}

// AssignTemplate godoc
// @Summary Instantiate a template as a block for an athlete
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param templateId path string true "Template ID"
// @Param options body CopyBlockRequest true "athleteId is required"
// @Success 201 {object} domain.Block
// @Router /templates/{templateId}/assign [post]
func (h *ProgramHandler) AssignTemplate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	templateID, ok := objectIDParam(c, "templateId")
	if !ok {
		return
	}
	opts, ok := h.copyOptions(c)
	if !ok {
		return
	}
	block, err := h.programService.AssignTemplate(c.Request.Context(), actor, templateID, opts)
	if err != nil {
		writeServiceError(c, err, "Failed to assign template.")
		return
	}
	c.JSON(http.StatusCreated, block)
}

// --- shared ---

func (h *ProgramHandler) copyOptions(c *gin.Context) (service.CopyOptions, bool) {
	var req CopyBlockRequest
	if !bindOptionalJSON(c, &req) {
		return service.CopyOptions{}, false
	}
	athleteID, ok := optionalObjectID(c, "athleteId", req.AthleteID)
	if !ok {
		return service.CopyOptions{}, false
	}
	start, ok := optionalDate(c, "startDate", req.StartDate)
	if !ok {
		return service.CopyOptions{}, false
	}
	return service.CopyOptions{AthleteID: athleteID, Name: req.Name, StartDate: start}, true
}

func (h *ProgramHandler) getTree(c *gin.Context, kind domain.ProgramKind, param string) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, param)
	if !ok {
		return
	}
	tree, err := h.programService.GetTree(c.Request.Context(), actor, domain.ProgramRef{Kind: kind, ID: id})
	if err != nil {
		writeServiceError(c, err, "Failed to load program.")
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *ProgramHandler) deleteProgram(c *gin.Context, kind domain.ProgramKind, param string) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, param)
	if !ok {
		return
	}
	if err := h.programService.DeleteProgram(c.Request.Context(), actor, domain.ProgramRef{Kind: kind, ID: id}); err != nil {
		writeServiceError(c, err, "Failed to delete program.")
		return
	}
	c.Status(http.StatusNoContent)
}
