package handler

import (
	"mime/multipart"
	"net/http"

	"backend/internal/config"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// EvidenceHandler serves the four multipart submission endpoints. Each accepts
// form fields plus an optional or required "photo" file part.
type EvidenceHandler struct {
	evidenceService service.EvidenceService
	settings        *config.Settings
}

func NewEvidenceHandler(evidenceService service.EvidenceService, settings *config.Settings) *EvidenceHandler {
	return &EvidenceHandler{evidenceService: evidenceService, settings: settings}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *EvidenceHandler) RegisterRoutes(router *gin.RouterGroup) {
	pc := middleware.RequireRole(model.RolePC)
	router.POST("/osa", pc, h.SubmitOSA)
	router.POST("/displays", pc, h.SubmitDisplay)
	router.POST("/surveys", pc, h.SubmitSurvey)
	router.POST("/promotions", pc, h.SubmitPromotion)
}

// photoUpload extracts the "photo" file part. Returns (nil, nil) when the
// part is absent so callers can decide whether it was required.
func (h *EvidenceHandler) photoUpload(c *gin.Context) (*service.PhotoUpload, multipart.File, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.settings.MaxUploadBytes)

	header, err := c.FormFile("photo")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.PhotoUpload{Filename: header.Filename, Reader: file}, file, nil
}

// SubmitOSA handles POST /osa
// @Summary      Submit an on-shelf-availability record
// @Description  Uploads the shelf photo and availability matrix. Completes the visit's OSA checklist task when an open visit exists.
// @Tags         evidence
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        store_id      formData  string  true   "Store UUID"
// @Param        availability  formData  string  true   "JSON object keyed by product code"
// @Param        photo         formData  file    true   "Shelf photo"
// @Success      201           {object}  response.Response{data=model.OSARecord}
// @Failure      400           {object}  response.Response
// @Router       /api/osa [post]
func (h *EvidenceHandler) SubmitOSA(c *gin.Context) {
	photo, file, err := h.photoUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid upload: "+err.Error()))
		return
	}
	if file != nil {
		defer file.Close()
	}

	record, err := h.evidenceService.SubmitOSA(c.Request.Context(), actorID(c), service.SubmitOSARequest{
		StoreID:      c.PostForm("store_id"),
		Availability: c.PostForm("availability"),
		Photo:        photo,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// SubmitDisplay handles POST /displays
// @Summary      Submit a display record
// @Description  Uploads the display photo with its type and cost. Completes the visit's DISPLAY checklist task when an open visit exists.
// @Tags         evidence
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        store_id      formData  string  true   "Store UUID"
// @Param        display_type  formData  string  true   "Display type"
// @Param        cost          formData  string  true  "Decimal cost, e.g. 1500000.00"
// @Param        photo         formData  file    true   "Display photo"
// @Success      201           {object}  response.Response{data=model.Display}
// @Failure      400           {object}  response.Response
// @Router       /api/displays [post]
func (h *EvidenceHandler) SubmitDisplay(c *gin.Context) {
	photo, file, err := h.photoUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid upload: "+err.Error()))
		return
	}
	if file != nil {
		defer file.Close()
	}

	record, err := h.evidenceService.SubmitDisplay(c.Request.Context(), actorID(c), service.SubmitDisplayRequest{
		StoreID:     c.PostForm("store_id"),
		DisplayType: c.PostForm("display_type"),
		Cost:        c.PostForm("cost"),
		Photo:       photo,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// SubmitSurvey handles POST /surveys. The photo is optional here; the survey
// payload itself is the evidence.
func (h *EvidenceHandler) SubmitSurvey(c *gin.Context) {
	photo, file, err := h.photoUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid upload: "+err.Error()))
		return
	}
	if file != nil {
		defer file.Close()
	}

	record, err := h.evidenceService.SubmitSurvey(c.Request.Context(), actorID(c), service.SubmitSurveyRequest{
		StoreID: c.PostForm("store_id"),
		Data:    c.PostForm("data"),
		Photo:   photo,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// SubmitPromotion handles POST /promotions. Promotions are standalone
// evidence: they never touch the visit checklist.
func (h *EvidenceHandler) SubmitPromotion(c *gin.Context) {
	photo, file, err := h.photoUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid upload: "+err.Error()))
		return
	}
	if file != nil {
		defer file.Close()
	}

	record, err := h.evidenceService.SubmitPromotion(c.Request.Context(), actorID(c), service.SubmitPromotionRequest{
		StoreID:     c.PostForm("store_id"),
		Description: c.PostForm("description"),
		Photo:       photo,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}
