package handler

import (
	"net/http"
	"strconv"

	"github.com/astro-analytics/video-tagging-go/internal/models"
	"github.com/astro-analytics/video-tagging-go/internal/service"
	"github.com/astro-analytics/video-tagging-go/internal/validation"
	"github.com/gin-gonic/gin"
)

// TaggingHandler serves video sessions, tags and seek requests.
type TaggingHandler struct {
	taggingService *service.TaggingService
}

// NewTaggingHandler creates a new TaggingHandler instance.
func NewTaggingHandler(taggingService *service.TaggingService) *TaggingHandler {
	return &TaggingHandler{
		taggingService: taggingService,
	}
}

// Vocabulary lists the event types, players and outcomes a tag may use.
func (h *TaggingHandler) Vocabulary(c *gin.Context) {
	c.JSON(http.StatusOK, h.taggingService.Vocabulary())
}

// OpenVideo resolves a file to its video id and returns the saved timeline.
func (h *TaggingHandler) OpenVideo(c *gin.Context) {
	var file models.FileDescriptor
	if err := c.ShouldBindJSON(&file); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.taggingService.OpenVideo(c.Request.Context(), file)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *TaggingHandler) ListEvents(c *gin.Context) {
	videoID := c.Param("videoId")

	events, err := h.taggingService.Events(c.Request.Context(), videoID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.EventsResponseDTO{
		VideoID: videoID,
		Count:   len(events),
		Events:  events,
	})
}

func (h *TaggingHandler) AddTag(c *gin.Context) {
	var req models.TagRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	event, events, err := h.taggingService.AddTag(c.Request.Context(), c.Param("videoId"), validation.TagInput{
		Timestamp: *req.Timestamp,
		EventType: req.EventType,
		Player:    req.Player,
		Outcome:   req.Outcome,
		Duration:  req.Duration,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.TagResponseDTO{
		Event:  *event,
		Events: events,
	})
}

func (h *TaggingHandler) DeleteTag(c *gin.Context) {
	videoID := c.Param("videoId")
	eventID, err := strconv.ParseInt(c.Param("eventId"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "event id must be an integer")
		return
	}

	events, err := h.taggingService.DeleteTag(c.Request.Context(), videoID, eventID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.EventsResponseDTO{
		VideoID: videoID,
		Count:   len(events),
		Events:  events,
	})
}

func (h *TaggingHandler) Stats(c *gin.Context) {
	stats, err := h.taggingService.Stats(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RequestSeek stores a one-shot seek target that GetSeek reports until the
// debounce window passes.
func (h *TaggingHandler) RequestSeek(c *gin.Context) {
	var req models.SeekRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	videoID := c.Param("videoId")
	if err := h.taggingService.RequestSeek(videoID, *req.Timestamp); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, models.SeekResponseDTO{VideoID: videoID, Seek: req.Timestamp})
}

func (h *TaggingHandler) GetSeek(c *gin.Context) {
	videoID := c.Param("videoId")

	resp := models.SeekResponseDTO{VideoID: videoID}
	if seconds, ok := h.taggingService.PendingSeek(videoID); ok {
		resp.Seek = &seconds
	}

	c.JSON(http.StatusOK, resp)
}
