package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/owningthelook/backend/internal/domain"
	"github.com/owningthelook/backend/internal/usecase"
)

type createSessionRequest struct {
	Image string `json:"image"`
}

type selectImageRequest struct {
	Image string `json:"image" binding:"required"`
}

type confirmRequest struct {
	Skip bool `json:"skip"`
}

// CreateSession starts a flow session, optionally with the photo already chosen
func (h *Handler) CreateSession(c *gin.Context) {
	if !h.sessionsConfigured(c) {
		return
	}

	var req createSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	id := h.services.Sessions.NewID()
	session := usecase.NewSession(id, h.services.Cropper, h.services.Analyzer, h.services.Matcher)
	if req.Image != "" {
		if err := session.SelectImage(req.Image); err != nil {
			respondError(c, err)
			return
		}
	}
	h.services.Sessions.Put(id, session)

	c.JSON(http.StatusCreated, session.Snapshot())
}

// GetSession returns the current state of a session
func (h *Handler) GetSession(c *gin.Context) {
	h.withSession(c, func(s *usecase.Session) {
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// DeleteSession forgets a session
func (h *Handler) DeleteSession(c *gin.Context) {
	if !h.sessionsConfigured(c) {
		return
	}
	if err := h.services.Sessions.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectImage loads a photo into a session on the landing screen
func (h *Handler) SelectImage(c *gin.Context) {
	h.withSession(c, func(s *usecase.Session) {
		var req selectImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if err := s.SelectImage(req.Image); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// Gesture applies one pointer event to the crop rectangle
func (h *Handler) Gesture(c *gin.Context) {
	h.withSession(c, func(s *usecase.Session) {
		var req domain.GestureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		pointer := domain.Point{X: req.X, Y: req.Y}
		var err error
		switch req.Phase {
		case domain.GestureBegin:
			err = s.BeginGesture(req.Handle, pointer)
		case domain.GestureUpdate:
			err = s.UpdateGesture(pointer, domain.Size{Width: req.ContainerWidth, Height: req.ContainerHeight})
		case domain.GestureEnd:
			err = s.EndGesture()
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// Confirm crops (or skips cropping) and analyzes the photo
func (h *Handler) Confirm(c *gin.Context) {
	h.withSession(c, func(s *usecase.Session) {
		var req confirmRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, err)
				return
			}
		}

		done, err := s.Confirm(c.Request.Context(), req.Skip)
		h.respondAfter(c, s, done, err)
	})
}

// SelectItem switches the results screen to another item
func (h *Handler) SelectItem(c *gin.Context) {
	h.withSession(c, func(s *usecase.Session) {
		done, err := s.SelectItem(c.Request.Context(), c.Param("itemId"))
		h.respondAfter(c, s, done, err)
	})
}

// Broaden repeats the active item's search by category
func (h *Handler) Broaden(c *gin.Context) {
	h.withSession(c, func(s *usecase.Session) {
		done, err := s.Broaden(c.Request.Context())
		h.respondAfter(c, s, done, err)
	})
}

// Refine goes back from results to the crop screen
func (h *Handler) Refine(c *gin.Context) {
	h.withSession(c, func(s *usecase.Session) {
		if err := s.Refine(); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// Reset returns a session to the landing screen
func (h *Handler) Reset(c *gin.Context) {
	h.withSession(c, func(s *usecase.Session) {
		s.Reset()
		c.JSON(http.StatusOK, s.Snapshot())
	})
}

// sessionsConfigured answers 501 unless every service a session drives is set
func (h *Handler) sessionsConfigured(c *gin.Context) bool {
	if h.services.Sessions == nil || h.services.Cropper == nil ||
		h.services.Analyzer == nil || h.services.Matcher == nil {
		notConfigured(c, "sessions")
		return false
	}
	return true
}

func (h *Handler) withSession(c *gin.Context, fn func(s *usecase.Session)) {
	if !h.sessionsConfigured(c) {
		return
	}
	session, err := h.services.Sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	fn(session)
}

// respondAfter waits for the started search when ?wait=true, then answers
// with the session snapshot
func (h *Handler) respondAfter(c *gin.Context, s *usecase.Session, done <-chan struct{}, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("wait") == "true" {
		waitSettled(c.Request.Context(), done)
	}
	c.JSON(http.StatusOK, s.Snapshot())
}
