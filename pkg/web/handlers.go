package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// handleEnqueueAction validates and queues a control action.
func (s *Server) handleEnqueueAction(c *fiber.Ctx) error {
	var payload map[string]any
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}

	result := s.rt.Gateway().EnqueueAction(payload)
	status := fiber.StatusOK
	if !result.Accepted {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(result)
}

// handleStatus returns the latest runtime status snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.rt.Status())
}

// handleRecentActions returns the most recent audited actions.
func (s *Server) handleRecentActions(c *fiber.Ctx) error {
	if s.recent == nil {
		return c.JSON(fiber.Map{"actions": []any{}})
	}

	limit := c.QueryInt("limit", 50)
	records, err := s.recent.Recent(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"actions": records})
}

// HeadMoveRequest queues a head pose move.
type HeadMoveRequest struct {
	Direction string  `json:"direction"`
	Duration  float64 `json:"duration"`
}

func (s *Server) handleQueueHead(c *fiber.Ctx) error {
	var req HeadMoveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}
	if req.Duration <= 0 {
		req.Duration = 1.0
	}

	s.rt.Manager().QueueHeadDirection(req.Direction, secs(req.Duration))
	return c.JSON(fiber.Map{
		"queued":    true,
		"direction": req.Direction,
	})
}

// NamedMoveRequest queues a dance or emotion move by name.
type NamedMoveRequest struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
}

func (s *Server) handleQueueDance(c *fiber.Ctx) error {
	var req NamedMoveRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}
	if req.Duration <= 0 {
		req.Duration = 10.0
	}

	s.rt.Manager().QueueDance(req.Name, secs(req.Duration))
	return c.JSON(fiber.Map{"queued": true, "name": req.Name})
}

func (s *Server) handleQueueEmotion(c *fiber.Ctx) error {
	var req NamedMoveRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}
	if req.Duration <= 0 {
		req.Duration = 5.0
	}

	s.rt.Manager().QueueEmotion(req.Name, secs(req.Duration))
	return c.JSON(fiber.Map{"queued": true, "name": req.Name})
}

func (s *Server) handleClearDance(c *fiber.Ctx) error {
	removed := s.rt.Manager().ClearDanceQueue()
	return c.JSON(fiber.Map{"removed": removed})
}

func (s *Server) handleClearEmotion(c *fiber.Ctx) error {
	removed := s.rt.Manager().ClearEmotionQueue()
	return c.JSON(fiber.Map{"removed": removed})
}

// TrackingRequest toggles head tracking and sets the current offset.
type TrackingRequest struct {
	Enabled bool    `json:"enabled"`
	DX      float64 `json:"dx"`
	DY      float64 `json:"dy"`
	DZ      float64 `json:"dz"`
}

func (s *Server) handleTracking(c *fiber.Ctx) error {
	var req TrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}

	m := s.rt.Manager()
	m.SetHeadTrackingEnabled(req.Enabled)
	if req.Enabled {
		m.SetHeadTrackingOffset(req.DX, req.DY, req.DZ)
	}
	return c.JSON(fiber.Map{"tracking": req.Enabled})
}

// ListeningRequest toggles listening mode.
type ListeningRequest struct {
	Listening bool `json:"listening"`
}

func (s *Server) handleListening(c *fiber.Ctx) error {
	var req ListeningRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}

	s.rt.Manager().SetListeningMode(req.Listening)
	return c.JSON(fiber.Map{"listening": req.Listening})
}

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
