package server

import "github.com/gofiber/fiber/v2"

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"serverIsRunning": s.IsRunning(),
	})
}
