package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/pkg/validator"
)

// parseRequest разбирает тело запроса и проверяет validate теги
func parseRequest(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"body": err.Error(),
		})
	}
	return validator.Validate(req)
}
