package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS - разрешённые источники клиентов-редакторов. Пустой список открывает API всем без credentials
func CORS(origins []string) fiber.Handler {
	cfg := cors.Config{
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Content-Type,Accept,Authorization",
		ExposeHeaders: "Content-Length",
		MaxAge:        600,
	}

	if len(origins) == 0 {
		cfg.AllowOrigins = "*"
		return cors.New(cfg)
	}

	cfg.AllowOrigins = strings.Join(origins, ",")
	cfg.AllowCredentials = true
	return cors.New(cfg)
}
