package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
)

const swaggerUI = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>%s - Swagger UI</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
    SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui",
        presets: [SwaggerUIBundle.presets.apis],
        layout: "BaseLayout"
    });
    </script>
</body>
</html>`

// RegisterSwagger serves the OpenAPI document and a Swagger UI page for it.
// Nothing is mounted when spec is empty.
func RegisterSwagger(r fiber.Router, title string, spec []byte) bool {
	if len(spec) == 0 {
		return false
	}

	const docPath = "/swagger/doc.yaml"
	page := fmt.Sprintf(swaggerUI, title, docPath)

	r.Get(docPath, func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(spec)
	})
	r.Get("/swagger/*", func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(page)
	})
	return true
}
