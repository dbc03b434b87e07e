package handler

import (
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// actorID returns the authenticated user's ID that RequireRole stored in the
// context. Empty when the route is somehow reached unauthenticated.
func actorID(c *gin.Context) string {
	v, _ := c.Get("userID")
	s, _ := v.(string)
	return s
}

func actorRole(c *gin.Context) string {
	v, _ := c.Get("userRole")
	s, _ := v.(string)
	return s
}

// fail writes the standard error envelope for a service error, mapping the
// error kind to its HTTP status.
func fail(c *gin.Context, err error) {
	status, body := response.FromError(err)
	c.JSON(status, body)
}
