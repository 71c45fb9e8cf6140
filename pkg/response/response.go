package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/renningen-dev/bobbervox/pkg/errors"
)

// Success writes a 200 response with the standard envelope.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": message, "data": data})
}

// Created writes a 201 response for newly created resources.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// OK writes a bare 200 JSON body without the envelope, for resource reads.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// NoContent writes an empty 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail writes a 400 response with a detail string.
func Fail(c *gin.Context, message string, data interface{}) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": message, "data": data})
}

// Error maps a coded error to its HTTP status and writes the detail. Errors
// without a code come back as 500.
func Error(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errors.HTTPStatus(err), gin.H{"detail": err.Error()})
}
