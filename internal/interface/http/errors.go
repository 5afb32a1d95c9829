package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-relations/pkg/apperror"
	"github.com/oksasatya/go-user-relations/pkg/response"
)

// respondError maps err to its status and writes the error envelope. 5xx are logged.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	h := apperror.ToHTTP(err)
	if h.StatusCode >= 500 && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	response.FromError(c, err)
}
