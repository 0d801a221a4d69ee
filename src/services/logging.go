package services

import (
	"errors"

	"github.com/sirupsen/logrus"

	"pos-recipe-engine/src/config"
	"pos-recipe-engine/src/models"
)

// logFailure keeps rejected requests at warn level and reports everything
// else as an error.
func logFailure(l *logrus.Logger, module, funcName, context string, data any, err error) {
	logger := loggerOr(l)
	if isBusinessError(err) {
		logger.WithFields(logrus.Fields{
			"module":   module,
			"funcName": funcName,
			"context":  context,
			"data":     data,
		}).Warn(err.Error())
		return
	}
	config.LogError(logger, module, funcName, context, data, err)
}

func isBusinessError(err error) bool {
	for _, target := range []error{
		models.ErrValidation,
		models.ErrNotFound,
		models.ErrTenantRequired,
		models.ErrInsufficientStock,
		models.ErrInsufficientMaterials,
		models.ErrDeletionBlocked,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
