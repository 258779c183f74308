// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package api

import (
	"errors"
	"net/http"

	"github.com/crisislab/infodemic/internal/models"
)

// domainError maps the domain error taxonomy onto HTTP responses.
// Unclassified errors become opaque 500s; their detail goes to the log,
// not the client.
func (rw *ResponseWriter) domainError(err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	case errors.Is(err, models.ErrNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, models.ErrConflict):
		rw.Error(http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		rw.logger.Error().Err(err).Str("path", rw.r.URL.Path).Msg("request failed")
		rw.InternalError("internal error")
	}
}
