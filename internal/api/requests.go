// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = validator.New()

// StartCrisisRequest is the body for POST /crisis/start.
type StartCrisisRequest struct {
	Type string `json:"type" validate:"required"`
}

// SetPhaseRequest is the body for POST /crisis/phase.
type SetPhaseRequest struct {
	Phase string `json:"phase" validate:"required"`
}

// SetAccelerationRequest is the body for POST /crisis/acceleration.
type SetAccelerationRequest struct {
	Factor float64 `json:"factor" validate:"required,gte=1,lte=100"`
}

// AutoAdvanceRequest is the body for POST /crisis/auto-advance.
type AutoAdvanceRequest struct {
	Enabled bool `json:"enabled"`
}

// decodeAndValidate reads a JSON body into dst and runs validator tags.
// On failure it writes the error response and returns false.
func decodeAndValidate(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rw.BadRequest(fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var details []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, fmt.Sprintf("field %s failed %s validation", fe.Field(), fe.Tag()))
			}
		}
		rw.ValidationError("request validation failed", details)
		return false
	}
	return true
}

// queryInt extracts an integer query parameter with a default value.
func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// queryFloat extracts a float query parameter with a default value.
func queryFloat(r *http.Request, key string, defaultValue float64) float64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
