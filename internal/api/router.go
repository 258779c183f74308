// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the HTTP surface for the handler.
func Router(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/crisis", func(r chi.Router) {
			r.Get("/", h.ActiveCrisis)
			r.Post("/start", h.StartCrisis)
			r.Post("/stop", h.StopCrisis)
			r.Post("/pause", h.PauseCrisis)
			r.Post("/resume", h.ResumeCrisis)
			r.Post("/advance", h.AdvancePhase)
			r.Post("/phase", h.SetPhase)
			r.Get("/forecast", h.CrisisForecast)
			r.Get("/acceleration", h.GetAcceleration)
			r.Post("/acceleration", h.SetAcceleration)
			r.Post("/auto-advance", h.SetAutoAdvance)
		})

		r.Route("/scan", func(r chi.Router) {
			r.Post("/trigger", h.TriggerScan)
			r.Post("/pause", h.PauseScans)
			r.Post("/resume", h.ResumeScans)
			r.Get("/stats", h.ScanStats)
		})

		r.Route("/threats", func(r chi.Router) {
			r.Get("/", h.ListThreats)
			r.Get("/{id}", h.GetThreat)
		})

		r.Post("/admin/reset", h.Reset)
	})

	return r
}
