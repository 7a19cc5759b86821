// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/campus-kb/portal/services/orchestrator/handlers"
	"github.com/campus-kb/portal/services/orchestrator/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the components the routes serve.
//
// Gatherer backs /metrics; when nil the endpoint is not registered.
type Deps struct {
	Answerer handlers.Answerer
	Searcher handlers.Searcher
	Metrics  *observability.HTTPMetrics
	Gatherer prometheus.Gatherer
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	{
		v1.POST("/answer", handlers.HandleAnswer(deps.Answerer, deps.Metrics))
		v1.GET("/search", handlers.HandleSearch(deps.Searcher, deps.Answerer, deps.Metrics))
	}
}
