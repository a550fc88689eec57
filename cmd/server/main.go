// Copyright 2025 Clipstream, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// *****************************************************************************************************//
// Package main is the entry point for the video indexer server.
//
// This application sets up and runs a web server using the Gin framework. It
// provides a REST API for uploading videos, searching the semantic index,
// browsing detected events, and tagging face identities. The server is
// instrumented with OpenTelemetry for logging, tracing, and metrics.
//
// The main function initializes the application's configuration, sets up
// logging and telemetry, and initializes the application state, including the
// SQLite stores and the processing pipeline. Uploaded videos are dispatched
// through the pipeline in the background; the API exposes their progress and
// results.
//
// Functions:
//   - main: The main entry point. It sets up the server, configures routes,
//     initializes services, and handles graceful shutdown.
//   - SearchRouter: Semantic search over the indexed videos.
//   - VideoRouter: Video listing and per-video status.
//   - FaceRouter: Face cluster views, identity tagging, and person search.
//   - EventRouter: Detected event timelines and video summaries.
//   - FileUpload: The multipart/form-data upload endpoint that feeds the
//     pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/clipstream/go-video-indexer/internal/storage"
	"github.com/clipstream/go-video-indexer/internal/telemetry"
)

// main is the primary entry point for the application. It orchestrates the
// setup of logging, telemetry, configuration, the stores and pipeline, the
// web server, and API routes, and handles graceful shutdown on interrupt.
func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := GetConfig()

	otelShutdown, err := telemetry.SetupOpenTelemetry(ctx, cfg)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	state.otelShutdown = otelShutdown
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()

	// Trace every incoming request.
	r.Use(otelgin.Middleware(cfg.Application.Name))

	// cors.Default() is permissive, which suits local development.
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		SearchRouter(apiV1)
		VideoRouter(apiV1)
		FaceRouter(apiV1)
		EventRouter(apiV1)
		FileUpload(apiV1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Application.Port),
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", cfg.Application.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// Give active requests 5 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	// Let in-flight pipeline runs finish before tearing anything down; a
	// run killed mid-stage would leave its video stuck in a partial status.
	state.runner.Wait()

	if state.db != nil {
		if err := state.db.Close(); err != nil {
			slog.Error("Database close failed:", "error", err)
		}
	}
	if err := state.otelShutdown(shutdownCtx); err != nil {
		slog.Error("Telemetry shutdown failed:", "error", err)
	}

	log.Println("Server exiting")
}

// SearchRouter sets up the semantic search endpoint.
//
// This function defines the following endpoint:
//   - GET /search: Searches indexed content for the query string 's', with
//     an optional 'video_id' scope and a 'count' result limit.
func SearchRouter(r *gin.RouterGroup) {
	search := r.Group("/search")
	{
		// Handler for GET /search?s=<query>&video_id=<id>&count=<n>
		search.GET("", func(c *gin.Context) {
			query := c.Query("s")
			if len(query) == 0 {
				c.Status(http.StatusBadRequest)
				return
			}
			videoID := c.Query("video_id")
			count, err := strconv.Atoi(c.DefaultQuery("count", "0"))
			if err != nil {
				count = 0
			}
			results, err := state.searchService.Search(c, query, videoID, count)
			if err != nil {
				log.Printf("Error searching index: %v\n", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, results)
		})
	}
}

// VideoRouter sets up the video listing routes.
//
// This function defines the following endpoints:
//   - GET /videos: Lists all known videos with their processing status.
//   - GET /videos/:id: Retrieves one video by its ID.
func VideoRouter(r *gin.RouterGroup) {
	videos := r.Group("/videos")
	{
		videos.GET("", func(c *gin.Context) {
			out, err := state.videoService.List(c)
			if err != nil {
				log.Printf("Error listing videos: %v\n", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		videos.GET("/:id", func(c *gin.Context) {
			out, err := state.videoService.Get(c, c.Param("id"))
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}

// tagRequest is the body of the face tagging endpoint.
type tagRequest struct {
	FaceID     string `json:"face_id" binding:"required"`
	PersonName string `json:"person_name" binding:"required"`
}

// FaceRouter sets up the face identity routes.
//
// This function defines the following endpoints:
//   - GET /faces/clusters: The cluster view of one video's faces.
//   - POST /faces/tag: Names the person behind a face, propagating the name
//     through the face's cluster.
//   - GET /faces/search: Every appearance of a named person across videos.
//   - GET /faces/people: The tagged person names with their tag counts.
func FaceRouter(r *gin.RouterGroup) {
	faces := r.Group("/faces")
	{
		// Handler for GET /faces/clusters?video_id=<id>
		faces.GET("/clusters", func(c *gin.Context) {
			videoID := c.Query("video_id")
			if len(videoID) == 0 {
				c.Status(http.StatusBadRequest)
				return
			}
			clusters, err := state.faceService.Clusters(c, videoID)
			if err != nil {
				log.Printf("Error fetching clusters for %s: %v\n", videoID, err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, clusters)
		})

		// Handler for POST /faces/tag
		faces.POST("/tag", func(c *gin.Context) {
			var req tagRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.String(http.StatusBadRequest, "bind tag request err: %s", err.Error())
				return
			}
			tagged, err := state.faceService.Tag(c, req.FaceID, req.PersonName)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					c.Status(http.StatusNotFound)
					return
				}
				log.Printf("Error tagging face %s: %v\n", req.FaceID, err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, gin.H{"faces_tagged": tagged})
		})

		// Handler for GET /faces/search?person_name=<name>
		faces.GET("/search", func(c *gin.Context) {
			personName := c.Query("person_name")
			if len(personName) == 0 {
				c.Status(http.StatusBadRequest)
				return
			}
			appearances, err := state.faceService.SearchByPerson(c, personName)
			if err != nil {
				log.Printf("Error searching for person %s: %v\n", personName, err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, appearances)
		})

		faces.GET("/people", func(c *gin.Context) {
			people, err := state.faceService.People(c)
			if err != nil {
				log.Printf("Error listing people: %v\n", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, people)
		})
	}
}

// EventRouter sets up the event artifact routes.
//
// This function defines the following endpoints:
//   - GET /events/:video_id: The full event timeline of one video.
//   - GET /summary/:video_id: Just the summary portion of the artifact.
func EventRouter(r *gin.RouterGroup) {
	r.GET("/events/:video_id", func(c *gin.Context) {
		artifact, err := state.eventService.GetEvents(c, c.Param("video_id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.Status(http.StatusNotFound)
				return
			}
			log.Printf("Error fetching events: %v\n", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, artifact)
	})

	r.GET("/summary/:video_id", func(c *gin.Context) {
		summary, err := state.eventService.GetSummary(c, c.Param("video_id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.Status(http.StatusNotFound)
				return
			}
			log.Printf("Error fetching summary: %v\n", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}

// FileUpload sets up the route for handling file uploads.
//
// This function configures a POST endpoint at "/uploads" that accepts
// multipart/form-data. It saves each file sent under the "files" form field
// into the configured upload directory and dispatches it through the
// processing pipeline. The response maps each file name to the video id it
// was admitted under; progress is observable through GET /videos.
func FileUpload(r *gin.RouterGroup) {
	upload := r.Group("/uploads")
	{
		// Handler for POST /uploads
		upload.POST("", func(c *gin.Context) {
			form, err := c.MultipartForm()
			if err != nil {
				c.String(http.StatusBadRequest, "get form err: %s", err.Error())
				return
			}
			files := form.File["files"]
			if len(files) == 0 {
				c.String(http.StatusBadRequest, "no files in upload")
				return
			}

			uploadDir := state.config.Storage.UploadDir
			if err := os.MkdirAll(uploadDir, 0o755); err != nil {
				log.Printf("Error creating upload dir: %v\n", err)
				c.Status(http.StatusInternalServerError)
				return
			}

			admitted := make(map[string]string, len(files))
			for _, file := range files {
				localPath := filepath.Join(uploadDir, filepath.Base(file.Filename))
				if err := c.SaveUploadedFile(file, localPath); err != nil {
					c.String(http.StatusBadRequest, "upload file err: %s", err.Error())
					return
				}

				videoID, err := state.runner.Process(c, localPath, file.Filename)
				if err != nil {
					c.String(http.StatusBadRequest, "process file err: %s", err.Error())
					return
				}
				admitted[file.Filename] = videoID
			}
			c.JSON(http.StatusOK, gin.H{"video_ids": admitted})
		})
	}
}
