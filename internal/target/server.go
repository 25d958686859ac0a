/*
 *  Copyright 2026 porterlab
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// Package target serves the endpoints the load scenarios are aimed at.
package target

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	headerResponseTime  = "X-Response-Time"
	defaultResponseTime = time.Second

	shutdownTimeout = 5 * time.Second
)

type Server interface {
	Run(ctx context.Context) error
	ServeHTTP(w http.ResponseWriter, req *http.Request)
}

type server struct {
	engine *gin.Engine
	srv    *http.Server
}

func NewServer(addr string) Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &server{
		engine: engine,
		srv: &http.Server{
			Addr:    addr,
			Handler: engine,
		},
	}
	s.registerRoutes()
	return s
}

func (s *server) registerRoutes() {
	s.engine.GET("/empty", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	s.engine.GET("/hello", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello world\n")
	})
	s.engine.GET("/load", handleLoad)
}

// handleLoad responds after the delay given in X-Response-Time, one second by default.
func handleLoad(c *gin.Context) {
	d := defaultResponseTime
	if v := c.GetHeader(headerResponseTime); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		d = parsed
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		c.Status(http.StatusOK)
	case <-c.Request.Context().Done():
		c.Status(499)
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Target server listening.", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("Target server stopped.")
	return nil
}

func (s *server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.engine.ServeHTTP(w, req)
}
