// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/sdcio/threadpool/pkg/config"
	"github.com/sdcio/threadpool/pkg/load"
	"github.com/sdcio/threadpool/pkg/pool"
)

const (
	metricsNamespace = "threadpool"
	shutdownTimeout  = 5 * time.Second
)

// Server owns a worker pool, the optional load generator feeding it and the
// optional HTTP endpoint exposing its metrics.
type Server struct {
	config *config.Config

	pool *pool.Pool

	router *mux.Router
	reg    *prometheus.Registry
	http   *http.Server

	stopOnce sync.Once
	stopErr  error
}

func New(c *config.Config) (*Server, error) {
	if c == nil || c.Pool == nil {
		return nil, errors.New("missing pool config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		config: c,
		router: mux.NewRouter(),
		reg:    prometheus.NewRegistry(),
	}
	m := pool.NewMetrics(s.reg, metricsNamespace)
	s.pool = pool.New(c.Pool.Workers(),
		pool.WithName(c.Pool.Name),
		pool.WithMetrics(m),
		pool.WithLogger(log.WithField("pool", c.Pool.Name)),
	)
	s.registerRoutes()
	if c.Prometheus != nil {
		s.http = &http.Server{
			Addr:         c.Prometheus.Address,
			Handler:      s.router,
			ReadTimeout:  time.Minute,
			WriteTimeout: time.Minute,
		}
	}
	return s, nil
}

func (s *Server) registerRoutes() {
	s.reg.MustRegister(collectors.NewGoCollector())
	s.reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.router.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/workers", s.handleWorkers).Methods(http.MethodGet)
}

// Pool returns the worker pool owned by the server.
func (s *Server) Pool() *pool.Pool { return s.pool }

// Handler returns the HTTP handler serving metrics and diagnostics.
func (s *Server) Handler() http.Handler { return s.router }

// Serve runs the metrics endpoint and the load generator until ctx is done or
// the load generator finished, then stops the server.
func (s *Server) Serve(ctx context.Context) error {
	if s.http != nil {
		go s.ServeHTTP()
	}
	log.Infof("pool %q running with %d workers", s.pool.Name(), s.pool.Size())

	if s.config.Load != nil {
		stats, err := load.Run(ctx, s.pool, s.config.Load)
		if stats != nil {
			log.Infof("load finished: %s", stats)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("load generator failed: %v", err)
			return multierror.Append(err, s.Stop()).ErrorOrNil()
		}
	} else {
		<-ctx.Done()
	}
	return s.Stop()
}

func (s *Server) ServeHTTP() {
	log.Infof("serving metrics on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("HTTP server stopped: %v", err)
	}
}

// Stop drains and closes the pool, then shuts down the metrics endpoint.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		log.Infof("stopping pool %q, %d jobs pending", s.pool.Name(), s.pool.Pending())
		s.stopErr = s.pool.Close()
		if s.http != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := s.http.Shutdown(ctx); err != nil {
				log.Errorf("failed to shutdown HTTP server: %v", err)
			}
		}
	})
	return s.stopErr
}
