/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the process's metrics/health HTTP listener — ServerConfig's
// MetricsPort in internal/config. It is kept deliberately separate from
// any webhook ingress: the documented contract treats inbound HTTP transport
// as an external collaborator, so the only HTTP surface this core module
// owns is this observability endpoint.
type Server struct {
	server *http.Server
	log    logr.Logger
}

func NewServer(port string, log logr.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		server: &http.Server{Addr: fmt.Sprintf(":%s", port), Handler: mux},
		log:    log,
	}
}

// StartAsync begins serving in a background goroutine. Errors other than
// the expected http.ErrServerClosed on shutdown are logged, not returned,
// since this endpoint is secondary to the worker pool's own lifecycle.
func (s *Server) StartAsync() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error(err, "metrics server exited")
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
