/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package router exposes crudgrid controllers over HTTP with chi.
//
// Every registered resource gets, under the snake_case name of its entity:
//
//	GET|POST /        list, single record or page
//	POST     /update  upsert, unless disabled
//	POST     /delete  bulk delete, unless disabled
package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gobeam/stringy"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/crudgrid"
	"github.com/tomoncle/crudgrid/database"
	"github.com/tomoncle/crudgrid/metrics"
	"github.com/tomoncle/crudgrid/types"
	"github.com/tomoncle/crudgrid/utils"
)

// Operation names used in logs and metrics.
const (
	OpIndex   = "index"
	OpUpdate  = "update"
	OpDestroy = "destroy"
)

// Router mounts grid resources on a chi router.
type Router struct {
	mux     chi.Router
	logger  *logrus.Logger
	metrics *metrics.Metrics
	routes  map[string]crudgrid.Resource
}

// Option configures a Router.
type Option func(*Router)

// WithMetrics records every operation and serves GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithLogger replaces the request logger.
func WithLogger(l *logrus.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithHealth serves GET /healthz backed by check.
func WithHealth(check func(ctx context.Context) *database.HealthStatus) Option {
	return func(r *Router) {
		r.mux.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
			status := check(req.Context())
			code := http.StatusOK
			if !status.Healthy {
				code = http.StatusServiceUnavailable
			}
			writeJSON(w, code, status)
		})
	}
}

// New returns a router with request id, real ip, panic recovery and
// request logging installed.
func New(opts ...Option) *Router {
	r := &Router{
		mux:    chi.NewRouter(),
		logger: utils.NewLogger("ROUTER"),
		routes: make(map[string]crudgrid.Resource),
	}
	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.RealIP)
	r.mux.Use(middleware.Recoverer)
	r.mux.Use(r.requestLogger)
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics != nil {
		r.mux.Method(http.MethodGet, "/metrics", r.metrics.Handler())
	}
	return r
}

// Path returns the route prefix of res, e.g. "/article_tag" for ArticleTag.
func Path(res crudgrid.Resource) string {
	return "/" + stringy.New(res.EntityName()).SnakeCase("?", "").ToLower()
}

// Register mounts res under Path(res) and returns that prefix.
func (r *Router) Register(res crudgrid.Resource) string {
	prefix := Path(res)
	name := prefix[1:]
	r.routes[name] = res

	r.mux.Route(prefix, func(sub chi.Router) {
		index := r.indexHandler(name, res)
		sub.Get("/", index)
		sub.Post("/", index)
		if res.RouteUpdate() {
			sub.Post("/update", r.updateHandler(name, res))
		}
		if res.RouteDestroy() {
			sub.Post("/delete", r.destroyHandler(name, res))
		}
	})
	r.logger.WithFields(logrus.Fields{
		"entity":  res.EntityName(),
		"prefix":  prefix,
		"update":  res.RouteUpdate(),
		"destroy": res.RouteDestroy(),
	}).Info("Grid resource registered")
	return prefix
}

// Resources returns the registered resources by route name.
func (r *Router) Resources() map[string]crudgrid.Resource {
	out := make(map[string]crudgrid.Resource, len(r.routes))
	for k, v := range r.routes {
		out[k] = v
	}
	return out
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Mux exposes the chi router for additional routes.
func (r *Router) Mux() chi.Router { return r.mux }

func (r *Router) indexHandler(name string, res crudgrid.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		gridReq, ok := r.decode(w, req, name, OpIndex, start)
		if !ok {
			return
		}
		resp, err := res.Index(req.Context(), gridReq)
		r.finish(w, req, name, OpIndex, start, resp, err)
	}
}

func (r *Router) updateHandler(name string, res crudgrid.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		gridReq, ok := r.decode(w, req, name, OpUpdate, start)
		if !ok {
			return
		}
		resp, err := res.Update(req.Context(), gridReq)
		r.finish(w, req, name, OpUpdate, start, resp, err)
	}
}

func (r *Router) destroyHandler(name string, res crudgrid.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		gridReq, ok := r.decode(w, req, name, OpDestroy, start)
		if !ok {
			return
		}
		r.finish(w, req, name, OpDestroy, start, res.Destroy(req.Context(), gridReq), nil)
	}
}

func (r *Router) decode(w http.ResponseWriter, req *http.Request, name, op string, start time.Time) (*crudgrid.Request, bool) {
	gridReq, err := DecodeRequest(req)
	if err != nil {
		r.metrics.Observe(name, op, metrics.StatusError, time.Since(start))
		writeJSON(w, http.StatusBadRequest, &crudgrid.Response{Status: false, Message: err.Error()})
		return nil, false
	}
	return gridReq, true
}

func (r *Router) finish(w http.ResponseWriter, req *http.Request, name, op string, start time.Time, resp *crudgrid.Response, err error) {
	if err != nil {
		r.metrics.Observe(name, op, metrics.StatusError, time.Since(start))
		r.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(req.Context()),
			"entity":     name,
			"operation":  op,
			"error":      err,
		}).Error("Grid operation failed")
		code := http.StatusInternalServerError
		if errors.Is(err, crudgrid.ErrInvalidRequest) {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, &crudgrid.Response{Status: false, Message: err.Error()})
		return
	}
	status := metrics.StatusOK
	if !resp.Status {
		status = metrics.StatusFailed
	}
	r.metrics.Observe(name, op, status, time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		r.logger.WithFields(logrus.Fields{
			"request_id":   middleware.GetReqID(req.Context()),
			"client_ip":    req.RemoteAddr,
			"req_method":   req.Method,
			"req_uri":      req.RequestURI,
			"status_code":  ww.Status(),
			"latency_time": utils.Since(start),
		}).Info("Request handled")
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = types.JSON.NewEncoder(w).Encode(v)
}
