/*
 * Copyright 2025 Carver Automation Corporation.
 *
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

// Package responder serves the OS connectivity probe endpoints on the
// loopback-redirected probe host. The OS decides it is online only when
// the probe body matches byte for byte, so the handlers here answer with
// the exact expected payloads and degrade to 503 when the upstream
// reachability verdict is negative.
package responder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/ncsid/ncsid/pkg/logger"
	"github.com/ncsid/ncsid/pkg/models"
	"github.com/ncsid/ncsid/pkg/version"
)

// ConnectTestBody is the payload the OS compares the probe response
// against. Anything else, including extra whitespace, reads as a captive
// portal.
const ConnectTestBody = "Microsoft Connect Test"

const (
	connectTestPath = "/connecttest.txt"
	redirectPath    = "/redirect"

	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
	defaultIdleTimeout  = 30 * time.Second
)

// VerdictSource supplies the current reachability verdict. Satisfied by
// netcheck.Cache.
type VerdictSource interface {
	Get(ctx context.Context) models.Verdict
}

// Stats is a point-in-time snapshot of the request counters.
type Stats struct {
	Total    uint64 `json:"total"`
	Served   uint64 `json:"served"`
	Offline  uint64 `json:"offline"`
	NotFound uint64 `json:"not_found"`
}

// Server answers connectivity probe requests on a fixed local port.
type Server struct {
	cfg      models.ResponderConfig
	verdicts VerdictSource
	router   *mux.Router
	redirect []byte
	logger   logger.Logger

	httpSrv  *http.Server
	listener net.Listener

	total    atomic.Uint64
	served   atomic.Uint64
	offline  atomic.Uint64
	notFound atomic.Uint64
}

// NewServer builds a responder. The redirect payload is loaded from
// cfg.RedirectContentPath when set, otherwise the embedded default is
// used.
func NewServer(cfg models.ResponderConfig, verdicts VerdictSource, log logger.Logger) (*Server, error) {
	redirect, err := loadRedirectContent(cfg.RedirectContentPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		verdicts: verdicts,
		router:   mux.NewRouter(),
		redirect: redirect,
		logger:   log,
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	paths := map[string]bool{connectTestPath: true}
	for _, alias := range s.cfg.ConnectTestAliases {
		paths[strings.ToLower(alias)] = true
	}

	for path := range paths {
		s.router.HandleFunc(path, s.handleConnectTest).Methods(http.MethodGet, http.MethodHead)
	}

	s.router.HandleFunc(redirectPath, s.handleRedirect).Methods(http.MethodGet, http.MethodHead)
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Handler returns the full middleware chain, exported so tests and the
// self-test can drive it without a listener.
func (s *Server) Handler() http.Handler {
	return s.withProbeHeaders(s.router)
}

// withProbeHeaders counts and logs the request, stamps the Server
// header and folds the path to lower case. The OS probe client is not
// consistent about casing across Windows builds, and query strings are
// ignored.
func (s *Server) withProbeHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.total.Add(1)

		if s.logger != nil {
			s.logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Str("origin", clientOrigin(r.RemoteAddr)).
				Msg("Probe request")
		}

		w.Header().Set("Server", fmt.Sprintf("NCSI-Resolver/%s", version.GetVersion()))

		r.URL.Path = strings.ToLower(r.URL.Path)
		r.URL.RawQuery = ""

		next.ServeHTTP(w, r)
	})
}

// clientOrigin classifies the requesting client. Once redirection is
// applied the OS probe arrives from loopback; anything else is another
// host on the network that found the responder.
func clientOrigin(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return "localhost"
	}

	return "external"
}

func (s *Server) handleConnectTest(w http.ResponseWriter, r *http.Request) {
	verdict := s.verdicts.Get(r.Context())

	if !verdict.Online {
		s.answerOffline(w, r)

		return
	}

	s.served.Add(1)

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(ConnectTestBody))
	}
}

// handleRedirect serves the redirect payload only while online. Offline
// it answers 503 like the probe endpoint: a captive-portal page handed
// out without connectivity would be trusted as a real portal.
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	verdict := s.verdicts.Get(r.Context())

	if !verdict.Online {
		s.answerOffline(w, r)

		return
	}

	s.served.Add(1)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		_, _ = w.Write(s.redirect)
	}
}

func (s *Server) answerOffline(w http.ResponseWriter, r *http.Request) {
	s.offline.Add(1)

	if s.logger != nil {
		s.logger.Warn().
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Msg("Probe request while offline")
	}

	http.Error(w, "connectivity check failed", http.StatusServiceUnavailable)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.notFound.Add(1)

	if s.logger != nil {
		s.logger.Debug().
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Msg("Unknown probe path")
	}

	http.NotFound(w, r)
}

// Start binds the listener and begins serving. The bind happens
// synchronously so a busy port is reported to the caller rather than
// discovered later in a log line.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("0.0.0.0:%d", s.cfg.Port)

	lc := &net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		if isAddrInUse(err) {
			return fmt.Errorf("%w: %s", models.ErrPortInUse, addr)
		}

		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.httpSrv = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	if s.logger != nil {
		s.logger.Info().
			Str("addr", addr).
			Msg("Probe responder listening")
	}

	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.logger != nil {
				s.logger.Error().Err(err).Msg("Probe responder stopped unexpectedly")
			}
		}
	}()

	return nil
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}

	timeout := s.cfg.ShutdownTimeout.Duration()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown probe responder: %w", err)
	}

	return nil
}

// Addr returns the bound listener address, valid after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Stats returns the request counters.
func (s *Server) Stats() Stats {
	return Stats{
		Total:    s.total.Load(),
		Served:   s.served.Load(),
		Offline:  s.offline.Load(),
		NotFound: s.notFound.Load(),
	}
}

// isAddrInUse recognizes a bind conflict across platforms. Windows
// reports WSAEADDRINUSE with its own message, which syscall.EADDRINUSE
// does not match.
func isAddrInUse(err error) bool {
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}

	return strings.Contains(err.Error(), "Only one usage of each socket address")
}
