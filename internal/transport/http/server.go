package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"urlguard/internal/api"
	"urlguard/internal/logging"
	"urlguard/internal/metrics"
)

const (
	requestIDHeader = "X-Request-Id"
	maxBodyBytes    = 64 << 10
)

// NewHandler routes the REST API through the gRPC client and adds the
// health, readiness and metrics endpoints.
func NewHandler(client api.CheckerClient, hc healthpb.HealthClient, m *metrics.Metrics) (http.Handler, error) {
	gwMux := runtime.NewServeMux()

	routes := []struct {
		method, path string
		h            runtime.HandlerFunc
	}{
		{http.MethodGet, "/api/v1/check", checkHandler(gwMux, client)},
		{http.MethodPost, "/api/v1/check", checkHandler(gwMux, client)},
		{http.MethodGet, "/api/v1/canonicalize", canonicalizeHandler(gwMux, client)},
		{http.MethodGet, "/api/v1/expressions", expressionsHandler(gwMux, client)},
	}
	for _, rt := range routes {
		if err := gwMux.HandlePath(rt.method, rt.path, rt.h); err != nil {
			return nil, err
		}
	}

	// Main HTTP mux, routing API requests through the gateway mux
	mux := http.NewServeMux()
	mux.Handle("/", gwMux)

	// /healthz: liveness
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// /readyz: the Checker service reports SERVING once a fresh registry is loaded
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp, err := hc.Check(ctx, &healthpb.HealthCheckRequest{Service: api.ServiceName})
		if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.Handle("/metrics", m.Handler())

	return mux, nil
}

func checkHandler(mux *runtime.ServeMux, client api.CheckerClient) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		req := &api.CheckRequest{URL: r.URL.Query().Get("url")}
		if r.Method == http.MethodPost {
			if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(req); err != nil {
				writeError(mux, w, r, status.Errorf(codes.InvalidArgument, "invalid body: %v", err))
				return
			}
		}
		ctx, opts, header := outgoing(r)
		resp, err := client.Check(ctx, req, opts...)
		writeResponse(mux, w, r, header, resp, err)
	}
}

func canonicalizeHandler(mux *runtime.ServeMux, client api.CheckerClient) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		ctx, opts, header := outgoing(r)
		resp, err := client.Canonicalize(ctx, &api.CanonicalizeRequest{URL: r.URL.Query().Get("url")}, opts...)
		writeResponse(mux, w, r, header, resp, err)
	}
}

func expressionsHandler(mux *runtime.ServeMux, client api.CheckerClient) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		ctx, opts, header := outgoing(r)
		resp, err := client.Expressions(ctx, &api.ExpressionsRequest{URL: r.URL.Query().Get("url")}, opts...)
		writeResponse(mux, w, r, header, resp, err)
	}
}

// outgoing forwards the caller's request id and captures the one the
// server settles on.
func outgoing(r *http.Request) (context.Context, []grpc.CallOption, *metadata.MD) {
	ctx := r.Context()
	if id := r.Header.Get(requestIDHeader); id != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", id)
	}
	header := new(metadata.MD)
	return ctx, []grpc.CallOption{grpc.Header(header)}, header
}

func writeResponse(mux *runtime.ServeMux, w http.ResponseWriter, r *http.Request, header *metadata.MD, resp any, err error) {
	if ids := header.Get("x-request-id"); len(ids) > 0 {
		w.Header().Set(requestIDHeader, ids[0])
	}
	if err != nil {
		writeError(mux, w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.FromContext(r.Context()).Warn().Err(err).Msg("write response")
	}
}

func writeError(mux *runtime.ServeMux, w http.ResponseWriter, r *http.Request, err error) {
	_, outbound := runtime.MarshalerForRequest(mux, r)
	runtime.HTTPError(r.Context(), mux, outbound, w, r, err)
}

func RunHTTPGatewayServer(ctx context.Context, httpAddr, grpcEndpoint string, m *metrics.Metrics) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logging.FromContext(ctx)

	conn, err := grpc.NewClient(grpcEndpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	handler, err := NewHandler(api.NewCheckerClient(conn), healthpb.NewHealthClient(conn), m)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	// Graceful shutdown of the HTTP server when the parent context is canceled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http gateway: graceful shutdown error")
		}
	}()

	log.Info().Str("addr", httpAddr).Str("grpc", grpcEndpoint).Msg("HTTP gateway listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
