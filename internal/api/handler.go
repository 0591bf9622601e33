// Package api exposes the receiver over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wormhole-demo/nft-receiver/internal"
	"github.com/wormhole-demo/nft-receiver/internal/replay"
)

// maxBodyBytes bounds a submission body. A VAA carries at most 255
// signatures, so this leaves ample room for the payload.
const maxBodyBytes = 64 << 10

// Receiver is satisfied by *internal.Receiver.
type Receiver interface {
	Receive(ctx context.Context, sub internal.Submission) internal.Result
}

// Lookup is the read side of a replay.Registry.
type Lookup interface {
	Lookup(ctx context.Context, id replay.MessageID) (*replay.Record, error)
}

// Handler wires the HTTP endpoints to the receiver.
type Handler struct {
	receiver Receiver
	lookup   Lookup
	feePayer solana.PublicKey
	limiter  *rate.Limiter
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

type Config struct {
	// FeePayer pays for every submission. Callers cannot override it.
	FeePayer solana.PublicKey
	// Limiter throttles POST /v1/vaas. Nil disables throttling.
	Limiter *rate.Limiter
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

func New(logger *zap.Logger, config Config, receiver Receiver, lookup Lookup) *Handler {
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		receiver: receiver,
		lookup:   lookup,
		feePayer: config.FeePayer,
		limiter:  config.Limiter,
		gatherer: config.Gatherer,
		logger:   logger.With(zap.String("component", "API")),
	}
}

// Router builds the chi router serving every endpoint.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/health", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	h.Register(r)
	return r
}

// Register mounts the versioned endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.With(h.rateLimit).Post("/vaas", h.HandleSubmit)
		r.Get("/messages/{chain}/{emitter}/{sequence}", h.HandleLookup)
	})
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSubmit handles POST /v1/vaas.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	raw, err := internal.DecodeVAAString(req.VAA)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.receiver.Receive(r.Context(), internal.Submission{
		VAA:           raw,
		FeePayer:      h.feePayer,
		SystemProgram: solana.SystemProgramID,
		TxID:          req.TxID,
	})

	h.logger.Debug("Submission handled",
		zap.String("requestId", middleware.GetReqID(r.Context())),
		zap.String("state", string(res.State)),
		zap.String("reason", string(res.Reason)))

	writeJSON(w, statusFor(res.Reason), FromResult(res))
}

// HandleLookup handles GET /v1/messages/{chain}/{emitter}/{sequence}.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	id, err := replay.NewMessageID(chi.URLParam(r, "chain"), chi.URLParam(r, "emitter"), chi.URLParam(r, "sequence"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.lookup.Lookup(r.Context(), id)
	if err != nil {
		h.logger.Error("Replay lookup failed", zap.String("messageId", id.String()), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "replay registry unavailable")
		return
	}

	resp := FromRecord(id, record)
	if !resp.Consumed {
		writeJSON(w, http.StatusNotFound, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(reason internal.Reason) int {
	switch reason {
	case internal.ReasonNone:
		return http.StatusOK
	case internal.ReasonPrecondition, internal.ReasonDecode:
		return http.StatusBadRequest
	case internal.ReasonVerification, internal.ReasonInvalidPayload:
		return http.StatusUnprocessableEntity
	case internal.ReasonAlreadyConsumed:
		return http.StatusConflict
	case internal.ReasonReplayUnavailable:
		return http.StatusServiceUnavailable
	case internal.ReasonMintFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
