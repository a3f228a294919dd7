package health

import (
	"context"
	"net/http"
	"time"

	httputil "clinic/pkg/http"
	kafkamiddleware "clinic/pkg/kafka/middleware"
	"clinic/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const readyTimeout = 2 * time.Second

// Checker is one dependency /ready reports on.
type Checker interface {
	Name() string
	Ping(ctx context.Context) error
}

type mongoChecker struct{ client *mongo.Client }

func MongoChecker(client *mongo.Client) Checker { return mongoChecker{client: client} }

func (c mongoChecker) Name() string { return "database" }

func (c mongoChecker) Ping(ctx context.Context) error { return c.client.Ping(ctx, nil) }

type redisChecker struct{ client *redis.Client }

func RedisChecker(client *redis.Client) Checker { return redisChecker{client: client} }

func (c redisChecker) Name() string { return "redis" }

func (c redisChecker) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }

type HealthResponse struct {
	Status       string                    `json:"status"`
	Dependencies map[string]string         `json:"dependencies,omitempty"`
	Events       *kafkamiddleware.Snapshot `json:"events,omitempty"`
}

type HealthHandler struct {
	checkers []Checker
	events   *kafkamiddleware.Counters
	log      *logger.Logger
}

// NewHealthHandler builds the liveness and readiness endpoints. events may
// be nil when the process does not publish.
func NewHealthHandler(log *logger.Logger, events *kafkamiddleware.Counters, checkers ...Checker) *HealthHandler {
	return &HealthHandler{
		checkers: checkers,
		events:   events,
		log:      log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ready", Dependencies: make(map[string]string, len(h.checkers))}
	status := http.StatusOK
	for _, checker := range h.checkers {
		if err := checker.Ping(ctx); err != nil {
			h.log.Error("Health check failed",
				"dependency", checker.Name(),
				"error", err,
				"path", r.URL.Path,
			)
			resp.Dependencies[checker.Name()] = "error"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[checker.Name()] = "ok"
	}

	if h.events != nil {
		snapshot := h.events.Snapshot()
		resp.Events = &snapshot
	}

	httputil.WriteJSON(w, status, resp)
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
