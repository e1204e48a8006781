package wire

import (
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/adaptor"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/repository"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/storage"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/middleware"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the wired HTTP surface.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services and handlers and mounts every route. gatherer
// backs /metrics; nil means the default prometheus registry.
func Wiring(repo *repository.Repository, config *utils.Config, ext usecase.External, gatherer prometheus.Gatherer, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, ext, logger)
	handler := adaptor.NewHandler(service, logger)

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := setupRouter(handler, service.Auth, ext, gatherer, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	auth middleware.Authenticator,
	ext usecase.External,
	gatherer prometheus.Gatherer,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger, ext.Metrics))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.HTTP.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseError(w, utils.NewError(utils.CodeNotFound, "Route not found"))
	})

	// Apply routes
	wireAuth(r, handler.Auth, auth, config, logger)
	wireCatalog(r, handler.Catalog)
	wireUser(r, handler.User, auth, logger)
	wireAppointment(r, handler.Appointment, handler.Review, auth, logger)
	wirePayment(r, handler.Payment, auth, logger)
	wireAdmin(r, handler.Admin, auth, logger)
	wireVideo(r, handler.Video, auth, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	// Files kept by the local avatar store are served by the API itself
	if local, ok := ext.Avatars.(*storage.Local); ok {
		r.Method(http.MethodGet, storage.LocalPrefix+"*", local.Handler())
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
