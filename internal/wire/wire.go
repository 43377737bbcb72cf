package wire

import (
	"net/http"

	"lesson-pix/internal/adaptor"
	"lesson-pix/internal/data/repository"
	"lesson-pix/internal/usecase"
	"lesson-pix/pkg/middleware"
	"lesson-pix/pkg/qrcode"
	"lesson-pix/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired dependencies
type App struct {
	Router  *chi.Mux
	Sweeper *usecase.ExpirySweeper
}

// Wiring builds services, handlers and the router
func Wiring(repo *repository.Repository, renderer qrcode.Renderer, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, renderer, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, config, logger)

	return &App{
		Router:  router,
		Sweeper: usecase.NewExpirySweeper(repo, logger),
	}
}

func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wirePix(r, handler.Pix, config, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
