package handlers

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/username/tradenorm/src/services"
	"github.com/username/tradenorm/src/utils"
)

// RouterConfig carries the knobs the HTTP surface needs from AppConfig.
type RouterConfig struct {
	MaxUploadSizeBytes int64
	AllowedOrigins     []string
	Limiter            *rate.Limiter
}

// NewRouter mounts the API routes and wraps them in CORS and rate limiting.
func NewRouter(uploadService services.UploadService, cfg RouterConfig) http.Handler {
	if cfg.Limiter == nil {
		cfg.Limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)
	}
	uploadHandler := NewUploadHandler(uploadService, cfg.MaxUploadSizeBytes)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", uploadHandler.HandleUpload)
	mux.HandleFunc("POST /api/validate", uploadHandler.HandleValidate)
	mux.HandleFunc("GET /api/batches/{id}", uploadHandler.HandleGetBatch)
	mux.HandleFunc("GET /api/brokers", HandleListBrokers)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, map[string]string{"message": "tradenorm is running"}, http.StatusOK)
	})

	return CORSMiddleware(cfg.AllowedOrigins)(RateLimitMiddleware(cfg.Limiter)(mux))
}
