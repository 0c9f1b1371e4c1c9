package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/models"
	"ad-discovery-scraper/internal/observability"
	"ad-discovery-scraper/internal/scoring"
	"ad-discovery-scraper/internal/scraper"
	"ad-discovery-scraper/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// maxScoreBody bounds the JSON accepted by /score
const maxScoreBody = 32 << 20

// CloudRunHandler handles Google Cloud Run requests
type CloudRunHandler struct {
	discovery config.DiscoveryConfig
	scrape    config.ScrapeConfig
	registry  scraper.CompetitorRegistry
	sink      scraper.RecordSink
	loader    scraper.PageLoader
}

func NewCloudRunHandler(discovery config.DiscoveryConfig, scrape config.ScrapeConfig) *CloudRunHandler {
	return &CloudRunHandler{
		discovery: discovery,
		scrape:    scrape,
	}
}

// setHeaders sets JSON and CORS headers; it reports true for preflight requests
func setHeaders(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type,X-Api-Key,x-api-key")
	w.Header().Set("Access-Control-Allow-Methods", methods+",OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// Discover runs ad discovery for the q parameters (or the configured terms)
func (h *CloudRunHandler) Discover(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "GET") {
		return
	}
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	log.Info().Str("method", r.Method).Str("url", r.URL.String()).Msg("request received")

	cfg := h.discovery
	query := r.URL.Query()
	cfg = cfg.WithMode(config.Mode(query.Get("mode")))
	if v := query.Get("minDays"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "Invalid \"minDays\" query parameter", err.Error())
			return
		}
		cfg.MinActiveDays = days
	}
	if country := query.Get("country"); country != "" {
		cfg.Country = strings.ToUpper(country)
	}
	if err := config.ValidateDiscoveryConfig(&cfg); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid discovery options", err.Error())
		return
	}

	// Cap at 9 minutes to stay under the Cloud Run request limit
	timeoutMs := 540000
	if v := query.Get("timeout"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			timeoutMs = parsed
		}
	}
	if timeoutMs > 540000 {
		timeoutMs = 540000
	}
	if timeoutMs < 1000 {
		timeoutMs = 1000
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	s := scraper.NewScraper(cfg, h.scrape)
	if h.loader != nil {
		s.WithLoader(h.loader)
	}
	if h.registry != nil {
		s.WithRegistry(h.registry)
	}
	if h.sink != nil {
		s.WithSink(h.sink)
	}

	resp, err := s.Discover(ctx, query["q"])
	if err != nil {
		var timeoutErr *models.TimeoutError
		if errors.As(err, &timeoutErr) || errors.Is(err, context.DeadlineExceeded) {
			h.errorResponse(w, http.StatusGatewayTimeout, "Discovery took too long", err.Error())
			return
		}
		log.Error().Err(err).Msg("discovery failed")
		h.errorResponse(w, http.StatusBadRequest, "Discovery failed", err.Error())
		return
	}

	log.Info().Int("records", len(resp.Records)).Int64("durationMs", resp.Metadata.DurationMs).Msg("discovery complete")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Score ranks a posted batch of records; ?format=csv returns the CSV export
func (h *CloudRunHandler) Score(w http.ResponseWriter, r *http.Request) {
	if setHeaders(w, r, "POST") {
		return
	}
	if r.Method != http.MethodPost {
		h.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxScoreBody)
	defer body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	records, err := scoring.ParseRecords(raw, time.Now())
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid records", err.Error())
		return
	}

	scored := scoring.Score(records)

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := scoring.WriteCSV(w, scored); err != nil {
			log.Error().Err(err).Msg("csv export failed")
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(struct {
		Records []models.AdRecord `json:"records"`
		Summary scoring.Summary   `json:"summary"`
	}{scored, scoring.Summarize(scored)})
}

// Healthz reports liveness
func (h *CloudRunHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// errorResponse creates an error response
func (h *CloudRunHandler) errorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: message, Details: details})
}

// Routes registers every endpoint on a new mux
func (h *CloudRunHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/discover", h.Discover)
	mux.HandleFunc("/score", h.Score)
	mux.HandleFunc("/healthz", h.Healthz)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func main() {
	observability.InitLogger()

	discovery := config.DefaultDiscoveryConfig()
	if path := os.Getenv("DISCOVERY_CONFIG"); path != "" {
		loaded, err := config.LoadDiscoveryConfig(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load discovery config")
		}
		discovery = loaded
	}
	scrapeCfg := config.DefaultScrapeConfig()

	handler := NewCloudRunHandler(discovery, scrapeCfg)

	ctx := context.Background()
	if scrapeCfg.PostgresDSN != "" {
		pg, err := store.InitPostgres(ctx, scrapeCfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres unavailable")
		}
		defer pg.Close()
		handler.sink = pg
	}
	if scrapeCfg.RedisAddr != "" {
		registry, err := store.InitRedis(ctx, scrapeCfg.RedisAddr, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("redis unavailable")
		}
		defer registry.Close()
		handler.registry = registry
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("Starting server")
	if err := http.ListenAndServe(":"+port, handler.Routes()); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
