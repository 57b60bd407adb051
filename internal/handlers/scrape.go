package handlers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vehiclescraper/internal/database"
	scrapeerrors "vehiclescraper/internal/errors"
	"vehiclescraper/internal/logger"
	"vehiclescraper/internal/models"
	"vehiclescraper/internal/platform"
	"vehiclescraper/internal/ratelimit"
	"vehiclescraper/internal/scraper"
	"vehiclescraper/internal/util"
	"vehiclescraper/internal/validation"
)

const (
	maxSearchResults = 20
	maxHistoryLimit  = 500
	historyTimeout   = 3 * time.Second
)

// HistoryStore persists one row per scrape request.
type HistoryStore interface {
	RecordScrape(ctx context.Context, rec *database.ScrapeRecord) error
	RecentScrapes(ctx context.Context, limit int) ([]database.ScrapeRecord, error)
}

// Deps are the collaborators of a ScrapeHandler. History may be nil.
type Deps struct {
	Pipeline       *Pipeline
	BrowserLimiter *ratelimit.Limiter
	GeneralLimiter *ratelimit.Limiter
	History        HistoryStore
}

// ScrapeHandler serves the scraping API.
type ScrapeHandler struct {
	pipeline       *Pipeline
	browserLimiter *ratelimit.Limiter
	generalLimiter *ratelimit.Limiter
	history        HistoryStore
	log            *logger.Logger
}

func NewScrapeHandler(d Deps) *ScrapeHandler {
	return &ScrapeHandler{
		pipeline:       d.Pipeline,
		browserLimiter: d.BrowserLimiter,
		generalLimiter: d.GeneralLimiter,
		history:        d.History,
		log:            logger.ForComponent("scrape-handler"),
	}
}

// ScrapeRequest is the body of POST /api/scrape-vehicle.
type ScrapeRequest struct {
	URL string `json:"url" example:"https://www.bazaraki.com/adv/5813277_mercedes-benz-actros/"`
}

// SearchRequest is the body of POST /api/admin/scrape-search.
type SearchRequest struct {
	Make       string `json:"make" example:"Volvo"`
	Model      string `json:"model" example:"FH"`
	Postcode   string `json:"postcode" example:"SW1A 1AA"`
	MaxResults int    `json:"maxResults" example:"10"`
}

// SearchResponse lists the vehicles a search produced.
type SearchResponse struct {
	Count          int                   `json:"count"`
	Vehicles       []models.ScrapeResult `json:"vehicles"`
	IsFallbackData bool                  `json:"isFallbackData"`
}

// RateLimitResponse is the 429 body.
type RateLimitResponse struct {
	Error         string `json:"error"`
	Platform      string `json:"platform"`
	ResetTime     string `json:"resetTime"`
	RemainingTime int    `json:"remainingTime"`
	Message       string `json:"message"`
}

// UnsupportedResponse is the 400 body for URLs no platform recognises.
type UnsupportedResponse struct {
	Error              string   `json:"error"`
	SupportedPlatforms []string `json:"supportedPlatforms"`
}

// ScrapeVehicle godoc
// @Summary Scrape a vehicle listing
// @Description Detects the listing platform, applies its rate limit and returns the extracted vehicle. AutoTrader failures return sample data flagged with isFallbackData.
// @Tags scrape
// @Accept json
// @Produce json
// @Param request body ScrapeRequest true "Listing URL"
// @Success 200 {object} models.ExtractedVehicle
// @Failure 400 {object} UnsupportedResponse "Missing or unsupported URL"
// @Failure 429 {object} RateLimitResponse "Rate limit exceeded"
// @Failure 500 {object} map[string]string "Scrape failed"
// @Router /api/scrape-vehicle [post]
func (h *ScrapeHandler) ScrapeVehicle(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	listingURL, err := validation.ValidateListingURL(req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plat := platform.Detect(listingURL)
	if plat == platform.Unsupported {
		c.JSON(http.StatusBadRequest, UnsupportedResponse{
			Error:              "Unsupported platform",
			SupportedPlatforms: platform.DisplayNames(),
		})
		return
	}

	ctx := c.Request.Context()
	clientIP := c.ClientIP()
	if ok, retryIn := h.allow(c, plat, ratelimit.Key(plat.String(), clientIP)); !ok {
		h.record(ctx, listingURL, plat, clientIP, models.ScrapeResult{},
			scrapeerrors.NewRateLimit(plat.String(), retryIn))
		return
	}

	log := h.log.WithField("platform", plat.String())
	log.Info().Str("url", listingURL).Str("client_ip", clientIP).Msg("scrape requested")

	start := time.Now()
	result, err := h.pipeline.Run(ctx, plat, listingURL)
	h.record(ctx, listingURL, plat, clientIP, result, err)
	if err != nil {
		log.Error().
			Err(err).
			Str("url", listingURL).
			Str("error_type", string(scrapeerrors.TypeOf(err))).
			Dur("elapsed", time.Since(start)).
			Msg("scrape failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Info().
		Str("url", listingURL).
		Str("outcome", result.Outcome.String()).
		Str("make", result.Vehicle.Make).
		Str("model", result.Vehicle.Model).
		Dur("elapsed", time.Since(start)).
		Msg("scrape finished")
	c.JSON(http.StatusOK, result)
}

// ScrapeSearch godoc
// @Summary Scrape an AutoTrader search
// @Description Runs a search in the headless browser and extracts every listing found. Failed or empty searches return sample data.
// @Tags admin
// @Security AdminKey
// @Accept json
// @Produce json
// @Param request body SearchRequest true "Search filters"
// @Success 200 {object} SearchResponse
// @Failure 400 {object} map[string]string "Invalid filters"
// @Failure 401 {object} map[string]string "Admin key missing or wrong"
// @Failure 429 {object} RateLimitResponse "Rate limit exceeded"
// @Router /api/admin/scrape-search [post]
func (h *ScrapeHandler) ScrapeSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.MaxResults == 0 {
		req.MaxResults = 10
	}
	if err := validateSearch(req); err != nil {
		util.SafeErrorResponse(c, util.StatusFor(err), err.Error(), err)
		return
	}

	if ok, _ := h.allow(c, platform.AutoTrader, ratelimit.Key(platform.AutoTrader.String(), c.ClientIP())); !ok {
		return
	}

	results := h.pipeline.Search(c.Request.Context(), scraper.SearchOptions{
		Make:       req.Make,
		Model:      req.Model,
		Postcode:   req.Postcode,
		MaxResults: req.MaxResults,
	})

	resp := SearchResponse{Count: len(results), Vehicles: results}
	for _, r := range results {
		if r.IsFallback() {
			resp.IsFallbackData = true
			break
		}
	}
	c.JSON(http.StatusOK, resp)
}

func validateSearch(req SearchRequest) error {
	if err := validation.ValidateSearchTerm("make", req.Make); err != nil {
		return scrapeerrors.NewValidation(err.Error())
	}
	if err := validation.ValidateSearchTerm("model", req.Model); err != nil {
		return scrapeerrors.NewValidation(err.Error())
	}
	if req.Postcode != "" {
		if err := validation.ValidatePostcode(req.Postcode); err != nil {
			return scrapeerrors.NewValidation(err.Error())
		}
	}
	if err := validation.ValidateLimit("maxResults", req.MaxResults, maxSearchResults); err != nil {
		return scrapeerrors.NewValidation(err.Error())
	}
	return nil
}

// ScrapeHistory godoc
// @Summary Recent scrape requests
// @Description Returns the most recent scrape history rows, newest first.
// @Tags admin
// @Security AdminKey
// @Produce json
// @Param limit query int false "Number of rows (1-500)" default(50)
// @Success 200 {array} database.ScrapeRecord
// @Failure 400 {object} map[string]string "Invalid limit"
// @Failure 401 {object} map[string]string "Admin key missing or wrong"
// @Failure 503 {object} map[string]string "History disabled"
// @Router /api/admin/scrape-history [get]
func (h *ScrapeHandler) ScrapeHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scrape history is not enabled"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil {
			err = validation.ValidateLimit("limit", n, maxHistoryLimit)
		}
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit)})
			return
		}
		limit = n
	}

	records, err := h.history.RecentScrapes(c.Request.Context(), limit)
	if err != nil {
		err = scrapeerrors.NewStorage("failed to load scrape history", err)
		util.SafeErrorResponse(c, util.StatusFor(err), "Failed to load scrape history", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// PlatformInfo describes one supported platform.
type PlatformInfo struct {
	Name          string `json:"name"`
	Domain        string `json:"domain"`
	Method        string `json:"method"`
	RateLimit     int    `json:"rateLimit"`
	WindowSeconds int    `json:"windowSeconds"`
}

// Platforms godoc
// @Summary Supported platforms
// @Description Lists the platforms the scraper understands with their rate limits.
// @Tags scrape
// @Produce json
// @Success 200 {object} map[string][]PlatformInfo
// @Router /api/platforms [get]
func (h *ScrapeHandler) Platforms(c *gin.Context) {
	names := platform.DisplayNames()
	out := make([]PlatformInfo, 0, len(names))
	for i, p := range platform.Supported() {
		lim := h.limiterFor(p)
		info := PlatformInfo{
			Name:          p.String(),
			Domain:        names[i],
			Method:        "crawl",
			RateLimit:     lim.Max(),
			WindowSeconds: int(lim.Window().Seconds()),
		}
		if p.UsesBrowser() {
			info.Method = "browser"
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, gin.H{"platforms": out})
}

// RateLimitStatus godoc
// @Summary Caller's remaining quota
// @Description Reports how many requests the caller may still make for a platform and when the window resets.
// @Tags scrape
// @Produce json
// @Param platform query string true "Platform name" Enums(bazaraki, facebook, autotrader)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} UnsupportedResponse "Unknown platform"
// @Router /api/rate-limit [get]
func (h *ScrapeHandler) RateLimitStatus(c *gin.Context) {
	plat := platform.Platform(c.Query("platform"))
	if !isSupported(plat) {
		c.JSON(http.StatusBadRequest, UnsupportedResponse{
			Error:              "Unknown platform",
			SupportedPlatforms: platformNames(),
		})
		return
	}

	lim := h.limiterFor(plat)
	st, err := lim.Status(c.Request.Context(), ratelimit.Key(plat.String(), c.ClientIP()))
	if err != nil {
		util.SafeErrorResponse(c, http.StatusServiceUnavailable, "Rate limit store unavailable", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"platform":  plat.String(),
		"limit":     st.Limit,
		"remaining": st.Remaining,
		"resetTime": st.Reset.UTC().Format(time.RFC3339),
	})
}

// Health godoc
// @Summary Health check
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/health [get]
func (h *ScrapeHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if p, ok := h.history.(interface{ Ping(context.Context) error }); ok {
		resp["database"] = "ok"
		if err := p.Ping(c.Request.Context()); err != nil {
			h.log.Warn().Err(err).Msg("history database ping failed")
			resp["database"] = "unavailable"
			resp["status"] = "degraded"
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ScrapeHandler) limiterFor(p platform.Platform) *ratelimit.Limiter {
	if p.UsesBrowser() {
		return h.browserLimiter
	}
	return h.generalLimiter
}

// allow consumes one request from the platform's quota and sets the
// X-RateLimit headers. When the quota is spent it writes the 429 response and
// returns false with the time until reset. A failing limiter store lets the
// request through.
func (h *ScrapeHandler) allow(c *gin.Context, p platform.Platform, key string) (bool, time.Duration) {
	lim := h.limiterFor(p)
	ctx := c.Request.Context()

	allowed, err := lim.IsAllowed(ctx, key)
	if err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
		return true, 0
	}

	st, err := lim.Status(ctx, key)
	if err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("rate limit status unavailable")
		st = ratelimit.Status{Limit: lim.Max(), Reset: time.Now().Add(lim.Window())}
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(st.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(st.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(st.Reset.Unix(), 10))
	if allowed {
		return true, 0
	}

	wait := int(math.Ceil(time.Until(st.Reset).Seconds()))
	if wait < 1 {
		wait = 1
	}
	c.Header("Retry-After", strconv.Itoa(wait))
	h.log.Warn().Str("key", key).Int("retry_in", wait).Msg("rate limit exceeded")
	c.JSON(http.StatusTooManyRequests, RateLimitResponse{
		Error:         "Rate limit exceeded",
		Platform:      p.String(),
		ResetTime:     st.Reset.UTC().Format(time.RFC3339),
		RemainingTime: wait,
		Message:       fmt.Sprintf("Too many %s requests. Try again in %d seconds.", p.String(), wait),
	})
	return false, time.Duration(wait) * time.Second
}

// record writes a history row. Failures are logged and never reach the client.
func (h *ScrapeHandler) record(ctx context.Context, url string, p platform.Platform, clientIP string, result models.ScrapeResult, err error) {
	if h.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()

	rec := database.NewScrapeRecord(url, p.String(), clientIP, result, err)
	if err := h.history.RecordScrape(ctx, rec); err != nil {
		h.log.Warn().Err(err).Str("url", url).Msg("failed to record scrape history")
	}
}

func isSupported(p platform.Platform) bool {
	for _, s := range platform.Supported() {
		if s == p {
			return true
		}
	}
	return false
}

func platformNames() []string {
	var out []string
	for _, p := range platform.Supported() {
		out = append(out, p.String())
	}
	return out
}
