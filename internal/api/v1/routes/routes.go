// Package routes defines the API routes and URL structure
package routes

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	adaptor "github.com/gofiber/adaptor/v2"
	fiber "github.com/gofiber/fiber/v2"

	"github.com/betslib/feedsync/internal/api/v1/handlers"
	"github.com/betslib/feedsync/internal/telemetry"
)

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
)

// DefaultBaseURL is the default base URL for the API
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// Route names for lookup
const (
	// Health check
	HealthCheck = "HealthCheck"

	// Job routes
	GetJobs     = "GetJobs"
	GetJobStats = "GetJobStats"
	GetJob      = "GetJob"
	EnqueueJob  = "EnqueueJob"
	RetryJob    = "RetryJob"
	CancelJob   = "CancelJob"

	// Integration routes
	GetIntegrations    = "GetIntegrations"
	GetAvailability    = "GetAvailability"
	EnableIntegration  = "EnableIntegration"
	DisableIntegration = "DisableIntegration"
)

// routeCache stores extracted routes for use prior to compilation
var (
	routeCache     map[string]string
	routeCacheMu   sync.RWMutex
	routeCacheInit sync.Once
)

// RegisterRoutes configures all the v1 routes
//
// NOTE: route ordering matters because fiber matches routes in registration
// order; static segments (e.g. /stats) must precede :id params.
func RegisterRoutes(
	app *fiber.App,
	jobHandler *handlers.JobHandler,
	integrationHandler *handlers.IntegrationHandler,
) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	}).Name(HealthCheck)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(telemetry.Handler()))

	v1 := app.Group(APIv1Prefix)

	// Job endpoints
	jobs := v1.Group("/jobs")
	jobs.Get("/", jobHandler.ListJobs).Name(GetJobs)
	jobs.Get("/stats", jobHandler.GetJobStats).Name(GetJobStats)
	jobs.Get("/:id", jobHandler.GetJob).Name(GetJob)
	jobs.Post("/", jobHandler.EnqueueJob).Name(EnqueueJob)
	jobs.Post("/:id/cancel", jobHandler.CancelJob).Name(CancelJob)
	jobs.Post("/:id/retry", jobHandler.RetryJob).Name(RetryJob)

	// Integration endpoints
	integrations := v1.Group("/integrations")
	integrations.Get("/", integrationHandler.ListIntegrations).Name(GetIntegrations)
	integrations.Get("/availability", integrationHandler.GetAvailability).Name(GetAvailability)
	integrations.Post("/:name/disable", integrationHandler.DisableIntegration).Name(DisableIntegration)
	integrations.Post("/:name/enable", integrationHandler.EnableIntegration).Name(EnableIntegration)
}

// initRouteCache initializes the route cache by creating a mock app and extracting routes
func initRouteCache() {
	routeCacheInit.Do(func() {
		cache := make(map[string]string)

		app := fiber.New()
		RegisterRoutes(app, &handlers.JobHandler{}, &handlers.IntegrationHandler{})

		for _, route := range app.GetRoutes() {
			if route.Name != "" {
				cache[route.Name] = route.Path
			}
		}

		routeCacheMu.Lock()
		routeCache = cache
		routeCacheMu.Unlock()
	})
}

// GetRoute returns the route pattern for the given route name
func GetRoute(name string) string {
	initRouteCache()
	routeCacheMu.RLock()
	defer routeCacheMu.RUnlock()
	return routeCache[name]
}

// BuildURL builds a URL for the given route name and parameters
func BuildURL(routeName string, params map[string]string, queryParams url.Values) string {
	route := GetRoute(routeName)
	if route == "" {
		return ""
	}

	for param, value := range params {
		route = strings.ReplaceAll(route, ":"+param, value)
	}

	if strings.HasSuffix(route, "/") && !strings.Contains(route, ":") {
		route = strings.TrimSuffix(route, "/")
	}

	if len(queryParams) > 0 {
		route = fmt.Sprintf("%s?%s", route, queryParams.Encode())
	}

	return route
}

// HealthCheckURL returns the URL for the health check endpoint
func HealthCheckURL() string {
	return BuildURL(HealthCheck, nil, nil)
}

// GetJobsURL returns the URL for listing jobs
func GetJobsURL(queryParams url.Values) string {
	return BuildURL(GetJobs, nil, queryParams)
}

// GetJobStatsURL returns the URL for job stats
func GetJobStatsURL() string {
	return BuildURL(GetJobStats, nil, nil)
}

// GetJobURL returns the URL for getting a job by ID
func GetJobURL(id string) string {
	return BuildURL(GetJob, map[string]string{"id": id}, nil)
}

// EnqueueJobURL returns the URL for enqueueing a job
func EnqueueJobURL() string {
	return BuildURL(EnqueueJob, nil, nil)
}

// RetryJobURL returns the URL for retrying a job
func RetryJobURL(id string) string {
	return BuildURL(RetryJob, map[string]string{"id": id}, nil)
}

// CancelJobURL returns the URL for cancelling a job
func CancelJobURL(id string) string {
	return BuildURL(CancelJob, map[string]string{"id": id}, nil)
}

// GetIntegrationsURL returns the URL for listing integrations
func GetIntegrationsURL() string {
	return BuildURL(GetIntegrations, nil, nil)
}

// GetAvailabilityURL returns the URL for feature availability
func GetAvailabilityURL() string {
	return BuildURL(GetAvailability, nil, nil)
}

// EnableIntegrationURL returns the URL for enabling an integration
func EnableIntegrationURL(name string) string {
	return BuildURL(EnableIntegration, map[string]string{"name": name}, nil)
}

// DisableIntegrationURL returns the URL for disabling an integration
func DisableIntegrationURL(name string) string {
	return BuildURL(DisableIntegration, map[string]string{"name": name}, nil)
}
