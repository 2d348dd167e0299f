package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/betslib/feedsync/internal/config"
	"github.com/betslib/feedsync/internal/db/models"
	"github.com/betslib/feedsync/internal/db/repos"
	"github.com/betslib/feedsync/internal/services"
)

// handlerFixture wires a fiber app with real services over an in-memory database
type handlerFixture struct {
	app        *fiber.App
	jobRepo    *repos.JobRepository
	health     *services.Health
	dispatcher *services.Dispatcher
	ctx        context.Context
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create in-memory database")
	require.NoError(t, db.AutoMigrate(&models.BackgroundJob{}, &models.IntegrationStatus{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil && sqlDB != nil {
			_ = sqlDB.Close()
		}
	})

	jobRepo := repos.NewJobRepository(db)
	integrationRepo := repos.NewIntegrationRepository(db)

	providers := []config.ProviderConfig{{Name: "odds_feed", StaleAfter: 24 * time.Hour}}
	features := map[string][]config.FeatureRequirement{
		"live_odds": {{Provider: "odds_feed", RequireFresh: true}},
	}
	health := services.NewHealthService(integrationRepo, providers, features)
	dispatcher := services.NewDispatcher(jobRepo)

	app := fiber.New()
	jobHandler := NewJobHandler(services.NewJobService(jobRepo), dispatcher)
	integrationHandler := NewIntegrationHandler(health)

	v1 := app.Group("/api/v1")
	jobs := v1.Group("/jobs")
	jobs.Get("/", jobHandler.ListJobs)
	jobs.Get("/stats", jobHandler.GetJobStats)
	jobs.Get("/:id", jobHandler.GetJob)
	jobs.Post("/", jobHandler.EnqueueJob)
	jobs.Post("/:id/cancel", jobHandler.CancelJob)
	jobs.Post("/:id/retry", jobHandler.RetryJob)

	integrations := v1.Group("/integrations")
	integrations.Get("/", integrationHandler.ListIntegrations)
	integrations.Get("/availability", integrationHandler.GetAvailability)
	integrations.Post("/:name/disable", integrationHandler.DisableIntegration)
	integrations.Post("/:name/enable", integrationHandler.EnableIntegration)

	return &handlerFixture{
		app:        app,
		jobRepo:    jobRepo,
		health:     health,
		dispatcher: dispatcher,
		ctx:        context.Background(),
	}
}

func (f *handlerFixture) createJob(t *testing.T, status models.JobStatus) *models.BackgroundJob {
	t.Helper()
	job := &models.BackgroundJob{JobType: "recompute_aggregates", Status: status}
	require.NoError(t, f.jobRepo.Create(f.ctx, job))
	return job
}

// request performs a test request and decodes the response envelope
func (f *handlerFixture) request(t *testing.T, method, target string, body interface{}) (int, Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope Response
	require.NoError(t, json.Unmarshal(raw, &envelope), "body: %s", raw)
	return resp.StatusCode, envelope
}

// decodeData re-marshals the envelope data into the target type
func decodeData(t *testing.T, envelope Response, v interface{}) {
	t.Helper()
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}
