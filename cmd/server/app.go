package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-pipeline/internal/channel"
	"github.com/unclebandit/outreach-pipeline/internal/config"
	"github.com/unclebandit/outreach-pipeline/internal/controller"
	"github.com/unclebandit/outreach-pipeline/internal/discovery"
	"github.com/unclebandit/outreach-pipeline/internal/handler"
	"github.com/unclebandit/outreach-pipeline/internal/metrics"
	"github.com/unclebandit/outreach-pipeline/internal/provider"
	"github.com/unclebandit/outreach-pipeline/internal/queue"
	"github.com/unclebandit/outreach-pipeline/internal/service"
)

type app struct {
	discovery *controller.DiscoveryController
	campaigns *controller.CampaignController
	handler   *handler.CampaignHandler
}

// newApp wires every component onto st and registry. Retry jobs published on
// q are consumed in process as well, unless q is backed by a broker that
// cmd/worker drains.
func newApp(cfg *config.Config, st stores, registry *provider.Registry, q queue.Queue, logger *zap.Logger) (*app, error) {
	chain := discovery.NewChain(registry, logger, cfg.Discovery.QueryDelay)
	batcher := discovery.NewBatcher(chain, st.organizations, logger, cfg.Discovery.MaxBatch, cfg.Discovery.ChunkPause)

	dispatcher := channel.NewDispatcher(registry, logger, cfg.Dispatch.RequestTimeout)
	campaignService := service.NewCampaignService(st.campaigns, st.delivery, dispatcher, logger, cfg.Dispatch.Workers)
	retryService := service.NewRetryService(st.campaigns, st.delivery, dispatcher, logger, cfg.Dispatch.Workers)
	statusService := service.NewStatusService(st.delivery, logger)

	if _, inProcess := q.(*queue.InMemoryQueue); inProcess {
		if err := queue.StartRetrySubscriber(q, retryService, logger); err != nil {
			return nil, err
		}
	}

	return &app{
		discovery: &controller.DiscoveryController{Batcher: batcher, Logger: logger},
		campaigns: &controller.CampaignController{
			CampaignService: campaignService,
			RetryService:    retryService,
			Queue:           q,
			Logger:          logger,
		},
		handler: handler.NewCampaignHandler(campaignService, statusService, logger),
	}, nil
}

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// Pipeline routes
	r.Post("/discovery", a.discovery.RunDiscovery)
	r.Post("/dispatch", a.campaigns.Dispatch)
	r.Post("/retry", a.campaigns.Retry)

	// Campaign reads and provider callbacks
	r.Get("/campaigns/{id}", a.handler.GetCampaignHandlerWithStats)
	r.Get("/campaigns/{id}/messages", a.handler.ListMessagesHandler)
	r.Post("/webhooks/status", a.handler.StatusWebhookHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		controller.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
