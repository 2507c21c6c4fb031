package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/elroble/vendibot/internal/catalog"
	"github.com/elroble/vendibot/internal/channels"
	"github.com/elroble/vendibot/internal/channels/whatsapp"
	appconfig "github.com/elroble/vendibot/internal/config"
	"github.com/elroble/vendibot/internal/conversation"
	"github.com/elroble/vendibot/internal/observability/metrics"
	"github.com/elroble/vendibot/internal/orders"
	"github.com/elroble/vendibot/internal/webchat"
	"github.com/elroble/vendibot/pkg/logging"
)

// Pipeline bundles the wired conversation stack. The API server and the
// worker binary both build it so a job enqueued by one is understood by the
// other.
type Pipeline struct {
	Queue       conversation.Queue
	Publisher   *conversation.Publisher
	Service     *conversation.Service
	Worker      *conversation.Worker
	WhatsApp    *whatsapp.Adapter
	Webchat     *webchat.Handler
	CatalogRepo catalog.Repository
	OrdersRepo  orders.Repository
	Metrics     *metrics.ConversationMetrics
	Registry    *prometheus.Registry
}

// BuildPipeline wires queue, channels, generation gateway, reconciler and
// worker from configuration. pool and sqlDB may be nil; the pipeline then
// runs on in-memory stores without transcripts.
func BuildPipeline(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, pool *pgxpool.Pool, sqlDB *sql.DB, logger *logging.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	registry := prometheus.NewRegistry()
	convMetrics := metrics.NewConversationMetrics(registry)

	queue, err := BuildQueue(cfg, awsCfg, logger)
	if err != nil {
		return nil, err
	}
	publisher := conversation.NewPublisher(queue, logger)

	gateway, err := BuildGateway(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	gateway.SetMetrics(convMetrics)

	catalogRepo, ordersRepo := BuildRepositories(pool, logger)
	transcripts := BuildTranscriptStore(sqlDB, logger)
	sessions := BuildSessionStore(ctx, cfg, logger)

	whatsappAdapter := whatsapp.NewAdapter(
		cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID,
		cfg.WhatsAppAppSecret, cfg.WhatsAppVerifyToken,
		publisher, logger,
	)
	if cfg.GraphAPIBase != "" {
		whatsappAdapter.Client().SetGraphAPIBase(cfg.GraphAPIBase)
	}
	webchatHandler := webchat.NewHandler(publisher, transcripts, logger)
	messenger := channels.NewRouter(whatsappAdapter.Client(), webchat.NewMessenger(webchatHandler))

	reconciler := orders.NewReconciler(ordersRepo, catalogRepo,
		orders.WithDedupWindow(cfg.OrderDedupWindow),
		orders.WithLogger(logger),
	)

	svcOpts := []conversation.ServiceOption{conversation.WithServiceLogger(logger)}
	if transcripts != nil {
		svcOpts = append(svcOpts, conversation.WithTranscriptStore(transcripts))
	}
	if notifier := BuildOrderNotifier(cfg, logger); notifier != nil {
		svcOpts = append(svcOpts, conversation.WithOrderNotifier(notifier))
	}

	service := conversation.NewService(gateway, sessions, catalogRepo, reconciler, messenger,
		conversation.ServiceConfig{
			StoreName:            cfg.StoreName,
			AssistantName:        cfg.AssistantName,
			ModelID:              cfg.GeminiModelID,
			Temperature:          float32(cfg.GenTemperature),
			MaxOutputTokens:      int32(cfg.GenMaxOutputTokens),
			ImageIntentMaxTokens: int32(cfg.ImageIntentMaxTokens),
			RecommendationsMax:   cfg.RecommendationsMax,
		}, svcOpts...)

	worker := conversation.NewWorker(service, queue, logger,
		conversation.WithWorkerCount(cfg.WorkerCount))
	worker.SetMetrics(convMetrics)

	return &Pipeline{
		Queue:       queue,
		Publisher:   publisher,
		Service:     service,
		Worker:      worker,
		WhatsApp:    whatsappAdapter,
		Webchat:     webchatHandler,
		CatalogRepo: catalogRepo,
		OrdersRepo:  ordersRepo,
		Metrics:     convMetrics,
		Registry:    registry,
	}, nil
}
