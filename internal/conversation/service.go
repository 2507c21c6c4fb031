package conversation

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/elroble/vendibot/internal/catalog"
	"github.com/elroble/vendibot/internal/orders"
	"github.com/elroble/vendibot/pkg/logging"
)

// Messenger delivers text and images to a recipient. Delivery is
// fire-and-forget from the pipeline's perspective.
type Messenger interface {
	SendText(ctx context.Context, recipient, text string) error
	SendImage(ctx context.Context, recipient, url, caption string) error
}

// OrderNotifier tells the store owner about a finalized order.
type OrderNotifier interface {
	NotifyOrderCreated(ctx context.Context, order *orders.Order) error
}

type generator interface {
	Generate(ctx context.Context, req LLMRequest) (*Generation, *GenerationError)
}

// MessageRequest is one inbound customer message.
type MessageRequest struct {
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
	Channel string `json:"channel"`
}

// ServiceConfig carries the store identity and model tuning the pipeline
// needs per request.
type ServiceConfig struct {
	StoreName            string
	AssistantName        string
	ModelID              string
	Temperature          float32
	MaxOutputTokens      int32
	ImageIntentMaxTokens int32
	RecommendationsMax   int
}

func (c *ServiceConfig) applyDefaults() {
	if c.StoreName == "" {
		c.StoreName = "Licores El Roble"
	}
	if c.AssistantName == "" {
		c.AssistantName = "Lucas"
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.75
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = 1500
	}
	if c.ImageIntentMaxTokens <= 0 {
		c.ImageIntentMaxTokens = 600
	}
	if c.RecommendationsMax <= 0 {
		c.RecommendationsMax = 3
	}
}

// Service runs the message pipeline: greeting, image intent, sales reply,
// order extraction and reconciliation, recommendations.
//
// Calls must be serialized per user id; the worker's keyed locks take care
// of that.
type Service struct {
	gateway    generator
	sessions   SessionStore
	catalog    catalog.Repository
	reconciler *orders.Reconciler
	messenger  Messenger
	transcript *TranscriptStore
	notifier   OrderNotifier
	cfg        ServiceConfig
	tracer     trace.Tracer
	logger     *logging.Logger
}

// ServiceOption customizes optional collaborators.
type ServiceOption func(*Service)

// WithTranscriptStore enables message persistence.
func WithTranscriptStore(store *TranscriptStore) ServiceOption {
	return func(s *Service) { s.transcript = store }
}

// WithOrderNotifier enables owner notifications on new orders.
func WithOrderNotifier(n OrderNotifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *logging.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService wires the pipeline.
func NewService(
	gateway *Gateway,
	sessions SessionStore,
	catalogRepo catalog.Repository,
	reconciler *orders.Reconciler,
	messenger Messenger,
	cfg ServiceConfig,
	opts ...ServiceOption,
) *Service {
	if gateway == nil {
		panic("conversation: gateway cannot be nil")
	}
	return newService(gateway, sessions, catalogRepo, reconciler, messenger, cfg, opts...)
}

func newService(
	gateway generator,
	sessions SessionStore,
	catalogRepo catalog.Repository,
	reconciler *orders.Reconciler,
	messenger Messenger,
	cfg ServiceConfig,
	opts ...ServiceOption,
) *Service {
	if sessions == nil {
		panic("conversation: session store cannot be nil")
	}
	if catalogRepo == nil {
		panic("conversation: catalog repository cannot be nil")
	}
	if reconciler == nil {
		panic("conversation: reconciler cannot be nil")
	}
	if messenger == nil {
		panic("conversation: messenger cannot be nil")
	}
	cfg.applyDefaults()

	s := &Service{
		gateway:    gateway,
		sessions:   sessions,
		catalog:    catalogRepo,
		reconciler: reconciler,
		messenger:  messenger,
		cfg:        cfg,
		tracer:     otel.Tracer("vendibot.internal.conversation.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	return s
}

// ProcessMessage handles one inbound message end to end.
func (s *Service) ProcessMessage(ctx context.Context, req MessageRequest) error {
	ctx, span := s.tracer.Start(ctx, "conversation.process_message")
	defer span.End()

	text := strings.TrimSpace(req.Text)
	if req.UserID == "" || text == "" {
		return fmt.Errorf("conversation: user id and text are required")
	}

	history, err := s.sessions.History(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to load session: %w", err)
	}

	if err := s.sessions.Append(ctx, req.UserID, ChatMessage{Role: ChatRoleUser, Content: text}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to append session: %w", err)
	}
	s.transcript.Record(ctx, req.UserID, ChatRoleUser, req.Channel, text)

	// First contact gets the canned greeting, no model call.
	if len(history) == 0 {
		greeting := Greeting(s.cfg.AssistantName, s.cfg.StoreName)
		s.reply(ctx, req, greeting)
		return nil
	}

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("catalog refresh failed", "user_id", req.UserID, "error", err)
		s.sendText(ctx, req.UserID, replyGenerationDown)
		return fmt.Errorf("conversation: catalog refresh failed: %w", err)
	}
	index := catalog.BuildIndex(products)

	if WantsImagesHint(text) {
		handled, err := s.handleImageIntent(ctx, req, history, index)
		if err != nil || handled {
			return err
		}
	}

	return s.handleSalesTurn(ctx, req, history, text, products)
}

func (s *Service) handleSalesTurn(ctx context.Context, req MessageRequest, history []ChatMessage, text string, products []catalog.Product) error {
	messages := append(append([]ChatMessage(nil), history...), ChatMessage{
		Role:    ChatRoleUser,
		Content: BuildTurnPrompt(text, products),
	})

	gen, genErr := s.gateway.Generate(ctx, LLMRequest{
		Model:       s.cfg.ModelID,
		System:      []string{BuildSystemPrompt(s.cfg.StoreName, s.cfg.AssistantName)},
		Messages:    messages,
		MaxTokens:   s.cfg.MaxOutputTokens,
		Temperature: s.cfg.Temperature,
	})
	if genErr != nil {
		s.logger.Error("generation failed", "user_id", req.UserID, "kind", genErr.Kind, "error", genErr.Err)
		s.sendText(ctx, req.UserID, replyGenerationDown)
		return genErr
	}
	if gen.Truncated {
		s.logger.Warn("generation truncated", "user_id", req.UserID)
	}

	payload, clean := orders.ExtractPayload(gen.Text)

	if err := s.sessions.Append(ctx, req.UserID, ChatMessage{Role: ChatRoleAssistant, Content: clean}); err != nil {
		s.logger.Warn("session append failed", "user_id", req.UserID, "error", err)
	}
	s.transcript.Record(ctx, req.UserID, ChatRoleAssistant, req.Channel, clean)

	if payload == nil {
		s.sendText(ctx, req.UserID, clean)
		return nil
	}

	if len(payload.Products) > 0 {
		recs := catalog.Recommend(products, productNames(payload.Products), s.cfg.RecommendationsMax)
		if msg := RecommendationsMessage(recs); msg != "" {
			s.sendText(ctx, req.UserID, msg)
		}
	}

	result, err := s.reconciler.Process(ctx, req.UserID, payload)
	if err != nil {
		s.logger.Error("order reconciliation failed", "user_id", req.UserID, "error", err)
		s.sendText(ctx, req.UserID, replyOrderFailed)
		return err
	}

	switch result.Status {
	case orders.StatusMissingFields:
		s.sendText(ctx, req.UserID, MissingFieldsMessage(result.Missing))
	case orders.StatusCreated:
		s.sendText(ctx, req.UserID, replyOrderCreated)
		s.notifyOrder(ctx, result.Order)
	case orders.StatusUpdated:
		s.sendText(ctx, req.UserID, replyOrderUpdated)
	}
	return nil
}

// handleImageIntent asks the model which catalog images to send. Returns
// handled=false when the model decides the user did not ask for images, in
// which case the normal sales turn runs.
func (s *Service) handleImageIntent(ctx context.Context, req MessageRequest, history []ChatMessage, index *catalog.Index) (bool, error) {
	prompt, err := BuildImageIntentPrompt(req.Text, index.Products())
	if err != nil {
		s.logger.Warn("image intent prompt build failed", "error", err)
		return false, nil
	}

	recent := history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	messages := append(append([]ChatMessage(nil), recent...), ChatMessage{Role: ChatRoleUser, Content: prompt})

	gen, genErr := s.gateway.Generate(ctx, LLMRequest{
		Model:     s.cfg.ModelID,
		Messages:  messages,
		MaxTokens: s.cfg.ImageIntentMaxTokens,
	})
	if genErr != nil {
		s.logger.Warn("image intent generation failed", "user_id", req.UserID, "kind", genErr.Kind)
		return false, nil
	}

	action := ParseImageAction(gen.Text)
	if !action.SendImages {
		return false, nil
	}

	images := action.Images
	if len(images) == 0 {
		images = s.resolveImagesLocally(req.Text, index)
	}
	if len(images) == 0 {
		s.reply(ctx, req, replyNoImages)
		return true, nil
	}

	s.reply(ctx, req, replyImagesIntro)
	for _, img := range images {
		if err := s.messenger.SendImage(ctx, req.UserID, img.URL, img.Caption); err != nil {
			s.logger.Error("image delivery failed", "user_id", req.UserID, "url", img.URL, "error", err)
			s.sendText(ctx, req.UserID, fmt.Sprintf("No pude enviar la imagen de %s.", img.Caption))
		}
	}
	return true, nil
}

// resolveImagesLocally falls back to catalog resolution when the model
// confirmed image intent but picked no URLs.
func (s *Service) resolveImagesLocally(text string, index *catalog.Index) []ImageToSend {
	res, err := index.Resolve(text)
	if err != nil {
		return nil
	}
	imgs := index.Images(res.Product, res.Variant)
	caption := res.Product.Name
	if res.Variant != nil {
		caption = fmt.Sprintf("%s (%s)", res.Product.Name, res.Variant.DisplayLabel())
	}
	out := make([]ImageToSend, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, ImageToSend{URL: img.URL, Caption: caption})
	}
	return out
}

// reply appends an assistant turn to the session and transcript, then
// sends it.
func (s *Service) reply(ctx context.Context, req MessageRequest, text string) {
	if err := s.sessions.Append(ctx, req.UserID, ChatMessage{Role: ChatRoleAssistant, Content: text}); err != nil {
		s.logger.Warn("session append failed", "user_id", req.UserID, "error", err)
	}
	s.transcript.Record(ctx, req.UserID, ChatRoleAssistant, req.Channel, text)
	s.sendText(ctx, req.UserID, text)
}

func (s *Service) sendText(ctx context.Context, recipient, text string) {
	if err := s.messenger.SendText(ctx, recipient, text); err != nil {
		s.logger.Error("text delivery failed", "recipient", recipient, "error", err)
	}
}

func (s *Service) notifyOrder(ctx context.Context, order *orders.Order) {
	if s.notifier == nil || order == nil {
		return
	}
	if err := s.notifier.NotifyOrderCreated(ctx, order); err != nil {
		s.logger.Warn("order notification failed", "order_id", order.ID, "error", err)
	}
}

func productNames(items []orders.LineItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.ProductName)
	}
	return names
}
