// llmtest sends one scripted sales conversation through the generation
// gateway so retry, truncation and payload extraction can be checked against
// the live Gemini API before a deploy.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/elroble/vendibot/internal/conversation"
	"github.com/elroble/vendibot/internal/orders"
	"github.com/elroble/vendibot/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}
	modelID := os.Getenv("GEMINI_MODEL_ID")
	if modelID == "" {
		modelID = "gemini-2.5-flash"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := conversation.NewGeminiLLMClient(ctx, apiKey, modelID)
	if err != nil {
		log.Fatalf("create gemini client: %v", err)
	}
	gateway := conversation.NewGateway(client, conversation.GatewayConfig{}, logging.New("debug"))

	messages := []conversation.ChatMessage{
		{Role: conversation.ChatRoleUser, Content: "Hola, ¿qué aguardientes tienen?"},
		{Role: conversation.ChatRoleAssistant, Content: "¡Hola! 😊 Tenemos Aguardiente Antioqueño y Néctar. ¿Cuál te gustaría?"},
		{Role: conversation.ChatRoleUser, Content: "Dame dos botellas del Antioqueño. Soy Ana, Calle 1 #2-3, 3001112233, pago en efectivo."},
	}

	req := conversation.LLMRequest{
		System:      []string{conversation.BuildSystemPrompt("Licores El Roble", "Lucas")},
		Messages:    messages,
		MaxTokens:   800,
		Temperature: 0.7,
	}

	start := time.Now()
	gen, genErr := gateway.Generate(ctx, req)
	elapsed := time.Since(start)
	if genErr != nil {
		log.Fatalf("generation failed (%s): %v", genErr.Kind, genErr.Err)
	}

	fmt.Printf("response in %v (truncated=%v, in=%d out=%d):\n\n%s\n\n",
		elapsed.Round(time.Millisecond), gen.Truncated,
		gen.Usage.InputTokens, gen.Usage.OutputTokens, gen.Text)

	payload, clean := orders.ExtractPayload(gen.Text)
	if payload == nil {
		fmt.Println("no order payload detected")
		return
	}
	fmt.Printf("customer-facing reply:\n%s\n\n", clean)
	fmt.Printf("extracted order: name=%q address=%q phone=%q payment=%q items=%d\n",
		payload.Name, payload.Address, payload.Phone, payload.PaymentMethod, len(payload.Products))
}
