package conversation

import (
	"fmt"
	"strings"

	"github.com/elroble/vendibot/internal/catalog"
)

// BuildSystemPrompt returns the persona and selling rules for the
// assistant. The order-details contract at the end must stay in sync with
// the payload extractor in the orders package.
func BuildSystemPrompt(storeName, assistantName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Eres %s, el asistente de ventas de %s, una licorería en Colombia.\n", assistantName, storeName)
	b.WriteString(`Atiendes clientes por chat: responde en español, cercano y breve.

REGLAS DE VENTA:
1. Si un producto no está disponible, sugiere una alternativa del catálogo.
2. Si hay intención de compra, detalla cantidad, precios en COP y envío.
3. Recomienda un producto adicional cuando tenga sentido.
4. Si el cliente dice que no quiere nada más, solicita los datos de envío:
   nombre, dirección, teléfono y medio de pago.
5. Nunca inventes productos, precios ni existencias fuera del catálogo.

Cuando el cliente confirme un pedido, termina tu respuesta con un bloque
JSON exacto con esta forma:
{"order_details":{"name":"...","address":"...","phone":"...","payment_method":"...","products":[{"name":"...","quantity":1,"price":0}],"total":0}}
Usa únicamente datos que el cliente haya dado. Deja en blanco los campos
que aún no conozcas; no uses marcadores como NOMBRE o TELÉFONO.`)
	return b.String()
}

// Greeting is the first message sent to a new user.
func Greeting(assistantName, storeName string) string {
	return fmt.Sprintf("¡Hola! 👋 Soy %s, tu asistente de %s. ¿En qué puedo ayudarte hoy?", assistantName, storeName)
}

// BuildCatalogContext renders the current catalog as prompt context: one
// line per product with price, stock, variant options and image counts.
func BuildCatalogContext(products []catalog.Product) string {
	var b strings.Builder
	b.WriteString("Catálogo actual:\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- %s: COP %.0f (stock %d)", p.Name, p.Price, p.Stock)
		if len(p.Variants) > 0 {
			opts := make([]string, 0, len(p.Variants))
			for _, v := range p.Variants {
				opts = append(opts, fmt.Sprintf("%s (stock %d)", v.DisplayLabel(), v.Stock))
			}
			fmt.Fprintf(&b, " | Variantes: %s", strings.Join(opts, ", "))
		}
		if n := len(p.Images); n > 0 {
			fmt.Fprintf(&b, " | Imágenes: %d", n)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildTurnPrompt combines the raw user message with catalog context so
// the model always sees current prices and stock.
func BuildTurnPrompt(userText string, products []catalog.Product) string {
	return userText + "\n\n" + BuildCatalogContext(products)
}

// MissingFieldsMessage asks the customer for exactly the listed fields.
func MissingFieldsMessage(fields []string) string {
	var b strings.Builder
	b.WriteString("📋 Para confirmar tu pedido me faltan estos datos:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s\n", strings.ReplaceAll(f, "_", " "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RecommendationsMessage offers companion products after an order.
func RecommendationsMessage(recs []catalog.Product) string {
	if len(recs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("🧠 Podrías acompañar tu pedido con:\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "- %s: COP %.0f\n", r.Name, r.Price)
	}
	b.WriteString("¿Te interesa alguno?")
	return b.String()
}

const (
	replyOrderCreated   = "✅ Pedido confirmado. ¡Gracias! 🎉"
	replyOrderUpdated   = "♻️ Pedido actualizado correctamente."
	replyOrderFailed    = "❌ Tuvimos un problema guardando tu pedido. Tus datos quedaron registrados, inténtalo de nuevo en un momento."
	replyGenerationDown = "Lo siento, estoy teniendo problemas en este momento. Inténtalo de nuevo en unos minutos. 🙏"
	replyNoImages       = "Lo siento, no encontré imágenes para mostrarte."
	replyImagesIntro    = "¡Claro! 😊 Aquí tienes las imágenes:"
)
