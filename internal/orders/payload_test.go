package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPayload(t *testing.T) {
	text := `¡Perfecto! Tu pedido queda así. {"order_details":{"name":"Ana","address":"Calle 1","phone":"3000000000","payment_method":"efectivo","products":[{"name":"Tequila","quantity":2,"price":95000}],"total":190000}}`

	payload, clean := ExtractPayload(text)
	require.NotNil(t, payload)
	assert.Equal(t, "¡Perfecto! Tu pedido queda así.", clean)
	assert.Equal(t, "Ana", payload.Name)
	assert.Equal(t, "efectivo", payload.PaymentMethod)
	require.Len(t, payload.Products, 1)
	assert.Equal(t, "Tequila", payload.Products[0].ProductName)
	assert.Equal(t, 2, payload.Products[0].Quantity)
	require.NotNil(t, payload.Total)
	assert.Equal(t, 190000.0, *payload.Total)
}

func TestExtractPayloadUsesLastBlock(t *testing.T) {
	text := `{"order_details":{"name":"Old"}} hablamos luego {"order_details":{"name":"Ana"}}`

	payload, clean := ExtractPayload(text)
	require.NotNil(t, payload)
	assert.Equal(t, "Ana", payload.Name)
	assert.Contains(t, clean, "hablamos luego")
}

func TestExtractPayloadNoMarker(t *testing.T) {
	text := "Hola, ¿qué licor buscas hoy?"

	payload, clean := ExtractPayload(text)
	assert.Nil(t, payload)
	assert.Equal(t, text, clean)
}

func TestExtractPayloadMalformedBlockKeepsText(t *testing.T) {
	// Missing closing brace: the reply must go out untouched and no order
	// payload is produced.
	text := `Listo, confirmo tu pedido. {"order_details":{"name":"Ana","products":[{"name":"Tequila","quantity":2`

	payload, clean := ExtractPayload(text)
	assert.Nil(t, payload)
	assert.Equal(t, text, clean)
}

func TestExtractPayloadInvalidJSONKeepsText(t *testing.T) {
	text := `Aquí tienes. {"order_details":{name: Ana}}`

	payload, clean := ExtractPayload(text)
	assert.Nil(t, payload)
	assert.Equal(t, text, clean)
}

func TestExtractPayloadBracesInsideStrings(t *testing.T) {
	text := `Anotado. {"order_details":{"name":"Ana","address":"Cra 7 {apto 2}","products":[]}}`

	payload, clean := ExtractPayload(text)
	require.NotNil(t, payload)
	assert.Equal(t, "Cra 7 {apto 2}", payload.Address)
	assert.Equal(t, "Anotado.", clean)
}
