package conversation

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/elroble/vendibot/internal/catalog"
)

// Cheap lexical gate: only messages that mention photos or images trigger
// the LLM image-intent call.
var imageIntentPattern = regexp.MustCompile(`(?i)\b(foto|fotos|imagen|imagenes|imágenes|photo|photos|image|images|picture|pictures)\b`)

// WantsImagesHint reports whether the message looks like an image request.
func WantsImagesHint(text string) bool {
	return imageIntentPattern.MatchString(text)
}

// ImageToSend is one image the model selected for delivery.
type ImageToSend struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// ImageAction is the constrained JSON reply of the image-intent prompt.
type ImageAction struct {
	SendImages bool          `json:"send_images"`
	Images     []ImageToSend `json:"images_to_send"`
}

type imageIntentCatalogEntry struct {
	Name     string                    `json:"name"`
	Images   []string                  `json:"images"`
	Variants []imageIntentVariantEntry `json:"variants"`
}

type imageIntentVariantEntry struct {
	Options map[string]string `json:"options"`
	Images  []string          `json:"images"`
}

type imageIntentPrompt struct {
	UserRequest  string                    `json:"user_request"`
	Catalog      []imageIntentCatalogEntry `json:"catalog"`
	Instructions []string                  `json:"instructions"`
}

// BuildImageIntentPrompt serializes the user request plus the catalog's
// image inventory into the constrained instruction prompt.
func BuildImageIntentPrompt(userText string, products []catalog.Product) (string, error) {
	entries := make([]imageIntentCatalogEntry, 0, len(products))
	for _, p := range products {
		entry := imageIntentCatalogEntry{Name: p.Name, Images: []string{}}
		variantImages := make(map[string][]string)
		for _, img := range p.Images {
			if img.VariantID == nil {
				entry.Images = append(entry.Images, img.URL)
			} else {
				key := img.VariantID.String()
				variantImages[key] = append(variantImages[key], img.URL)
			}
		}
		for _, v := range p.Variants {
			imgs := append([]string{}, variantImages[v.ID.String()]...)
			for _, vi := range v.Images {
				imgs = append(imgs, vi.URL)
			}
			entry.Variants = append(entry.Variants, imageIntentVariantEntry{
				Options: v.Options,
				Images:  imgs,
			})
		}
		entries = append(entries, entry)
	}

	prompt := imageIntentPrompt{
		UserRequest: userText,
		Catalog:     entries,
		Instructions: []string{
			`Si el usuario pide imágenes, devuelve JSON EXACTO: {"send_images": true, "images_to_send": [{"url": "<url>", "caption": "<caption>"}]}`,
			`Si no pide imágenes, devuelve {"send_images": false}.`,
		},
	}

	data, err := json.Marshal(prompt)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseImageAction extracts the JSON object from a free-form model reply.
// Any parse failure means "no image intent"; it is never an error.
func ParseImageAction(raw string) ImageAction {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ImageAction{}
	}

	var action ImageAction
	if err := json.Unmarshal([]byte(raw[start:end+1]), &action); err != nil {
		return ImageAction{}
	}
	return action
}
