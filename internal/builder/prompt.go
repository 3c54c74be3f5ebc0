package builder

import (
	"fmt"
	"strings"
)

// productsSummaryMaxLen bounds the product list rendered into a prompt.
const productsSummaryMaxLen = 200

// productsSummary renders the product list as "name:$price" entries.
func productsSummary(products []Product) string {
	parts := make([]string, len(products))
	for i, p := range products {
		parts[i] = fmt.Sprintf("%s:$%g", p.Name, p.Price)
	}
	s := strings.Join(parts, ", ")
	if len(s) > productsSummaryMaxLen {
		s = s[:productsSummaryMaxLen]
	}
	return s
}

// orNotSet substitutes a placeholder for unset fields in the prompt.
func orNotSet(s string) string {
	if s == "" {
		return "Not set"
	}
	return s
}

// buildSystemPrompt assembles the extraction instruction for one message.
// It embeds the current field values, the recent conversation window, the
// disambiguation rules the model keeps getting wrong (color vs background
// image), and worked examples of the expected JSON shape.
func buildSystemPrompt(cfg *Configuration) string {
	products := productsSummary(cfg.Products)
	if products == "" {
		products = "None"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You're building a %s storefront agent. Current state: %s\n\n", cfg.AgentType, cfg.Phase)

	sb.WriteString(`CRITICAL RULES - READ CAREFULLY:
1. "hero text color" or "hero color" -> ONLY update hero_color field (hex color)
2. "subheader color" -> ONLY update subheader_color field (hex color)
3. "background" or "background image" -> ONLY update background_image field (URL or empty string)
4. NEVER set background_image when user says "color" or "text"
5. NEVER set hero_color/subheader_color to URLs or empty strings

`)

	fmt.Fprintf(&sb, `Current build:
Brand: %s
Header: %s
Subheader: %s
Hero Color: %s
Hero Size: %s
Subheader Color: %s
Subheader Size: %s
Products: %s
Background Image: %s
Tone: %s

`,
		orNotSet(cfg.BrandName),
		orNotSet(cfg.HeroHeader),
		orNotSet(cfg.HeroSubheader),
		cfg.HeroColor,
		cfg.HeroTextSize,
		cfg.SubheaderColor,
		cfg.SubheaderTextSize,
		products,
		orNotSet(cfg.BackgroundImage),
		cfg.SalesTone,
	)

	sb.WriteString("Recent conversation:\n")
	sb.WriteString(renderWindow(promptWindow(cfg.History)))
	sb.WriteByte('\n')

	sb.WriteString("Parse the user's message and extract any business details. Guide them naturally through building their storefront.\n")
	fmt.Fprintf(&sb, `Return JSON: {"updated_fields": {"brand_name": null, "hero_header": null, "hero_subheader": null, "hero_color": null, "hero_text_size": null, "subheader_color": null, "subheader_text_size": null, "background_image": null, "products": null, "sales_tone": null}, "next_state": "%s", "ai_response": "your response"}

`, cfg.Phase)

	sb.WriteString(`Examples:
- "I want to sell tea" -> Ask about brand name, suggest options
- "Call it TeaTime" -> {"brand_name": "TeaTime"}, ask about headline
- "Make hero text blue" -> {"hero_color": "#3B82F6"}
- "Subheader red" -> {"subheader_color": "#EF4444"}
- "Remove background" -> {"background_image": ""}
- "Add Green Tea $25" -> {"products": [{"name": "Green Tea", "price": 25}]}`)

	return sb.String()
}

// buildShopPrompt assembles the sales-assistant instruction for the
// published storefront's shopper chat.
func buildShopPrompt(cfg *Configuration) string {
	brand := cfg.BrandName
	if brand == "" {
		brand = "this store"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a sales assistant for %s.\n", brand)
	fmt.Fprintf(&sb, "Products available: %s\n", productsSummary(cfg.Products))
	fmt.Fprintf(&sb, "Tone: %s\n", cfg.SalesTone)
	sb.WriteString("Help customers find products and make purchases.")
	return sb.String()
}
