package builder

import "log/slog"

// applyUpdate validates and merges a PendingUpdate's fields into the
// Configuration. Each field passes the guard independently; rejected
// fields are skipped without affecting the others. Returns the wire names
// of the fields that were actually applied.
func applyUpdate(cfg *Configuration, upd PendingUpdate, logger *slog.Logger) []string {
	applied := make([]string, 0, len(upd.Fields))

	for field, raw := range upd.Fields {
		value, ok := validateField(field, raw, logger)
		if !ok {
			continue
		}

		switch field {
		case "brand_name":
			cfg.BrandName = value.(string)
		case "hero_header":
			cfg.HeroHeader = value.(string)
		case "hero_subheader":
			cfg.HeroSubheader = value.(string)
		case "hero_color":
			cfg.HeroColor = value.(string)
		case "hero_text_size":
			cfg.HeroTextSize = value.(string)
		case "subheader_color":
			cfg.SubheaderColor = value.(string)
		case "subheader_text_size":
			cfg.SubheaderTextSize = value.(string)
		case "background_image":
			cfg.BackgroundImage = value.(string)
		case "sales_tone":
			cfg.SalesTone = value.(string)
		case "agent_type":
			cfg.AgentType = value.(string)
		case "products":
			// Products accumulate: new entries append to the existing
			// list, they never replace it.
			cfg.Products = append(cfg.Products, value.([]Product)...)
			recomputePills(cfg)
		}

		applied = append(applied, field)
	}

	return applied
}

// recomputePills rebuilds the derived pill list from the product list.
// Pills are a pure function of products: same length, same order.
func recomputePills(cfg *Configuration) {
	pills := make([]Pill, len(cfg.Products))
	for i, p := range cfg.Products {
		image := p.Image
		if image == "" {
			image = DefaultProductImage
		}
		pills[i] = Pill{Name: p.Name, Image: image}
	}
	cfg.ProductPills = pills
}
