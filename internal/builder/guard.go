package builder

import "log/slog"

// namedColors is the closed set of color words accepted in place of a hex
// code. Anything else must be "#" followed by a hex run.
var namedColors = map[string]bool{
	"red":   true,
	"blue":  true,
	"white": true,
	"black": true,
	"green": true,
}

// scalarFields are the Configuration fields that accept any string value.
// Field names here use the wire (snake_case) convention the model emits.
var scalarFields = map[string]bool{
	"brand_name":          true,
	"hero_header":         true,
	"hero_subheader":      true,
	"hero_text_size":      true,
	"subheader_text_size": true,
	"sales_tone":          true,
	"agent_type":          true,
}

// colorFields are guarded against URLs and other non-color strings.
var colorFields = map[string]bool{
	"hero_color":      true,
	"subheader_color": true,
}

// ValidColorToken reports whether s is a recognized color representation:
// "#" followed by a 3, 4, 6 or 8 digit hex run, or one of the named colors.
// The empty string is not a valid color token.
func ValidColorToken(s string) bool {
	if namedColors[s] {
		return true
	}
	if len(s) < 2 || s[0] != '#' {
		return false
	}
	run := s[1:]
	switch len(run) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for i := 0; i < len(run); i++ {
		c := run[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// validateField decides whether a single extracted field update may be
// applied. The extraction model is unreliable about which semantic field a
// phrase like "make it blue" refers to, so this is the last line of defense
// against cross-field corruption. It fails open: a rejected field is
// dropped with a diagnostic and must never block the rest of the update.
//
// For "products" the accepted value is returned in normalized form
// ([]Product with name present, price >= 0, image defaulted).
func validateField(field string, value any, logger *slog.Logger) (any, bool) {
	if value == nil {
		return nil, false
	}

	switch {
	case colorFields[field]:
		s, isStr := value.(string)
		if !isStr || !ValidColorToken(s) {
			logger.Warn("guard rejected field update", "field", field, "value", value)
			return nil, false
		}
		return s, true

	case field == "background_image":
		s, isStr := value.(string)
		if !isStr {
			logger.Warn("guard rejected field update", "field", field, "value", value)
			return nil, false
		}
		// A leading "#" is a color token mistakenly routed to the image
		// field. Empty string is allowed: it clears the background.
		if len(s) > 0 && s[0] == '#' {
			logger.Warn("guard rejected color token as background image", "value", s)
			return nil, false
		}
		return s, true

	case field == "products":
		raw, isList := value.([]any)
		if !isList {
			logger.Warn("guard rejected non-list products value", "value", value)
			return nil, false
		}
		products := normalizeProducts(raw, logger)
		if len(products) == 0 {
			return nil, false
		}
		return products, true

	case scalarFields[field]:
		s, isStr := value.(string)
		if !isStr {
			logger.Warn("guard rejected non-string scalar", "field", field, "value", value)
			return nil, false
		}
		return s, true

	default:
		// Unknown field names are ignored for forward compatibility.
		logger.Debug("ignoring unknown field in update", "field", field)
		return nil, false
	}
}

// normalizeProducts converts the raw decoded product list into typed
// Products. Elements without a name, or with a negative price, are dropped
// individually so one bad entry does not discard the rest.
func normalizeProducts(raw []any, logger *slog.Logger) []Product {
	products := make([]Product, 0, len(raw))
	for _, elem := range raw {
		m, isMap := elem.(map[string]any)
		if !isMap {
			logger.Warn("guard dropped malformed product entry", "entry", elem)
			continue
		}

		name, _ := m["name"].(string)
		if name == "" {
			logger.Warn("guard dropped product without name", "entry", m)
			continue
		}

		price, _ := m["price"].(float64) // absent price defaults to 0
		if price < 0 {
			logger.Warn("guard dropped product with negative price", "name", name, "price", price)
			continue
		}

		image, _ := m["image"].(string)
		if image == "" {
			image = DefaultProductImage
		}

		products = append(products, Product{Name: name, Price: price, Image: image})
	}
	return products
}
