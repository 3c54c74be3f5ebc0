package builder

import "time"

// Default values for a freshly created Configuration.
// Color and size defaults match the storefront preview's neutral theme.
const (
	DefaultHeroColor         = "#171717"
	DefaultHeroTextSize      = "text-2xl"
	DefaultSubheaderColor    = "#525252"
	DefaultSubheaderTextSize = "text-sm"
	DefaultSalesTone         = "friendly"
	DefaultAgentType         = "eCommerce"

	// DefaultProductImage is used when an extracted product has no image.
	DefaultProductImage = "https://images.unsplash.com/photo-1523381210434-271e8be1f52b?w=400"
)

// Product is a single sellable item on the storefront.
type Product struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// Pill is the lightweight display record derived from a Product.
// Pills are always recomputed from the product list, never edited directly.
type Pill struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Turn is one message in the conversation history. Immutable once appended.
type Turn struct {
	Role      string    `json:"role"` // "user" | "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Configuration is the durable, per-session storefront definition.
// One Configuration exists per session id; it is loaded, mutated, and
// persisted as a unit on every processed message.
type Configuration struct {
	SessionID string `json:"session_id"`
	Phase     Phase  `json:"state"`

	BrandName     string `json:"brand_name"`
	HeroHeader    string `json:"hero_header"`
	HeroSubheader string `json:"hero_subheader"`

	HeroColor         string `json:"hero_color"`
	HeroTextSize      string `json:"hero_text_size"`
	SubheaderColor    string `json:"subheader_color"`
	SubheaderTextSize string `json:"subheader_text_size"`

	BackgroundImage string `json:"background_image"`
	SalesTone       string `json:"sales_tone"`
	AgentType       string `json:"agent_type"`

	Products     []Product `json:"products"`
	ProductPills []Pill    `json:"product_pills"`

	History []Turn `json:"conversation_history"`
}

// NewConfiguration returns a Configuration with all documented defaults
// and the initial build phase.
func NewConfiguration(sessionID string) *Configuration {
	return &Configuration{
		SessionID:         sessionID,
		Phase:             PhaseStart,
		HeroColor:         DefaultHeroColor,
		HeroTextSize:      DefaultHeroTextSize,
		SubheaderColor:    DefaultSubheaderColor,
		SubheaderTextSize: DefaultSubheaderTextSize,
		SalesTone:         DefaultSalesTone,
		AgentType:         DefaultAgentType,
	}
}

// AppendTurn records a new turn at the end of the conversation history.
// History is strictly append-only; prior turns are never edited or removed.
func (c *Configuration) AppendTurn(role, content string) {
	c.History = append(c.History, Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// Clone returns a deep copy of the Configuration. Used to take a
// pre-mutation snapshot so a failed model call leaves no trace.
func (c *Configuration) Clone() *Configuration {
	cp := *c
	cp.Products = append([]Product(nil), c.Products...)
	cp.ProductPills = append([]Pill(nil), c.ProductPills...)
	cp.History = append([]Turn(nil), c.History...)
	return &cp
}

// View is the external representation of a Configuration, using the
// camelCase naming the storefront frontend expects.
type View struct {
	SessionID         string    `json:"sessionId"`
	State             string    `json:"state"`
	BrandName         string    `json:"brandName"`
	HeroHeader        string    `json:"heroHeader"`
	HeroSubheader     string    `json:"heroSubheader"`
	HeroColor         string    `json:"heroColor"`
	HeroTextSize      string    `json:"heroTextSize"`
	SubheaderColor    string    `json:"subheaderColor"`
	SubheaderTextSize string    `json:"subheaderTextSize"`
	Products          []Product `json:"products"`
	ProductPills      []Pill    `json:"productPills"`
	BackgroundImage   string    `json:"backgroundImage"`
	SalesTone         string    `json:"salesTone"`
	AgentType         string    `json:"agentType"`
}

// ExternalView converts the Configuration to its external representation.
// Nil slices become empty slices so the JSON encodes as [] rather than null.
func (c *Configuration) ExternalView() View {
	products := c.Products
	if products == nil {
		products = []Product{}
	}
	pills := c.ProductPills
	if pills == nil {
		pills = []Pill{}
	}
	return View{
		SessionID:         c.SessionID,
		State:             string(c.Phase),
		BrandName:         c.BrandName,
		HeroHeader:        c.HeroHeader,
		HeroSubheader:     c.HeroSubheader,
		HeroColor:         c.HeroColor,
		HeroTextSize:      c.HeroTextSize,
		SubheaderColor:    c.SubheaderColor,
		SubheaderTextSize: c.SubheaderTextSize,
		Products:          products,
		ProductPills:      pills,
		BackgroundImage:   c.BackgroundImage,
		SalesTone:         c.SalesTone,
		AgentType:         c.AgentType,
	}
}
