package dynconfig

import "github.com/bhatinags-creator/au-api-banking-sub001/pkg/validation"

// UIConfig is the portal theme, branding, feature switches and navigation.
type UIConfig struct {
	Theme      Theme     `json:"theme"`
	Branding   Branding  `json:"branding"`
	Features   Features  `json:"features"`
	Navigation []NavItem `json:"navigation"`
}

type Theme struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
	FontFamily     string `json:"fontFamily"`
	DarkMode       bool   `json:"darkMode"`
}

type Branding struct {
	BankName     string `json:"bankName"`
	LogoURL      string `json:"logoUrl"`
	Tagline      string `json:"tagline"`
	SupportEmail string `json:"supportEmail"`
}

type Features struct {
	SandboxEnabled      bool   `json:"sandboxEnabled"`
	APIExplorerEnabled  bool   `json:"apiExplorerEnabled"`
	RegistrationEnabled bool   `json:"registrationEnabled"`
	MaintenanceBanner   string `json:"maintenanceBanner"`
}

type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// FormConfig describes one form. Forms are keyed by FormType.
type FormConfig struct {
	FormType        string      `json:"formType"`
	Title           string      `json:"title"`
	SubmitLabel     string      `json:"submitLabel"`
	Fields          []FormField `json:"fields"`
	MaxAttachmentMB int         `json:"maxAttachmentMb"`
	CaptchaEnabled  bool        `json:"captchaEnabled"`
}

type FormField struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Placeholder string `json:"placeholder"`
}

// SystemConfig holds operational limits grouped by module.
type SystemConfig struct {
	API        APISettings        `json:"api"`
	Validation ValidationLimits   `json:"validation"`
	Sandbox    SandboxSettings    `json:"sandbox"`
	Pagination PaginationSettings `json:"pagination"`
}

type APISettings struct {
	DefaultTimeout     int `json:"defaultTimeout"`
	MaxRetries         int `json:"maxRetries"`
	RateLimitPerMinute int `json:"rateLimitPerMinute"`
}

type ValidationLimits struct {
	MaxNameLength        int `json:"maxNameLength"`
	MaxDescriptionLength int `json:"maxDescriptionLength"`
	MinPasswordLength    int `json:"minPasswordLength"`
	MaxEmailLength       int `json:"maxEmailLength"`
}

type SandboxSettings struct {
	MaxRequestsPerSession int `json:"maxRequestsPerSession"`
	ResponseDelayMs       int `json:"responseDelayMs"`
	SessionTTLMinutes     int `json:"sessionTtlMinutes"`
}

type PaginationSettings struct {
	DefaultPageSize int `json:"defaultPageSize"`
	MaxPageSize     int `json:"maxPageSize"`
}

// ValidationConfig is the admin view of one entity type's rules. Keyed by EntityType.
type ValidationConfig struct {
	EntityType string                           `json:"entityType"`
	Rules      map[string]validation.Descriptor `json:"rules"`
	Strict     bool                             `json:"strict"`
}

// APIExplorerConfig configures the sandbox request console.
type APIExplorerConfig struct {
	DefaultEnvironment string            `json:"defaultEnvironment"`
	Environments       []string          `json:"environments"`
	RequestTimeoutMs   int               `json:"requestTimeoutMs"`
	ShowCurlSnippet    bool              `json:"showCurlSnippet"`
	MaxHistoryItems    int               `json:"maxHistoryItems"`
	DefaultHeaders     map[string]string `json:"defaultHeaders"`
}

// CategoryStyleConfig styles one API catalog category. Keyed by Category.
type CategoryStyleConfig struct {
	Category     string `json:"category"`
	Color        string `json:"color"`
	Icon         string `json:"icon"`
	BadgeVariant string `json:"badgeVariant"`
}
