package dynconfig

import "github.com/bhatinags-creator/au-api-banking-sub001/pkg/validation"

// Default values returned by the resolver when the config service cannot answer.
// Each call returns a fresh copy.

func DefaultUIConfig() UIConfig {
	return UIConfig{
		Theme: Theme{
			PrimaryColor:   "#0B3D91",
			SecondaryColor: "#F5A623",
			AccentColor:    "#00A3E0",
			FontFamily:     "Inter, sans-serif",
			DarkMode:       false,
		},
		Branding: Branding{
			BankName:     "AU Bank",
			LogoURL:      "/assets/logo.svg",
			Tagline:      "Open banking APIs for builders",
			SupportEmail: "developer.support@aubank.example",
		},
		Features: Features{
			SandboxEnabled:      true,
			APIExplorerEnabled:  true,
			RegistrationEnabled: true,
			MaintenanceBanner:   "",
		},
		Navigation: []NavItem{
			{Label: "Home", Path: "/"},
			{Label: "APIs", Path: "/apis"},
			{Label: "Sandbox", Path: "/sandbox"},
			{Label: "Docs", Path: "/docs"},
		},
	}
}

func DefaultFormConfigs() []FormConfig {
	return []FormConfig{
		{
			FormType:    "registration",
			Title:       "Create your developer account",
			SubmitLabel: "Register",
			Fields: []FormField{
				{Name: "name", Label: "Full name", Type: "text", Required: true},
				{Name: "email", Label: "Email", Type: "email", Required: true},
				{Name: "password", Label: "Password", Type: "password", Required: true},
			},
			MaxAttachmentMB: 0,
			CaptchaEnabled:  true,
		},
		{
			FormType:    "corporate-registration",
			Title:       "Register your organisation",
			SubmitLabel: "Submit application",
			Fields: []FormField{
				{Name: "companyName", Label: "Company name", Type: "text", Required: true},
				{Name: "registrationNumber", Label: "Registration number", Type: "text", Required: true},
				{Name: "email", Label: "Business email", Type: "email", Required: true},
			},
			MaxAttachmentMB: 10,
			CaptchaEnabled:  true,
		},
		{
			FormType:    "login",
			Title:       "Sign in",
			SubmitLabel: "Sign in",
			Fields: []FormField{
				{Name: "email", Label: "Email", Type: "email", Required: true},
				{Name: "password", Label: "Password", Type: "password", Required: true},
			},
		},
		{
			FormType:    "contact",
			Title:       "Contact us",
			SubmitLabel: "Send",
			Fields: []FormField{
				{Name: "name", Label: "Name", Type: "text", Required: true},
				{Name: "email", Label: "Email", Type: "email", Required: true},
				{Name: "message", Label: "Message", Type: "textarea", Required: true},
			},
			MaxAttachmentMB: 5,
		},
		{
			FormType:    "api-access-request",
			Title:       "Request production access",
			SubmitLabel: "Request access",
			Fields: []FormField{
				{Name: "appName", Label: "Application", Type: "text", Required: true},
				{Name: "useCase", Label: "Use case", Type: "textarea", Required: true},
			},
			MaxAttachmentMB: 10,
		},
	}
}

func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		API: APISettings{
			DefaultTimeout:     30000,
			MaxRetries:         3,
			RateLimitPerMinute: 60,
		},
		Validation: ValidationLimits{
			MaxNameLength:        100,
			MaxDescriptionLength: 500,
			MinPasswordLength:    8,
			MaxEmailLength:       254,
		},
		Sandbox: SandboxSettings{
			MaxRequestsPerSession: 100,
			ResponseDelayMs:       0,
			SessionTTLMinutes:     30,
		},
		Pagination: PaginationSettings{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
	}
}

func DefaultValidationConfigs() []ValidationConfig {
	minPassword := 8
	maxName := 100
	return []ValidationConfig{
		{
			EntityType: "user",
			Rules: map[string]validation.Descriptor{
				"email":    {Required: true, Type: validation.TypeEmail},
				"password": {Required: true, MinLength: &minPassword},
				"name":     {MaxLength: &maxName},
			},
		},
		{
			EntityType: "corporate-registration",
			Rules: map[string]validation.Descriptor{
				"companyName":        {Required: true},
				"email":              {Required: true, Type: validation.TypeEmail},
				"registrationNumber": {Required: true},
			},
		},
		{
			EntityType: "api-endpoint",
			Rules: map[string]validation.Descriptor{
				"path":   {Required: true, Pattern: "^/"},
				"method": {Required: true, Enum: []any{"GET", "POST", "PUT", "PATCH", "DELETE"}},
			},
			Strict: true,
		},
		{
			EntityType: "developer-app",
			Rules: map[string]validation.Descriptor{
				"appName": {Required: true, MaxLength: &maxName},
			},
		},
	}
}

func DefaultAPIExplorerConfig() APIExplorerConfig {
	return APIExplorerConfig{
		DefaultEnvironment: "sandbox",
		Environments:       []string{"sandbox", "uat", "production"},
		RequestTimeoutMs:   30000,
		ShowCurlSnippet:    true,
		MaxHistoryItems:    20,
		DefaultHeaders: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
	}
}

func DefaultCategoryStyles() []CategoryStyleConfig {
	return []CategoryStyleConfig{
		{Category: "accounts", Color: "#0B3D91", Icon: "wallet", BadgeVariant: "primary"},
		{Category: "payments", Color: "#1E8E3E", Icon: "send", BadgeVariant: "success"},
		{Category: "cards", Color: "#8E24AA", Icon: "credit-card", BadgeVariant: "secondary"},
		{Category: "lending", Color: "#F5A623", Icon: "landmark", BadgeVariant: "warning"},
		{Category: "investments", Color: "#00A3E0", Icon: "trending-up", BadgeVariant: "info"},
		{Category: "compliance", Color: "#D93025", Icon: "shield", BadgeVariant: "danger"},
	}
}
