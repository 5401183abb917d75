package configsource

import (
	"context"
	"encoding/json"
)

// Domain names one configuration bundle served by the config service.
type Domain string

// Configuration domains.
const (
	DomainUI            Domain = "ui"
	DomainForm          Domain = "form"
	DomainSystem        Domain = "system"
	DomainValidation    Domain = "validation"
	DomainAPIExplorer   Domain = "api-explorer"
	DomainCategoryStyle Domain = "category-style"

	// DomainValidationRules is the per-entity constraint map consumed by the dynamic validator.
	// It is cached under DomainValidation.
	DomainValidationRules Domain = "validation-rules"
)

// Domains lists the configuration domains that have compiled-in defaults.
var Domains = []Domain{
	DomainUI,
	DomainForm,
	DomainSystem,
	DomainValidation,
	DomainAPIExplorer,
	DomainCategoryStyle,
}

// String implements fmt.Stringer.
func (d Domain) String() string { return string(d) }

// ParseDomain returns the domain named s.
func ParseDomain(s string) (Domain, bool) {
	d := Domain(s)
	if _, ok := routes[d]; ok {
		return d, true
	}
	return "", false
}

type route struct {
	path          string
	selectorParam string
}

var routes = map[Domain]route{
	DomainUI:              {path: "/api/config/ui"},
	DomainForm:            {path: "/api/config/forms", selectorParam: "formType"},
	DomainSystem:          {path: "/api/config/system", selectorParam: "module"},
	DomainValidation:      {path: "/api/config/validation", selectorParam: "entityType"},
	DomainValidationRules: {path: "/api/validation-rules", selectorParam: "entityType"},
	DomainAPIExplorer:     {path: "/api/config/api-explorer"},
	DomainCategoryStyle:   {path: "/api/config/category-styling"},
}

// Request identifies one fetch: a domain for an environment, optionally scoped by a selector
// (form type, module name or entity type).
type Request struct {
	Domain      Domain
	Environment string
	Selector    string
}

// Source fetches the data member of one domain's envelope. *Fetcher implements it.
type Source interface {
	Fetch(ctx context.Context, req Request) (json.RawMessage, error)
}
