package shell

import (
	verifdom "github.com/avelar/storefront/internal/verification/domain"
)

// PageConfig is the per-page shell configuration. Pages default to the
// gated policy; only login and terms opt out.
type PageConfig struct {
	Name   string
	Policy verifdom.PagePolicy
}

type Pages map[string]PageConfig

func DefaultPages() Pages {
	pages := Pages{}
	for _, name := range []string{"home", "offers", "about", "brand", "stock-dashboard", "sales-dashboard"} {
		pages[name] = PageConfig{Name: name, Policy: verifdom.DefaultPolicy()}
	}
	for _, name := range []string{"login", "terms"} {
		pages[name] = PageConfig{Name: name, Policy: verifdom.PagePolicy{RequireAgeVerification: false}}
	}
	return pages
}
