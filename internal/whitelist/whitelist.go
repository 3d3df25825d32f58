package whitelist

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker reports whether a sender belongs to a trusted domain
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new trusted domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}

	normalizedDomains := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain != "" {
			normalizedDomains = append(normalizedDomains, domain)
		}
	}

	if len(normalizedDomains) > 0 {
		logger.Info("Initialized trusted domain checker", zap.Strings("domains", normalizedDomains))
	}

	return &Checker{
		domains: normalizedDomains,
		logger:  logger,
	}
}

// IsTrusted checks whether the sender's domain, or a parent of it, is trusted.
// from may be a bare address or a display-name form such as "Bob <bob@example.com>".
func (c *Checker) IsTrusted(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain := senderDomain(from)
	if domain == "" {
		return false
	}

	for _, trusted := range c.domains {
		if domain == trusted || strings.HasSuffix(domain, "."+trusted) {
			c.logger.Debug("Sender domain is trusted",
				zap.String("domain", domain),
				zap.String("sender", from))
			return true
		}
	}

	return false
}

// senderDomain returns the lower-cased domain of an address, or "" if it has none
func senderDomain(from string) string {
	address := strings.TrimSpace(from)
	if parsed, err := mail.ParseAddress(address); err == nil {
		address = parsed.Address
	}

	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}
