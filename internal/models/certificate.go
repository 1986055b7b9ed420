package models

import (
	"strings"
	"time"
)

// CertificateRecord is one normalized certificate-log entry.
// The raw strings are kept as published; NotBeforeTime/NotAfterTime are only
// meaningful when the matching Has* flag is set.
type CertificateRecord struct {
	IssuerName string
	CommonName string
	NameValue  string
	NotBefore  string
	NotAfter   string

	NotBeforeTime time.Time
	NotAfterTime  time.Time
	HasNotBefore  bool
	HasNotAfter   bool
}

// Inverted reports whether both dates parsed and NotBefore is after NotAfter.
func (c CertificateRecord) Inverted() bool {
	return c.HasNotBefore && c.HasNotAfter && c.NotBeforeTime.After(c.NotAfterTime)
}

// Dated reports whether the record can take part in date-dependent analysis.
func (c CertificateRecord) Dated() bool {
	return c.HasNotBefore && !c.Inverted()
}

// SANs returns the trimmed, non-empty entries of NameValue in source order
func (c CertificateRecord) SANs() []string {
	var names []string
	for _, name := range strings.Split(c.NameValue, "\n") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// IsWildcard is true when the common name or any SAN starts with "*."
func (c CertificateRecord) IsWildcard() bool {
	if strings.HasPrefix(c.CommonName, "*.") {
		return true
	}
	for _, name := range c.SANs() {
		if strings.HasPrefix(name, "*.") {
			return true
		}
	}
	return false
}
