package engine

import (
	"net/url"
	"strings"

	"order-insights/internal/models"
)

// Attribution tags that are not taken from order data
const (
	SourceUnknownUTM = "unknown_utm"
	SourceGoogle     = "google"
	SourceFacebook   = "facebook.com"
	SourceInstagram  = "instagram.com"
	SourceOtherLink  = "other_link"

	TermOrganic  = "organic"
	TermReferral = "referral"
)

// channel names that say nothing about marketing origin
var ignoredSourceNames = map[string]bool{
	"shopify_draft_order": true,
	"pos":                 true,
	"other":               true,
}

// Resolve assigns an order to exactly one (source, term) pair. The first
// matching rule wins and the final rule always matches.
func Resolve(o *models.Order) models.Attribution {
	if o == nil {
		return models.Attribution{Source: models.SourceDirect, Term: models.SourceDirect}
	}

	if content := models.Value(o.UTMContent); isDigits(content) {
		return models.Attribution{Source: models.SourceFacebookAd, Term: content}
	}

	utmSource := models.Value(o.UTMSource)
	if term := models.Value(o.UTMTerm); term != "" {
		if utmSource == "" {
			utmSource = SourceUnknownUTM
		}
		return models.Attribution{Source: utmSource, Term: term}
	}
	if utmSource != "" {
		return models.Attribution{Source: utmSource, Term: utmSource}
	}

	if name := models.Value(o.SourceName); name != "" && !ignoredSourceNames[strings.ToLower(name)] {
		return models.Attribution{Source: name, Term: name}
	}

	if ref := models.Value(o.ReferringSite); ref != "" {
		return referrerAttribution(ref)
	}

	return models.Attribution{Source: models.SourceDirect, Term: models.SourceDirect}
}

func referrerAttribution(ref string) models.Attribution {
	u, err := url.Parse(ref)
	if err != nil || u.Hostname() == "" {
		return models.Attribution{Source: SourceOtherLink, Term: TermReferral}
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch {
	case strings.Contains(host, "google"):
		return models.Attribution{Source: SourceGoogle, Term: TermOrganic}
	case strings.Contains(host, "facebook"):
		return models.Attribution{Source: SourceFacebook, Term: TermReferral}
	case strings.Contains(host, "instagram"):
		return models.Attribution{Source: SourceInstagram, Term: TermReferral}
	}
	return models.Attribution{Source: host, Term: TermReferral}
}

// isDigits accepts unsigned decimal digits only. Ad ids never carry a sign,
// so "+123" or "-5" is treated as a plain tag.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
