package util

import (
	"fmt"
	"net/url"
	"strings"
)

const storeBaseURL = "https://store.steampowered.com"

// AppURL returns the canonical store page for an app.
func AppURL(appID int) string {
	return fmt.Sprintf("%s/app/%d/", storeBaseURL, appID)
}

// HostAllowed reports whether rawURL is http(s) and its hostname is in the
// allowlist. An empty allowlist allows every host.
func HostAllowed(rawURL string, allowed []string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL %s: %w", rawURL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %s: only http and https allowed", parsedURL.Scheme)
	}

	if len(allowed) == 0 {
		return nil
	}
	hostname := strings.ToLower(parsedURL.Hostname())
	for _, domain := range allowed {
		if hostname == domain {
			return nil
		}
	}
	return fmt.Errorf("security violation: URL hostname %s is not in allowlist", hostname)
}
