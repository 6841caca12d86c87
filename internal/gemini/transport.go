package gemini

import (
	"fmt"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

const DefaultProfile = "chrome_133"

// Doer is the part of an HTTP client the Gemini client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var clientProfiles = map[string]profiles.ClientProfile{
	"chrome_133":      profiles.Chrome_133,
	"chrome_131":      profiles.Chrome_131,
	"chrome_124":      profiles.Chrome_124,
	"chrome_120":      profiles.Chrome_120,
	"firefox_135":     profiles.Firefox_135,
	"firefox_133":     profiles.Firefox_133,
	"firefox_123":     profiles.Firefox_123,
	"safari_16_0":     profiles.Safari_16_0,
	"safari_ios_18_0": profiles.Safari_IOS_18_0,
	"opera_91":        profiles.Opera_91,
}

// LookupProfile resolves a profile name, case-insensitively.
func LookupProfile(name string) (profiles.ClientProfile, error) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := clientProfiles[strings.ToLower(name)]
	if !ok {
		return profiles.ClientProfile{}, fmt.Errorf("unknown client profile %q", name)
	}
	return p, nil
}

func transportOptions(profile profiles.ClientProfile, timeout time.Duration) []tls_client.HttpClientOption {
	secs := int(timeout / time.Second)
	if secs <= 0 {
		secs = int(DefaultTimeout / time.Second)
	}
	return []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(secs),
		tls_client.WithClientProfile(profile),
		tls_client.WithNotFollowRedirects(),
		tls_client.WithRandomTLSExtensionOrder(),
	}
}

// NewTransport builds the outbound HTTP client for the named profile.
func NewTransport(profileName string, timeout time.Duration) (Doer, error) {
	profile, err := LookupProfile(profileName)
	if err != nil {
		return nil, err
	}
	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), transportOptions(profile, timeout)...)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	return client, nil
}
