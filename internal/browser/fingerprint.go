package browser

import "math/rand"

// FingerprintProfile is the device identity a session presents: user
// agent, viewport and language headers together have to look like one
// plausible machine.
type FingerprintProfile struct {
	UserAgent      string
	AcceptLanguage string
	Width          int
	Height         int
}

// profiles are a small set of current desktop identities. Viewports are
// paired with their user agents so the combination stays consistent.
var profiles = []FingerprintProfile{
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		AcceptLanguage: "en-AU,en;q=0.9",
		Width:          1920,
		Height:         1080,
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		AcceptLanguage: "en-AU,en;q=0.9",
		Width:          1440,
		Height:         900,
	},
	{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
		AcceptLanguage: "en-AU,en;q=0.8",
		Width:          1680,
		Height:         1050,
	},
}

// RandomFingerprint picks one of the known-plausible profiles.
func RandomFingerprint() FingerprintProfile {
	return profiles[rand.Intn(len(profiles))]
}
