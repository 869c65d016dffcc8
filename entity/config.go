package entity

// PublicConfig is served to the web client without authentication.
type PublicConfig struct {
	RecaptchaSiteKey   string   `json:"recaptcha_site_key"`
	CooldownSeconds    int      `json:"cooldown_seconds"`
	DefaultCountryCode string   `json:"default_country_code"`
	Wizards            []string `json:"wizards"`
}
