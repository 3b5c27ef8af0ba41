package gravatar

import (
	"crypto/md5" //nolint:gosec
	"fmt"
	"net/url"
	"strings"

	"github.com/simmerhq/simmer/config"
)

// URL returns the Gravatar URL for the given email address.
// Returns an empty string if Gravatar is disabled or email is empty.
func URL(email string, cfg *config.GravatarConfig) string {
	if cfg == nil || !cfg.Enabled || email == "" {
		return ""
	}

	email = strings.TrimSpace(strings.ToLower(email))
	hash := md5.Sum([]byte(email)) //nolint:gosec

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Add("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Add("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Add("s", fmt.Sprintf("%d", cfg.Size))
	}

	base := fmt.Sprintf("https://www.gravatar.com/avatar/%x", hash)
	if len(params) > 0 {
		return base + "?" + params.Encode()
	}
	return base
}
