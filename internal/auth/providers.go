package auth

import "github.com/dealhunt/dealhunt-go/internal/models"

var oauthProviders = []models.OAuthProviderInfo{
	{
		Name:        "google",
		DisplayName: "Google",
		Icon:        "https://developers.google.com/identity/images/g-logo.png",
	},
	{
		Name:        "facebook",
		DisplayName: "Facebook",
		Icon:        "https://upload.wikimedia.org/wikipedia/commons/5/51/Facebook_f_logo_%282019%29.svg",
	},
}

// Providers returns the OAuth providers available for sign-in.
func (s *Service) Providers() []models.OAuthProviderInfo {
	providers := make([]models.OAuthProviderInfo, len(oauthProviders))
	copy(providers, oauthProviders)
	return providers
}
