package podbean

import (
	"fmt"
	"strings"
)

// BuildEmbed renders the embeddable player HTML for an episode. The episode id
// is pulled from the player URL by splitting on '&' and taking the first
// parameter whose first two characters are "i=". That only works for
// single-character parameter names and is not query-string-safe in general
// (reordering or encoding would break it), but it matches the URLs Podbean
// hands back today.
func BuildEmbed(playerURL, title string) string {
	var idParam string
	for _, param := range strings.Split(playerURL, "&") {
		if len(param) >= 2 && param[0] == 'i' && param[1] == '=' {
			idParam = param
			break
		}
	}
	return fmt.Sprintf(
		`<iframe title=%q allowtransparency="true" height="150" width="100%%" style="border: none; min-width: min(100%%, 430px);" scrolling="no" data-name="pb-iframe-player" src="https://www.podbean.com/player-v2/?%s&from=embed&share=1&download=1&fonts=Arial&skin=1&font-color=auto&logo_link=episode_page&btn-skin=7" loading="lazy"></iframe>`,
		title, idParam)
}
