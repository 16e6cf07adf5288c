package api

import (
	"fmt"
	"net/url"
)

// AudioURL returns the locator for one page's synthesized audio. It is
// deterministic: equal inputs always produce an identical string, which
// is what the player and the prefetch cache compare to detect changes.
func AudioURL(base, docID string, page int, voice string, translated bool) string {
	return fmt.Sprintf("%s/audio/%s/%d?voice=%s&translate=%t",
		base, docID, page, url.QueryEscape(voice), translated)
}

// ImageURL returns the locator for one page's rendered image.
func ImageURL(base, docID string, page int) string {
	return fmt.Sprintf("%s/document/%s/image/%d", base, docID, page)
}
