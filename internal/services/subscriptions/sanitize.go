package subscriptions

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

const maxFolderRunes = 80

// forbidden are the filesystem-hostile characters stripped from folder names
const forbidden = `/\:*?"<>|`

// SanitizeFolder turns a show title into a safe directory name. When the
// title sanitizes away to nothing, the feed URL's path supplies a fallback,
// and "Podcast" is the last resort.
func SanitizeFolder(title, feedURL string) string {
	if name := sanitize(title); name != "" {
		return name
	}
	if name := sanitize(folderFromURL(feedURL)); name != "" {
		return name
	}
	return "Podcast"
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) || strings.ContainsRune(forbidden, r) {
			continue
		}
		b.WriteRune(r)
	}

	name := strings.Join(strings.Fields(b.String()), " ")
	name = strings.Trim(name, ". ")

	runes := []rune(name)
	if len(runes) > maxFolderRunes {
		name = strings.TrimRight(string(runes[:maxFolderRunes]), ". ")
	}
	return name
}

// folderFromURL derives a name from the last meaningful path segment of
// the feed URL, falling back to the host
func folderFromURL(feedURL string) string {
	u, err := url.Parse(strings.TrimSpace(feedURL))
	if err != nil {
		return ""
	}

	base := path.Base(strings.TrimSuffix(u.Path, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base != "" && base != "." && base != "/" {
		return base
	}
	return u.Hostname()
}
