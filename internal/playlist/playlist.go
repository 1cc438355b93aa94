// Package playlist fetches and parses the backend's M3U output into an
// ordered channel list, and owns channel-name derivation: the base name
// used as the stable result-matrix row key, and filesystem-safe names for
// thumbnail files.
package playlist

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Channel is one playable entry from the M3U. Immutable once parsed.
type Channel struct {
	Name string
	URL  string
}

var (
	reGroupTitle = regexp.MustCompile(`group-title="([^"]+)"`)
	reTvgName    = regexp.MustCompile(`tvg-name="([^"]+)"`)

	// Dispatcharr marks forced-transcode variants by appending a
	// superscript RAW tag to the display name. Everything from the tag
	// onward is decoration, not identity.
	reVariantSuffix = regexp.MustCompile(`\s*ᴿᴬᵂ.*`)

	reUnsafePathChars = regexp.MustCompile(`[\\/*?:"<>|]`)
)

// BaseName returns the channel's display name with any variant-marking
// suffix stripped. The same physical channel across delivery profiles
// collapses to one row key regardless of suffix.
func (c Channel) BaseName() string {
	return strings.TrimSpace(reVariantSuffix.ReplaceAllString(c.Name, ""))
}

// SafeFileName returns the base name with characters invalid in file names
// removed, for use in thumbnail paths.
func (c Channel) SafeFileName() string {
	return reUnsafePathChars.ReplaceAllString(c.BaseName(), "")
}

// Fetch downloads the M3U at url and returns the selected channel window.
// The request carries userAgent because some upstreams reject default Go
// client signatures.
func Fetch(url, userAgent, group, startChannel string, count int) ([]Channel, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch M3U: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch M3U: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read M3U: %w", err)
	}
	return Select(Parse(string(body), group), startChannel, count)
}

// Parse extracts channels from raw M3U text. When group is non-empty only
// entries whose group-title matches are kept. The tvg-name attribute is
// preferred; the text after the last comma of the EXTINF line is the
// fallback. The stream URL is the next non-empty line.
func Parse(raw, group string) []Channel {
	lines := strings.Split(raw, "\n")
	var channels []Channel

	for i, line := range lines {
		if !strings.HasPrefix(line, "#EXTINF:") {
			continue
		}
		if group != "" {
			m := reGroupTitle.FindStringSubmatch(line)
			if m == nil || m[1] != group {
				continue
			}
		}

		name := ""
		if m := reTvgName.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if idx := strings.LastIndex(line, ","); idx >= 0 {
			name = strings.TrimSpace(line[idx+1:])
		}
		if name == "" {
			continue
		}

		url := ""
		for j := i + 1; j < len(lines); j++ {
			candidate := strings.TrimSpace(lines[j])
			if candidate == "" {
				continue
			}
			if !strings.HasPrefix(candidate, "#") {
				url = candidate
			}
			break
		}
		if url == "" {
			continue
		}

		channels = append(channels, Channel{Name: name, URL: url})
	}
	return channels
}

// Select returns the test window: up to count channels beginning at the
// first whose name contains startChannel. An empty startChannel starts at
// the top of the list.
func Select(channels []Channel, startChannel string, count int) ([]Channel, error) {
	start := 0
	if startChannel != "" {
		start = -1
		for i, ch := range channels {
			if strings.Contains(ch.Name, startChannel) {
				start = i
				break
			}
		}
		if start == -1 {
			return nil, fmt.Errorf("start channel %q not found in playlist", startChannel)
		}
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("playlist contains no channels")
	}

	end := start + count
	if end > len(channels) {
		end = len(channels)
	}
	return channels[start:end], nil
}
