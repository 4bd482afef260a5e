package media

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const netscapeHeader = "# Netscape HTTP Cookie File"

// browserCookie is one entry of a browser-extension JSON cookie export
type browserCookie struct {
	Domain         string  `json:"domain"`
	HostOnly       *bool   `json:"hostOnly"`
	Path           string  `json:"path"`
	Secure         bool    `json:"secure"`
	ExpirationDate float64 `json:"expirationDate"`
	Name           string  `json:"name"`
	Value          string  `json:"value"`
}

// prepareCookieFile turns the configured cookie setting into a file
// yt-dlp can read. The setting may be a path to a Netscape cookie file,
// a JSON cookie export, or raw Netscape text. The returned cleanup
// removes any file this function created.
func prepareCookieFile(cookies, dir string) (string, func(), error) {
	noop := func() {}
	cookies = strings.TrimSpace(cookies)
	if cookies == "" {
		return "", noop, nil
	}

	if info, err := os.Stat(cookies); err == nil && !info.IsDir() {
		return cookies, noop, nil
	}

	content, ok := jsonToNetscape(cookies)
	if !ok {
		content = cookies
		if !strings.HasPrefix(content, netscapeHeader) {
			content = netscapeHeader + "\n" + content
		}
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
	}

	f, err := os.CreateTemp(dir, "cookies_*.txt")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create cookie file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", noop, fmt.Errorf("failed to write cookie file: %v", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", noop, err
	}

	path := f.Name()
	return path, func() { os.Remove(path) }, nil
}

// jsonToNetscape converts a JSON export. ok is false when the text is
// not JSON, in which case it is treated as Netscape text.
func jsonToNetscape(text string) (string, bool) {
	if !strings.HasPrefix(text, "[") && !strings.HasPrefix(text, "{") {
		return "", false
	}

	var list []browserCookie
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		var single browserCookie
		if err := json.Unmarshal([]byte(text), &single); err != nil {
			return "", false
		}
		list = []browserCookie{single}
	}

	var b strings.Builder
	b.WriteString(netscapeHeader + "\n")
	for _, c := range list {
		if c.Domain == "" || c.Name == "" {
			continue
		}
		includeSub := strings.HasPrefix(c.Domain, ".")
		if c.HostOnly != nil {
			includeSub = !*c.HostOnly
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			c.Domain, netscapeBool(includeSub), path, netscapeBool(c.Secure),
			int64(c.ExpirationDate), c.Name, c.Value)
	}
	return b.String(), true
}

func netscapeBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}
