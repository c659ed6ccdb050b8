// Utilities for parsing a browser "Copy as cURL" command into a session.
package shared

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var (
	headerRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	cookieRegex = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	urlRegex    = regexp.MustCompile(`(?:^|\s)'?(https?://[^\s']+)'?`)
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts the target URL, headers, and the cookie string.
//
// A cookie passed with -b/--cookie wins over a Cookie header.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	curlCmd := strings.ReplaceAll(string(data), "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	parsed := &CurlHeaders{Headers: make(map[string]string)}
	var headerCookie string

	for _, match := range headerRegex.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstNonEmpty(match[1], match[2]), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		parsed.Headers[key] = value
	}

	if m := cookieRegex.FindStringSubmatch(curlCmd); m != nil {
		parsed.Cookie = firstNonEmpty(m[1], m[2])
	}
	if parsed.Cookie == "" {
		parsed.Cookie = headerCookie
	}

	if m := urlRegex.FindStringSubmatch(curlCmd); m != nil {
		parsed.URL = m[1]
	}

	if len(parsed.Headers) == 0 && parsed.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return parsed, nil
}

// Cookies splits the parsed cookie string into name/value pairs.
func (c *CurlHeaders) Cookies() map[string]string {
	return ParseCookieHeader(c.Cookie)
}

// ParseCookieHeader parses a "name=value; other=value" Cookie header.
//
// Values are URL-unescaped when possible; pairs without a name are skipped.
func ParseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		cookies[name] = value
	}
	return cookies
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
