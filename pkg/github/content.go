package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pyventory/pyventory/pkg/cache"
)

// FetchFile fetches a single file from a branch and returns its decoded
// content. An absent file is an expected outcome of probing for manifests,
// so any non-success status yields found=false with a nil error; the error
// is reserved for transport failures and context cancellation.
//
// Decoded content is cached keyed by repository, ref, and path, so re-scans
// of unchanged branches skip the API entirely.
func (c *Client) FetchFile(ctx context.Context, fullName, path, ref string) (content string, found bool, err error) {
	key := cache.Hash([]byte(fmt.Sprintf("content:%s:%s:%s", fullName, ref, path)))
	if data, ok, cacheErr := c.cache.Get(ctx, key); cacheErr == nil && ok {
		return string(data), true, nil
	}

	reqURL := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s",
		c.baseURL, fullName, escapePath(path), url.QueryEscape(ref))
	res, err := c.Get(ctx, reqURL)
	if err != nil {
		return "", false, err
	}
	if res.StatusCode != http.StatusOK {
		return "", false, nil
	}

	var file contentResponse
	if err := json.Unmarshal(res.Body, &file); err != nil {
		c.logger.Debug("unexpected content payload", "path", path, "err", err)
		return "", false, nil
	}

	text := file.Content
	if file.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
		if err != nil {
			c.logger.Debug("undecodable file content", "path", path, "err", err)
			return "", false, nil
		}
		text = string(decoded)
	}
	// Binary blobs occasionally masquerade as source files; replace invalid
	// sequences instead of propagating broken strings downstream.
	text = strings.ToValidUTF8(text, "�")

	if err := c.cache.Set(ctx, key, []byte(text), c.cacheTTL); err != nil {
		c.logger.Debug("cache write failed", "err", err)
	}
	return text, true, nil
}

// escapePath escapes each segment of a repository path, keeping the slashes.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
