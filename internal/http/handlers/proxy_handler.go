// Image proxy handler.
//
// Browsers cannot fetch MangaDex-hosted images directly because the CDN
// does not send CORS headers. GET /proxy/image?url= fetches the image
// server-side and relays it with permissive CORS and a long cache
// lifetime. Only MangaDex image hosts are accepted.
package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/denshikawa/go-manga-backend/internal/http/middleware"
)

// proxyCacheControl matches the CDN's own immutable-content policy.
const proxyCacheControl = "public, max-age=31536000"

// allowedProxyURL reports whether the target is an https URL on a MangaDex
// image host. Covers live on uploads.mangadex.org; chapter pages are served
// from rotating mangadex.network nodes. The decision is made on the parsed
// host, so the allowed names cannot be smuggled in via path or query.
func allowedProxyURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	return host == "uploads.mangadex.org" ||
		host == "mangadex.network" ||
		strings.HasSuffix(host, ".mangadex.network")
}

// ProxyImage handles GET /proxy/image?url=.
func (h *Handlers) ProxyImage(c *gin.Context) {
	raw := c.Query("url")
	if !allowedProxyURL(raw) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "url must point at a MangaDex image host")
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, raw, nil)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid image url")
		return
	}

	resp, err := h.proxy.Do(req)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("url", raw).Msg("image proxy fetch failed")
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "failed to fetch image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "failed to fetch image")
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	c.Header("Cache-Control", proxyCacheControl)
	c.Header("Access-Control-Allow-Origin", "*")
	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, nil)
}
