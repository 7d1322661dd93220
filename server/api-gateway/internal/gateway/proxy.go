package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rb-369/Social-Media-Microservices/internal/web"
)

// Route maps an external path prefix to one backend service. Whether the auth
// gate applies is static per route, decided here and nowhere else.
type Route struct {
	Prefix        string
	Target        string
	RewritePrefix string
	RequiresAuth  bool
}

// newProxyHandler builds the reverse proxy for one route. The body streams
// through untouched; the only mutation on the relayed request is the identity
// header set by the auth gate.
func newProxyHandler(route Route, logger *logrus.Logger) (gin.HandlerFunc, error) {
	targetURL, err := url.Parse(route.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid target for %s: %w", route.Prefix, err)
	}

	director := func(req *http.Request) {
		req.URL.Scheme = targetURL.Scheme
		req.URL.Host = targetURL.Host
		req.Host = targetURL.Host

		trimmed := strings.TrimPrefix(req.URL.Path, route.Prefix)
		newPath := route.RewritePrefix + trimmed
		if !strings.HasPrefix(newPath, "/") {
			newPath = "/" + newPath
		}
		req.URL.Path = newPath
		req.URL.RawPath = ""
	}

	proxy := &httputil.ReverseProxy{
		Director: director,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 30 * time.Second,
		},
		ErrorHandler: func(rw http.ResponseWriter, r *http.Request, e error) {
			// Upstream detail never leaks to the client.
			logger.WithError(e).WithField("prefix", route.Prefix).Error("proxy error")
			rw.Header().Set("Content-Type", "application/json")
			rw.WriteHeader(http.StatusInternalServerError)
			body, _ := json.Marshal(web.ErrorResponse{Success: false, Message: web.MsgInternal})
			rw.Write(body)
		},
	}

	return func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)
	}, nil
}
