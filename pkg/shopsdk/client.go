package shopsdk

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/aussiebroadwan/storefront/pkg/httpx"
	"github.com/aussiebroadwan/storefront/pkg/slogx"
	"golang.org/x/time/rate"
)

// SDKClient talks to the storefront API. It knows nothing about sessions;
// Session and Transport build on top of it.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger

	// Limiter paces outbound requests. Nil disables pacing.
	Limiter *rate.Limiter
}

// NewSDKClient creates a client with a 10 second timeout, a cookie jar (the
// refresh endpoint may rely on a refresh cookie) and request logging.
func NewSDKClient(baseURL string, logger *slog.Logger) *SDKClient {
	if logger == nil {
		logger = slog.Default()
	}

	// cookiejar.New only fails when given options with a broken PSL.
	jar, _ := cookiejar.New(nil)

	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout:   10 * time.Second,
			Jar:       jar,
			Transport: slogx.RoundTripper(logger, http.DefaultTransport),
		},
		Logger:  logger,
		Limiter: httpx.NewLimiter(httpx.APILimit),
	}
}
