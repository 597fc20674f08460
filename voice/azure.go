package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	azureEndpointFormat = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
	azureKeyHeader      = "Ocp-Apim-Subscription-Key"
	azureFormatHeader   = "X-Microsoft-OutputFormat"
	azureTraceHeader    = "X-ClientTraceId"
	defaultUserAgent    = "wyoming-microsoft-tts"
)

// Azure synthesizes speech with the Microsoft Speech REST API.
type Azure struct {
	key       string
	region    string
	endpoint  string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

type AzureOption func(*Azure)

// WithEndpoint overrides the regional endpoint.
func WithEndpoint(url string) AzureOption {
	return func(a *Azure) { a.endpoint = url }
}

func WithHTTPClient(c *http.Client) AzureOption {
	return func(a *Azure) { a.client = c }
}

func WithTimeout(d time.Duration) AzureOption {
	return func(a *Azure) { a.client = &http.Client{Timeout: d} }
}

// WithRateLimit caps requests per second. rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) AzureOption {
	return func(a *Azure) {
		if rps <= 0 {
			a.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithUserAgent(ua string) AzureOption {
	return func(a *Azure) { a.userAgent = ua }
}

func NewAzure(key, region string, opts ...AzureOption) (*Azure, error) {
	if strings.TrimSpace(key) == "" {
		return nil, configErr("subscription_key", "subscription key is required")
	}
	if strings.TrimSpace(region) == "" {
		return nil, configErr("service_region", "service region is required")
	}
	if strings.ContainsAny(region, "/.: ") {
		return nil, configErr("service_region", "invalid service region %q", region)
	}

	a := &Azure{
		key:       key,
		region:    region,
		endpoint:  fmt.Sprintf(azureEndpointFormat, region),
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: 60 * time.Second},
		limiter:   rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(a)
	}

	logrus.WithFields(logrus.Fields{
		"region":   region,
		"endpoint": a.endpoint,
		"key":      redact(key),
	}).Debugln("azure speech configuration")

	return a, nil
}

func (a *Azure) DefaultFormat() OutputFormat { return DefaultAzureFormat }

func (a *Azure) Supports(f OutputFormat) bool { return isAzureFormat(f) }

func (a *Azure) Speak(ctx context.Context, req Request) Result {
	if err := a.limiter.Wait(ctx); err != nil {
		return interrupted(ctx, err)
	}

	format := req.Format
	if format.IsZero() {
		format = DefaultAzureFormat
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(buildSSML(req.Voice, req.Text)))
	if err != nil {
		return canceledWithError(0, fmt.Sprintf("failed to build request; %v", err))
	}
	httpReq.Header.Set(azureKeyHeader, a.key)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set(azureFormatHeader, format.Header)
	httpReq.Header.Set("User-Agent", a.userAgent)
	if req.RequestID != "" {
		httpReq.Header.Set(azureTraceHeader, req.RequestID)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return interrupted(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		details := resp.Status
		if msg := strings.TrimSpace(string(body)); msg != "" {
			details += ": " + msg
		}
		return canceledWithError(resp.StatusCode, details)
	}

	out, err := os.Create(req.OutputPath)
	if err != nil {
		return canceledWithError(0, fmt.Sprintf("failed to create output file; %v", err))
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return canceled(CancellationEndOfStream)
		}
		return interrupted(ctx, err)
	}
	if n == 0 {
		return canceledWithError(resp.StatusCode, "no audio data received")
	}

	return completed()
}

// interrupted maps a transport failure to a cancellation result.
func interrupted(ctx context.Context, err error) Result {
	if errors.Is(ctx.Err(), context.Canceled) {
		return canceled(CancellationCancelledByUser)
	}
	return canceledWithError(0, err.Error())
}

func redact(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
