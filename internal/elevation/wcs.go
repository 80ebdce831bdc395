package elevation

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/mangroves/internal/raster"
	"github.com/sells-group/mangroves/internal/resilience"
	"github.com/sells-group/mangroves/internal/tiffio"
)

// DefaultCoverage is the Copernicus 30 m DEM coverage name.
const DefaultCoverage = "cop-dem-glo-30"

// maxResponseBytes bounds a single coverage download.
const maxResponseBytes = 512 << 20

// Option configures a WCSSource.
type Option func(*WCSSource)

// WithHTTPClient sets the HTTP client used for coverage requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *WCSSource) {
		s.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit against the service.
func WithRateLimit(rps float64) Option {
	return func(s *WCSSource) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
		}
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(p resilience.Policy) Option {
	return func(s *WCSSource) {
		s.policy = p
	}
}

// WithCoverage selects the coverage to request.
func WithCoverage(name string) Option {
	return func(s *WCSSource) {
		if name != "" {
			s.coverage = name
		}
	}
}

// WithCalibration sets how stored values map to metres.
func WithCalibration(c Calibration) Option {
	return func(s *WCSSource) {
		s.cal = c
	}
}

// WCSSource fetches elevation through OGC WCS GetCoverage requests.
type WCSSource struct {
	baseURL    string
	coverage   string
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     resilience.Policy
	cal        Calibration
}

// NewWCSSource returns a source querying the WCS endpoint at baseURL.
func NewWCSSource(baseURL string, opts ...Option) *WCSSource {
	s := &WCSSource{
		baseURL:    baseURL,
		coverage:   DefaultCoverage,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(5, 5),
		policy:     resilience.DefaultPolicy(),
		cal:        DefaultCalibration(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy.OnRetry == nil {
		s.policy.OnRetry = resilience.Logger("wcs", zap.String("coverage", s.coverage))
	}
	return s
}

// Elevation returns the coverage resampled by the server onto gb.
func (s *WCSSource) Elevation(ctx context.Context, gb raster.Geobox) (*raster.Band, error) {
	if gb.Empty() {
		return nil, eris.Wrap(raster.ErrMalformedTile, "elevation: empty geobox")
	}
	reqURL, err := s.coverageURL(gb)
	if err != nil {
		return nil, err
	}

	body, err := resilience.DoVal(ctx, s.policy, func(ctx context.Context) ([]byte, error) {
		return s.fetch(ctx, reqURL)
	})
	if err != nil {
		return nil, err
	}

	w, h, data, err := tiffio.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "elevation: decode coverage")
	}
	if w != gb.Width || h != gb.Height {
		return nil, eris.Wrapf(raster.ErrMalformedTile, "elevation: coverage is %dx%d, want %dx%d", w, h, gb.Width, gb.Height)
	}

	zap.L().Debug("fetched elevation",
		zap.String("coverage", s.coverage),
		zap.Stringer("geobox", gb),
		zap.Int("bytes", len(body)),
	)
	return newBand(gb, data, s.cal), nil
}

func (s *WCSSource) coverageURL(gb raster.Geobox) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", eris.Wrapf(err, "elevation: parse url %q", s.baseURL)
	}
	b := gb.Bounds()
	bbox := formatFloat(b.Min(0)) + "," + formatFloat(b.Min(1)) + "," +
		formatFloat(b.Max(0)) + "," + formatFloat(b.Max(1))

	q := u.Query()
	q.Set("service", "WCS")
	q.Set("version", "1.0.0")
	q.Set("request", "GetCoverage")
	q.Set("coverage", s.coverage)
	q.Set("crs", "EPSG:"+strconv.Itoa(gb.EPSG))
	q.Set("bbox", bbox)
	q.Set("width", strconv.Itoa(gb.Width))
	q.Set("height", strconv.Itoa(gb.Height))
	q.Set("format", "image/tiff")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *WCSSource) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "elevation: rate limit")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: build request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: request coverage")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, eris.Wrapf(ErrUnavailable, "elevation: coverage %s", s.coverage)
	case resp.StatusCode != http.StatusOK:
		return nil, resilience.StatusError("elevation", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resilience.Transient(eris.Wrap(err, "elevation: read coverage"), 0)
	}
	return body, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
