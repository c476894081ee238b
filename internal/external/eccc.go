package external

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"windalert/internal/types"
	"windalert/internal/wind"
)

// ECCCDefaultObservationURL is the hourly observation file for Vancouver
// International Airport (YVR) on the MSC Datamart.
const ECCCDefaultObservationURL = "https://dd.weather.gc.ca/observations/xml/BC/hourly/YVR_e.xml"

// ECCCConfig holds the configuration for creating an ECCCClient.
type ECCCConfig struct {
	ObservationURL string // defaults to ECCCDefaultObservationURL
	Logger         *slog.Logger
}

// ECCCClient reads the latest hourly station observation published by
// Environment and Climate Change Canada.
type ECCCClient struct {
	base   *BaseClient
	url    string
	logger *slog.Logger
}

// NewECCCClient creates an ECCCClient with the default retry policy.
func NewECCCClient(httpClient *http.Client, cfg ECCCConfig) *ECCCClient {
	return NewECCCClientWithBase(
		NewBaseClient(httpClient, "eccc", DefaultRetryPolicy(), UserAgent),
		cfg,
	)
}

// NewECCCClientWithBase creates an ECCCClient around an existing BaseClient.
func NewECCCClientWithBase(base *BaseClient, cfg ECCCConfig) *ECCCClient {
	u := cfg.ObservationURL
	if u == "" {
		u = ECCCDefaultObservationURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ECCCClient{base: base, url: u, logger: logger}
}

// Name identifies the provider in samples and logs.
func (c *ECCCClient) Name() string { return "eccc" }

// Fetch downloads the observation document and reads the first windSpeed and
// windDirection elements found anywhere in it.
func (c *ECCCClient) Fetch(ctx context.Context) (types.WindSample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return types.WindSample{}, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create ECCC request",
			err,
		)
	}
	// Asking explicitly turns off transparent decompression in net/http, so
	// the body is decoded below whether it arrives gzip-encoded or as a .gz file.
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.base.Do(req)
	if err != nil {
		return types.WindSample{}, wrapProviderError("ECCC", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("ECCC datamart error",
			"status_code", resp.StatusCode,
			"url", c.url,
		)
		return types.WindSample{}, types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("ECCC returned %d", resp.StatusCode),
			fmt.Errorf("eccc: %s", string(body)),
		)
	}

	body, err := decodedBody(resp)
	if err != nil {
		return types.WindSample{}, types.NewAppError(
			types.ErrCodeUpstreamMalformedPayload,
			"failed to decompress ECCC response",
			err,
		)
	}
	defer body.Close()

	speedText, dirText, err := findWindElements(body)
	if err != nil {
		return types.WindSample{}, err
	}

	speed, err := parseECCCSpeed(speedText)
	if err != nil {
		return types.WindSample{}, err
	}
	dir := ParseECCCDirection(dirText)

	c.logger.Debug("fetched ECCC wind",
		"speed_kmh", speed,
		"direction_deg", dir,
		"direction_raw", dirText,
	)
	return types.WindSample{
		SpeedKmh:     speed,
		DirectionDeg: dir,
		Provider:     c.Name(),
	}, nil
}

// decodedBody returns the response body, transparently gunzipping it when the
// server declared gzip encoding or the payload starts with the gzip magic.
func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	br := bufio.NewReader(resp.Body)
	gzipped := strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip")
	if !gzipped {
		if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
			gzipped = true
		}
	}
	if !gzipped {
		return io.NopCloser(br), nil
	}
	return gzip.NewReader(br)
}

// findWindElements streams the XML and returns the text of the first
// windSpeed and windDirection elements, at any depth.
func findWindElements(r io.Reader) (speed, direction string, err error) {
	dec := xml.NewDecoder(r)
	var haveSpeed, haveDir bool

	for !(haveSpeed && haveDir) {
		tok, tokErr := dec.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return "", "", types.NewAppError(
				types.ErrCodeUpstreamMalformedPayload,
				"failed to parse ECCC XML",
				tokErr,
			)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch {
		case start.Name.Local == "windSpeed" && !haveSpeed:
			if err := dec.DecodeElement(&speed, &start); err != nil {
				return "", "", types.NewAppError(types.ErrCodeUpstreamMalformedPayload, "bad windSpeed element", err)
			}
			haveSpeed = true
		case start.Name.Local == "windDirection" && !haveDir:
			if err := dec.DecodeElement(&direction, &start); err != nil {
				return "", "", types.NewAppError(types.ErrCodeUpstreamMalformedPayload, "bad windDirection element", err)
			}
			haveDir = true
		}
	}

	if !haveSpeed || !haveDir {
		return "", "", types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamMalformedPayload,
			"wind data not found in ECCC XML",
			nil,
			map[string]any{"has_wind_speed": haveSpeed, "has_wind_direction": haveDir},
		)
	}
	return strings.TrimSpace(speed), strings.TrimSpace(direction), nil
}

// parseECCCSpeed parses the windSpeed text. An empty element (calm or not
// reported) reads as 0.
func parseECCCSpeed(text string) (float64, error) {
	if text == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, types.NewAppError(
			types.ErrCodeUpstreamMalformedPayload,
			fmt.Sprintf("invalid ECCC windSpeed %q", text),
			err,
		)
	}
	if v < 0 {
		return 0, types.NewAppError(
			types.ErrCodeUpstreamMalformedPayload,
			fmt.Sprintf("negative ECCC windSpeed %q", text),
			nil,
		)
	}
	return v, nil
}

// ParseECCCDirection converts a windDirection value to degrees. Whole-number
// text is read as degrees; anything else is looked up as a 16-point compass
// code. Unknown codes map to 0.
func ParseECCCDirection(text string) float64 {
	if text != "" && isDigits(text) {
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			return v
		}
	}
	if deg, ok := wind.DegreesFromAbbrev(strings.ToUpper(text)); ok {
		return deg
	}
	return 0
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
