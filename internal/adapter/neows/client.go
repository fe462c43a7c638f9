package neows

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
)

// DefaultBaseURL is the public NeoWs endpoint.
const DefaultBaseURL = "https://api.nasa.gov/neo/rest/v1"

// Client implements domain.AsteroidDataProvider using the NASA NeoWs API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a NeoWs client. An empty baseURL selects DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// FetchByID looks up one near-Earth object. Missing diameter or speed fields
// fall back to domain defaults; transport and API failures never do.
func (c *Client) FetchByID(ctx context.Context, id string) (domain.AsteroidData, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.AsteroidData{}, &domain.ValidationError{Field: "id", Reason: "asteroid ID is required"}
	}

	u := fmt.Sprintf("%s/neo/%s?%s", c.baseURL, url.PathEscape(id), url.Values{"api_key": {c.apiKey}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.AsteroidData{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.AsteroidLookups.WithLabelValues("error").Inc()
		return domain.AsteroidData{}, fmt.Errorf("neows request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.AsteroidLookups.WithLabelValues("not_found").Inc()
		return domain.AsteroidData{}, fmt.Errorf("neo %s: %w", id, domain.ErrAsteroidNotFound)
	case resp.StatusCode != http.StatusOK:
		c.metrics.AsteroidLookups.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.AsteroidData{}, fmt.Errorf("neows API error: status %d: %s", resp.StatusCode, body)
	}

	var neo neoResponse
	if err := json.NewDecoder(resp.Body).Decode(&neo); err != nil {
		c.metrics.AsteroidLookups.WithLabelValues("error").Inc()
		return domain.AsteroidData{}, fmt.Errorf("decode response: %w", err)
	}

	c.metrics.AsteroidLookups.WithLabelValues("success").Inc()
	return c.toAsteroid(id, neo), nil
}

func (c *Client) toAsteroid(id string, neo neoResponse) domain.AsteroidData {
	diameter := domain.DefaultNEODiameterM
	if d := neo.EstimatedDiameter.Meters.Max; d > 0 {
		diameter = d
	} else {
		c.logger.Warn("neo has no diameter estimate, using default", "neo_id", id, "diameter_m", diameter)
	}

	speed := domain.DefaultNEOSpeedMps
	if kps, ok := neo.firstApproachSpeedKps(); ok {
		speed = kps * 1000
	} else {
		c.logger.Warn("neo has no close approach velocity, using default", "neo_id", id, "speed_mps", speed)
	}

	name := neo.Name
	if name == "" {
		name = id
	}
	if neo.ID != "" {
		id = neo.ID
	}

	return domain.AsteroidData{
		ID:                id,
		Name:              name,
		SpeedMps:          roundPositive(speed),
		DiameterM:         roundPositive(diameter),
		MassKg:            roundPositive(domain.EstimateMassWithDensity(diameter, domain.NEODensity)),
		IsHazardous:       neo.Hazardous,
		AbsoluteMagnitude: neo.AbsoluteMagnitude,
	}
}

// roundPositive rounds to whole units unless that would erase a sub-unit value.
func roundPositive(v float64) float64 {
	if r := math.Round(v); r > 0 {
		return r
	}
	return v
}

// NeoWs API response types.

type neoResponse struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	AbsoluteMagnitude float64           `json:"absolute_magnitude_h"`
	Hazardous         bool              `json:"is_potentially_hazardous_asteroid"`
	EstimatedDiameter estimatedDiameter `json:"estimated_diameter"`
	CloseApproaches   []closeApproach   `json:"close_approach_data"`
}

type estimatedDiameter struct {
	Meters struct {
		Min float64 `json:"estimated_diameter_min"`
		Max float64 `json:"estimated_diameter_max"`
	} `json:"meters"`
}

type closeApproach struct {
	Date             string `json:"close_approach_date"`
	RelativeVelocity struct {
		KilometersPerSecond string `json:"kilometers_per_second"` // NeoWs sends numbers as strings
	} `json:"relative_velocity"`
}

func (n neoResponse) firstApproachSpeedKps() (float64, bool) {
	if len(n.CloseApproaches) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(n.CloseApproaches[0].RelativeVelocity.KilometersPerSecond, 64)
	if err != nil || !(v > 0) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
