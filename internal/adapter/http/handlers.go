package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/export"
	"github.com/couchcryptid/meteor-impact-service/internal/timeline"
)

const (
	maxBodyBytes   = 1 << 16
	geocodeTimeout = 3 * time.Second
)

var (
	// errUpstream marks failures of the asteroid data source other than unknown IDs.
	errUpstream = errors.New("asteroid data unavailable")
	errGeocoder = errors.New("geocoding unavailable")
)

// impactorRequest is the wire form of an impactor. A missing mass is
// estimated from size and composition; a missing angle is 45°.
type impactorRequest struct {
	Speed       float64  `json:"speed"`
	Size        float64  `json:"size"`
	Mass        float64  `json:"mass"`
	Angle       *float64 `json:"angle"`
	Composition string   `json:"composition"`
}

func (r impactorRequest) params() (domain.ImpactorParameters, error) {
	angle := domain.DefaultNEOAngleDeg
	if r.Angle != nil {
		angle = *r.Angle
	}
	return domain.NewImpactorEstimatingMass(r.Speed, r.Size, r.Mass, angle, r.Composition)
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Name      string   `json:"name"`
}

func (r *locationRequest) location() (domain.ImpactLocation, error) {
	if r == nil || r.Latitude == nil || r.Longitude == nil {
		return domain.ImpactLocation{}, &domain.ValidationError{Field: "location", Reason: "latitude and longitude are required"}
	}
	return domain.NewImpactLocation(*r.Latitude, *r.Longitude, r.Name)
}

type startRequest struct {
	Impactor   *impactorRequest `json:"impactor"`
	AsteroidID string           `json:"asteroidId"`
	Location   *locationRequest `json:"location"`
}

type metricsResponse struct {
	Impactor     domain.ImpactorParameters `json:"impactorParameters"`
	Metrics      domain.ImpactMetrics      `json:"metrics"`
	Zones        domain.DamageZones        `json:"zones"`
	Consequences domain.Consequences       `json:"consequences"`
}

type asteroidResponse struct {
	domain.AsteroidData
	Parameters domain.ImpactorParameters `json:"impactorParameters"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var req impactorRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := req.params()
	if err != nil {
		s.writeError(w, err)
		return
	}
	m := domain.ComputeMetrics(p)
	writeJSON(w, http.StatusOK, metricsResponse{
		Impactor:     p,
		Metrics:      m,
		Zones:        m.Zones(),
		Consequences: domain.EstimateConsequences(m),
	})
}

func (s *Server) handleMass(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Size        float64 `json:"size"`
		Composition string  `json:"composition"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	mass, err := domain.EstimateMassFromInput(req.Size, req.Composition)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"mass": mass})
}

func (s *Server) handleAsteroid(w http.ResponseWriter, r *http.Request) {
	a, p, err := s.lookupAsteroid(r, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asteroidResponse{AsteroidData: a, Parameters: p})
}

func (s *Server) lookupAsteroid(r *http.Request, id string) (domain.AsteroidData, domain.ImpactorParameters, error) {
	a, err := s.asteroids.FetchByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAsteroidNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return domain.AsteroidData{}, domain.ImpactorParameters{}, err
		}
		return domain.AsteroidData{}, domain.ImpactorParameters{}, fmt.Errorf("%w: %w", errUpstream, err)
	}
	p, err := a.Impactor()
	if err != nil {
		return domain.AsteroidData{}, domain.ImpactorParameters{}, fmt.Errorf("%w: asteroid %s: %s", errUpstream, id, err)
	}
	return a, p, nil
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sim.State())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, &req) {
		return
	}
	loc, err := req.Location.location()
	if err != nil {
		s.writeError(w, err)
		return
	}

	var (
		params domain.ImpactorParameters
		name   string
	)
	switch {
	case req.AsteroidID != "":
		var a domain.AsteroidData
		a, params, err = s.lookupAsteroid(r, req.AsteroidID)
		name = a.Name
	case req.Impactor != nil:
		params, err = req.Impactor.params()
	default:
		err = &domain.ValidationError{Field: "impactor", Reason: "impactor or asteroidId is required"}
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Start rejects a second run anyway; skip the upstream lookup for it.
	if loc.Name == "" && !s.sim.State().Timeline.Phase.Running() {
		loc = s.nameLocation(r.Context(), loc)
	}

	run, err := s.sim.Start(r.Context(), params, loc, name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, run)
}

// nameLocation fills in a place name for bare coordinates. Lookup failures
// leave the location unnamed; they never block a run.
func (s *Server) nameLocation(ctx context.Context, loc domain.ImpactLocation) domain.ImpactLocation {
	if s.geocoder == nil {
		return loc
	}
	ctx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()

	res, err := s.geocoder.ReverseGeocode(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		s.logger.Warn("reverse geocode failed, location left unnamed",
			"latitude", loc.Latitude, "longitude", loc.Longitude, "error", err)
		return loc
	}
	if res.Found() {
		loc.Name = res.FormattedAddress
	}
	return loc
}

func (s *Server) handleLocationSearch(w http.ResponseWriter, r *http.Request) {
	if s.geocoder == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "location search is not configured"})
		return
	}
	res, err := s.geocoder.ForwardGeocode(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidInput) {
			err = fmt.Errorf("%w: %w", errGeocoder, err)
		}
		s.writeError(w, err)
		return
	}
	if !res.Found() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no matching place"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.sim.Reset()
	writeJSON(w, http.StatusOK, s.sim.State())
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	st := s.sim.State()
	switch {
	case st.Report != nil:
		writeJSON(w, http.StatusOK, st.Report)
	case st.ReportPending:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report available"})
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	report, ok := s.sim.Report()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report available"})
		return
	}
	out, err := export.Render(format, report)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}

// decode reads a JSON body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeError maps domain and simulation errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "status", status, "error", err)
	}
	msg := err.Error()
	switch status {
	case http.StatusBadGateway:
		msg = "asteroid data is temporarily unavailable, please retry"
		if errors.Is(err, errGeocoder) {
			msg = "location search is temporarily unavailable, please retry"
		}
	case http.StatusInternalServerError:
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAsteroidNotFound):
		return http.StatusNotFound
	case errors.Is(err, timeline.ErrRunActive):
		return http.StatusConflict
	case errors.Is(err, timeline.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, errUpstream), errors.Is(err, errGeocoder):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
