package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weatherlab/internal/outfit"
	"github.com/i474232898/weatherlab/internal/store"
	"github.com/i474232898/weatherlab/internal/weather"
)

var validate = validator.New()

// WeatherResolver resolves a query statelessly, reporting why it failed.
type WeatherResolver interface {
	Resolve(ctx context.Context, q weather.LocationQuery) (*weather.WeatherSnapshot, error)
}

// LocationTracker follows the caller's current location.
type LocationTracker interface {
	Track(ctx context.Context, q weather.LocationQuery) (weather.Record, weather.Outcome)
	Current() (weather.Record, bool)
}

// RecordReader is the read side of the record store.
type RecordReader interface {
	GetRange(key string, from, to time.Time) ([]weather.Record, error)
}

// Services bundles the dependencies of the HTTP handlers.
type Services struct {
	Resolver WeatherResolver
	Tracker  LocationTracker
	Records  RecordReader
	Logger   *slog.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Services) {
	if svc.Logger == nil {
		svc.Logger = slog.Default()
	}
	h := handlers{svc: svc}

	v1 := app.Group("/api/v1")
	v1.Get("/weather", h.getWeather)
	v1.Get("/outfit", h.getOutfit)
	v1.Put("/location", h.putLocation)
	v1.Get("/location/current", h.getCurrent)
	v1.Get("/location/history", h.getHistory)
}

// ErrorHandler renders every error as a JSON body with the matching status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

type handlers struct {
	svc Services
}

// snapshotResponse pairs a snapshot with its clothing advice.
type snapshotResponse struct {
	Snapshot *weather.WeatherSnapshot `json:"snapshot"`
	Advice   string                   `json:"advice"`
}

func newSnapshotResponse(snap *weather.WeatherSnapshot) snapshotResponse {
	return snapshotResponse{Snapshot: snap, Advice: outfit.AdviseText(snap.Temp)}
}

type recordResponse struct {
	weather.Record
	Advice string `json:"advice"`
}

func newRecordResponse(rec weather.Record) recordResponse {
	return recordResponse{Record: rec, Advice: outfit.AdviseText(rec.Snapshot.Temp)}
}

func (h handlers) getWeather(c *fiber.Ctx) error {
	q, err := parseLocationQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	snap, err := h.svc.Resolver.Resolve(c.UserContext(), q)
	if err != nil {
		h.svc.Logger.Info("weather lookup failed", "query", weather.QueryKey(q), "error", err)
		return unresolved(c, string(weather.KindOf(err)))
	}
	return c.JSON(newSnapshotResponse(snap))
}

func (h handlers) getOutfit(c *fiber.Ctx) error {
	var temp *string
	if v := c.Query("temp"); v != "" {
		temp = &v
	}
	return c.JSON(fiber.Map{"advice": outfit.AdviseText(temp)})
}

func (h handlers) putLocation(c *fiber.Ctx) error {
	var body locationBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid location body")
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	rec, outcome := h.svc.Tracker.Track(c.UserContext(), body.toQuery())
	switch outcome {
	case weather.Applied:
		return c.JSON(newRecordResponse(rec))
	case weather.Superseded:
		return fiber.NewError(fiber.StatusConflict, "superseded by a newer location update")
	default:
		return unresolved(c, outcome.String())
	}
}

func (h handlers) getCurrent(c *fiber.Ctx) error {
	rec, ok := h.svc.Tracker.Current()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "no location tracked yet")
	}
	return c.JSON(newRecordResponse(rec))
}

func (h handlers) getHistory(c *fiber.Ctx) error {
	var req historyQuery
	if err := req.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if req.Key == "" {
		rec, ok := h.svc.Tracker.Current()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no location tracked yet")
		}
		req.Key = rec.Key
	}

	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	records, err := h.svc.Records.GetRange(req.Key, req.From, req.To)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
	}

	return c.JSON(fiber.Map{
		"key":     req.Key,
		"from":    req.From,
		"to":      req.To,
		"records": records,
	})
}

func unresolved(c *fiber.Ctx, reason string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":   true,
		"message": "no weather available for the requested location",
		"reason":  reason,
	})
}

// locationParams holds the query parameters of the stateless weather endpoint.
type locationParams struct {
	City    string   `validate:"max=200"`
	Lat     *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lon     *float64 `validate:"omitempty,gte=-180,lte=180"`
	Reverse *bool
	Q       string `validate:"max=200"`
}

func parseLocationQuery(c *fiber.Ctx) (weather.LocationQuery, error) {
	p := locationParams{
		City: c.Query("city"),
		Q:    c.Query("q"),
	}

	var err error
	if p.Lat, err = optionalFloat(c.Query("lat"), "lat"); err != nil {
		return nil, err
	}
	if p.Lon, err = optionalFloat(c.Query("lon"), "lon"); err != nil {
		return nil, err
	}
	if v := c.Query("reverse"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("reverse must be a boolean")
		}
		p.Reverse = &b
	}

	if err := validate.Struct(p); err != nil {
		return nil, err
	}

	return weather.StructuredHint{
		City:               p.City,
		Lat:                p.Lat,
		Lon:                p.Lon,
		AllowReverseLookup: p.Reverse,
		Raw:                p.Q,
	}, nil
}

func optionalFloat(s, name string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New(name + " must be a number")
	}
	return &v, nil
}

// locationBody is the JSON payload of a location update.
type locationBody struct {
	City               string   `json:"city" validate:"max=200"`
	Name               string   `json:"name" validate:"max=200"`
	Lat                *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon                *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
	AllowReverseLookup *bool    `json:"allowReverseLookup"`
	Query              string   `json:"q" validate:"max=200"`
}

func (b locationBody) toQuery() weather.LocationQuery {
	return weather.StructuredHint{
		City:               b.City,
		Name:               b.Name,
		Lat:                b.Lat,
		Lon:                b.Lon,
		AllowReverseLookup: b.AllowReverseLookup,
		Raw:                b.Query,
	}
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Key  string    `validate:"required"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Key = c.Query("key")

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
