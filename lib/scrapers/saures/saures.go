// Package saures talks to the Saures telemetry vendor API and enriches
// portal meter records with the readings its sensors report.
package saures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"meterassist-backend/lib/serialutil"
	"meterassist-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/saures")

var ErrIntegration = errors.New("saures api request failed")

type MeterType struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

type MeterState struct {
	Name string `json:"name"`
}

// Meter is one device as the vendor reports it, flattened out of the
// sensor→meter nesting of the API response.
type Meter struct {
	MeterId          int64
	SerialNumber     string
	SerialNormalized string
	Name             string
	Type             MeterType
	Values           []float64
	Unit             string
	State            MeterState
	SensorName       string
}

type Client struct {
	Http *resty.Client

	sid string
}

type ClientOptions struct {
	BaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/saures/http")

	return &Client{Http: client}
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decodeEnvelope(body []byte, out any) error {
	var env envelope
	err := json.Unmarshal(body, &env)
	if err != nil {
		return err
	}
	if env.Status != "ok" {
		return fmt.Errorf("api status %q", env.Status)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// Login posts the account credentials and keeps the returned session id
// for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"email":    email,
			"password": password,
		}).
		Post("/login")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return fmt.Errorf("%w: login: %w", ErrIntegration, err)
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected login status")
		return fmt.Errorf("%w: login returned status %d", ErrIntegration, res.StatusCode())
	}

	var data struct {
		Sid string `json:"sid"`
	}
	err = decodeEnvelope(res.Body(), &data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode login response")
		return fmt.Errorf("%w: login: %w", ErrIntegration, err)
	}
	if data.Sid == "" {
		span.SetStatus(codes.Error, "login response has no sid")
		return fmt.Errorf("%w: login response has no sid", ErrIntegration)
	}

	c.sid = data.Sid
	return nil
}

type apiMeter struct {
	MeterId      int64      `json:"meter_id"`
	SerialNumber string     `json:"sn"`
	MeterName    string     `json:"meter_name"`
	Type         MeterType  `json:"type"`
	Values       []float64  `json:"vals"`
	Unit         string     `json:"unit"`
	State        MeterState `json:"state"`
}

type apiSensor struct {
	Name   string     `json:"name"`
	Meters []apiMeter `json:"meters"`
}

// ObjectMeters fetches every meter attached to the given object (an
// apartment or a house in vendor terms) as one flat list.
func (c *Client) ObjectMeters(ctx context.Context, objectId int64) ([]Meter, error) {
	ctx, span := tracer.Start(ctx, "client:ObjectMeters")
	defer span.End()

	if c.sid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrIntegration)
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParam("sid", c.sid).
		SetQueryParam("id", strconv.FormatInt(objectId, 10)).
		Get("/object/meters")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch object meters")
		return nil, fmt.Errorf("%w: object meters: %w", ErrIntegration, err)
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected object meters status")
		return nil, fmt.Errorf("%w: object meters returned status %d", ErrIntegration, res.StatusCode())
	}

	var data struct {
		Sensors []apiSensor `json:"sensors"`
	}
	err = decodeEnvelope(res.Body(), &data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode object meters response")
		return nil, fmt.Errorf("%w: object meters: %w", ErrIntegration, err)
	}

	var meters []Meter
	for _, sensor := range data.Sensors {
		for _, m := range sensor.Meters {
			meters = append(meters, Meter{
				MeterId:          m.MeterId,
				SerialNumber:     m.SerialNumber,
				SerialNormalized: serialutil.Normalize(m.SerialNumber),
				Name:             m.MeterName,
				Type:             m.Type,
				Values:           m.Values,
				Unit:             m.Unit,
				State:            m.State,
				SensorName:       sensor.Name,
			})
		}
	}
	return meters, nil
}
