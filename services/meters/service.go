// Package meters ties the portal session, the telemetry vendor and the
// export format together into the "report this month's readings" flow.
package meters

import (
	"context"
	"fmt"
	"log/slog"

	"meterassist-backend/lib/credentials"
	"meterassist-backend/lib/export"
	"meterassist-backend/lib/scrapers/gorod"
	"meterassist-backend/lib/scrapers/saures"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/meters")

type Options struct {
	Portal            *gorod.Client
	PortalCredentials credentials.Credentials

	// vendor enrichment is optional; leave Vendor nil to run
	// portal-only
	Vendor            *saures.Client
	VendorCredentials credentials.Credentials
	VendorObjectId    int64
}

type Service struct {
	portal      *gorod.Client
	portalCreds credentials.Credentials

	vendor         *saures.Client
	vendorCreds    credentials.Credentials
	vendorObjectId int64

	vendorLoggedIn bool
}

func NewService(opts Options) *Service {
	return &Service{
		portal:         opts.Portal,
		portalCreds:    opts.PortalCredentials,
		vendor:         opts.Vendor,
		vendorCreds:    opts.VendorCredentials,
		vendorObjectId: opts.VendorObjectId,
	}
}

func (s *Service) ensurePortalLogin(ctx context.Context) error {
	if s.portal.IsAuthenticated() {
		return nil
	}
	return s.portal.Login(ctx, s.portalCreds.Login, s.portalCreds.Password)
}

func (s *Service) vendorMeters(ctx context.Context) ([]saures.Meter, error) {
	if !s.vendorLoggedIn {
		err := s.vendor.Login(ctx, s.vendorCreds.Login, s.vendorCreds.Password)
		if err != nil {
			return nil, err
		}
		s.vendorLoggedIn = true
	}
	return s.vendor.ObjectMeters(ctx, s.vendorObjectId)
}

// FetchReadings scrapes the portal's meter table. With enrich set (and a
// vendor configured), every record with a vendor counterpart gets its
// current reading overwritten by the vendor's telemetry.
func (s *Service) FetchReadings(ctx context.Context, enrich bool) ([]gorod.MeterRecord, error) {
	ctx, span := tracer.Start(ctx, "service:FetchReadings")
	defer span.End()

	err := s.ensurePortalLogin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login to portal")
		return nil, err
	}

	snapshot, err := s.portal.FetchMeters(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch meters")
		return nil, err
	}
	records := snapshot.Records

	if enrich && s.vendor != nil {
		meters, err := s.vendorMeters(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch vendor meters")
			return nil, err
		}
		records = saures.Enrich(records, meters)
		slog.InfoContext(ctx, "enriched records from vendor", "vendor_meters", len(meters))
	}

	return records, nil
}

// SubmitReadings posts the given meter id → value mapping to the portal
// and verifies the submission by re-scraping the page.
func (s *Service) SubmitReadings(ctx context.Context, values map[string]string) (gorod.SubmissionResult, error) {
	ctx, span := tracer.Start(ctx, "service:SubmitReadings")
	defer span.End()

	err := s.ensurePortalLogin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login to portal")
		return gorod.SubmissionResult{}, err
	}

	result, err := s.portal.Submit(ctx, values, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit readings")
		return gorod.SubmissionResult{}, err
	}

	slog.InfoContext(ctx, "submitted readings",
		"count", len(values),
		"success", result.Success,
		"message", result.Message,
	)
	return result, nil
}

// SubmitFromVendor fetches enriched readings and submits every value the
// vendor supplied, so a fully instrumented apartment needs no manual
// input at all.
func (s *Service) SubmitFromVendor(ctx context.Context) (gorod.SubmissionResult, error) {
	ctx, span := tracer.Start(ctx, "service:SubmitFromVendor")
	defer span.End()

	if s.vendor == nil {
		err := fmt.Errorf("no telemetry vendor configured")
		span.SetStatus(codes.Error, err.Error())
		return gorod.SubmissionResult{}, err
	}

	records, err := s.FetchReadings(ctx, true)
	if err != nil {
		return gorod.SubmissionResult{}, err
	}

	values := map[string]string{}
	for _, record := range records {
		if record.CurrentReading.Source == saures.SourceName {
			values[record.Id] = record.CurrentReading.Value
		}
	}
	if len(values) == 0 {
		err := fmt.Errorf("no portal meters matched a vendor meter")
		span.SetStatus(codes.Error, err.Error())
		return gorod.SubmissionResult{}, err
	}

	return s.SubmitReadings(ctx, values)
}

// ExportReadings writes the current (optionally enriched) record set to
// a JSON document at path.
func (s *Service) ExportReadings(ctx context.Context, path string, enrich bool) error {
	ctx, span := tracer.Start(ctx, "service:ExportReadings")
	defer span.End()

	records, err := s.FetchReadings(ctx, enrich)
	if err != nil {
		return err
	}

	doc := export.NewDocument(records, s.portal.BaseUrl.String())
	err = doc.WriteFile(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write export file")
		return err
	}

	slog.InfoContext(ctx, "exported readings", "path", path, "records", len(records))
	return nil
}

// Close releases the portal session.
func (s *Service) Close() {
	s.portal.Logout()
}
