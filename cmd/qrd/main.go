package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/krish567366/PesaQR/pkg/config"
	"github.com/krish567366/PesaQR/pkg/crc16"
	"github.com/krish567366/PesaQR/pkg/emvqr"
	"github.com/krish567366/PesaQR/pkg/emvqr/profile"
	"github.com/krish567366/PesaQR/pkg/middleware"
	"github.com/krish567366/PesaQR/pkg/monitoring"
	"github.com/krish567366/PesaQR/pkg/observability"
	"github.com/krish567366/PesaQR/pkg/psp"
	"github.com/krish567366/PesaQR/pkg/tlv"
)

var (
	configPath = flag.String("config", "configs/qrd.yaml", "Path to configuration file")
	env        = flag.String("env", "development", "Environment (development/production)")
)

// Service holds the codec service wiring.
type Service struct {
	logger  *observability.Logger
	tracer  *observability.Tracer
	metrics *monitoring.Metrics
	decoder *emvqr.Decoder
	encoder *emvqr.Encoder
	dir     *psp.Directory
}

func main() {
	flag.Parse()

	logger, err := observability.NewLogger(*env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting QR codec service",
		zap.String("version", "1.0.0"),
		zap.String("env", *env),
	)

	manager := config.NewManager(*configPath, logger.Logger)
	if err := manager.Load(); err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	cfg := manager.Get()

	var tracer *observability.Tracer
	if cfg.Observability.TracingEnabled {
		tracer, err = observability.NewTracer("pesaqr-qrd", cfg.Observability.OTLPEndpoint)
		if err != nil {
			logger.Error("Failed to initialize tracer", zap.Error(err))
			// Continue without tracing
		}
	}
	if tracer != nil {
		defer tracer.Shutdown(context.Background())
	}

	dir := psp.NewDirectory(logger.Logger)
	if err := manager.SeedDirectory(dir); err != nil {
		logger.Fatal("Failed to seed provider directory", zap.Error(err))
	}

	profiles := profile.Registry(dir, logger.Logger)
	metrics := monitoring.NewMetrics("pesaqr")

	service := &Service{
		logger:  logger,
		tracer:  tracer,
		metrics: metrics,
		decoder: emvqr.NewDecoder(profiles, logger.Logger),
		encoder: emvqr.NewEncoder(profiles, logger.Logger),
		dir:     dir,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/decode", service.handleDecode)
	mux.HandleFunc("/v1/encode", service.handleEncode)
	mux.HandleFunc("/v1/checksum", service.handleChecksum)
	mux.HandleFunc("/v1/providers", service.handleProviders)
	mux.HandleFunc("/healthz", service.handleHealth)
	if cfg.Observability.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	handler := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(logger.Logger),
		middleware.Recovery(logger.Logger),
		middleware.Metrics(metrics),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received, shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("Service stopped")
}

type decodeRequest struct {
	Payload string `json:"payload"`
}

type templatePayload struct {
	Tag           string `json:"tag"`
	GUID          string `json:"guid,omitempty"`
	ParticipantID string `json:"participant_id,omitempty"`
	AccountID     string `json:"account_id,omitempty"`
	Provider      string `json:"provider,omitempty"`
	ProviderKind  string `json:"provider_kind,omitempty"`
}

type decodeResponse struct {
	Country              string            `json:"country"`
	Initiation           string            `json:"initiation"`
	Classification       string            `json:"classification"`
	MerchantCategoryCode string            `json:"merchant_category_code,omitempty"`
	Amount               string            `json:"amount,omitempty"`
	CurrencyCode         string            `json:"currency_code,omitempty"`
	RecipientName        string            `json:"recipient_name,omitempty"`
	RecipientIdentifier  string            `json:"recipient_identifier,omitempty"`
	PostalCode           string            `json:"postal_code,omitempty"`
	Templates            []templatePayload `json:"templates"`
	AdditionalData       map[string]string `json:"additional_data,omitempty"`
	FormatVersion        string            `json:"format_version,omitempty"`
}

func (s *Service) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.StartSpan(ctx, "qr.decode")
		defer span.End()
	}

	start := time.Now()
	decoded, err := s.decoder.Decode(req.Payload)
	country := ""
	if decoded != nil {
		country = string(decoded.Country)
	}
	s.metrics.ObserveDecode(country, err, errorKind(err), time.Since(start), len(req.Payload))

	if err != nil {
		s.logger.Warn("decode failed",
			zap.String("request_id", middleware.RequestIDFrom(ctx)),
			zap.Error(err))
		writeError(w, decodeStatus(err), err.Error())
		return
	}

	for _, tpl := range decoded.AccountTemplates {
		if tpl.ResolvedBy != "" && tpl.ResolvedBy != "nested" {
			s.metrics.TemplateFallbackTotal.WithLabelValues(country, tpl.ResolvedBy).Inc()
		}
	}

	attrs := observability.PayloadAttributes{
		Country:        country,
		Initiation:     initiationLabel(decoded.InitiationMethod),
		Classification: string(decoded.Classification),
		TemplateCount:  len(decoded.AccountTemplates),
		PayloadBytes:   len(req.Payload),
	}
	trace.SpanFromContext(ctx).SetAttributes(attrs.ToAttributes()...)

	writeJSON(w, http.StatusOK, toDecodeResponse(decoded))
}

type encodeTemplateRequest struct {
	Tag           string `json:"tag,omitempty"`
	GUID          string `json:"guid,omitempty"`
	Kind          string `json:"kind"`
	ParticipantID string `json:"participant_id"`
	AccountID     string `json:"account_id,omitempty"`
}

type encodeRequest struct {
	Country              string                  `json:"country"`
	Initiation           string                  `json:"initiation,omitempty"`
	Templates            []encodeTemplateRequest `json:"templates"`
	MerchantCategoryCode string                  `json:"merchant_category_code"`
	Amount               string                  `json:"amount,omitempty"`
	CurrencyCode         string                  `json:"currency_code,omitempty"`
	RecipientName        string                  `json:"recipient_name,omitempty"`
	RecipientIdentifier  string                  `json:"recipient_identifier,omitempty"`
	PostalCode           string                  `json:"postal_code,omitempty"`
	AdditionalData       map[string]string       `json:"additional_data,omitempty"`
}

type encodeResponse struct {
	Payload string `json:"payload"`
}

func (s *Service) handleEncode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req encodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	domainReq, err := toDomainRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	payload, err := s.encoder.Encode(domainReq)
	s.metrics.ObserveEncode(req.Country, err, errorKind(err), time.Since(start), len(payload))

	if err != nil {
		s.logger.Warn("encode failed",
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
			zap.Error(err))
		writeError(w, decodeStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, encodeResponse{Payload: payload})
}

type checksumRequest struct {
	Payload string `json:"payload"`
}

type checksumResponse struct {
	Checksum string `json:"checksum"`
	Valid    *bool  `json:"valid,omitempty"`
}

// handleChecksum computes the checksum over the given prefix, or when
// the payload already ends in a checksum field, verifies it.
func (s *Service) handleChecksum(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req checksumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload := req.Payload
	if len(payload) >= 8 && payload[len(payload)-8:len(payload)-4] == emvqr.TagChecksum+"04" {
		prefix, carried := payload[:len(payload)-4], payload[len(payload)-4:]
		valid := crc16.Matches(prefix, carried)
		writeJSON(w, http.StatusOK, checksumResponse{
			Checksum: crc16.ComputeChecksum(prefix),
			Valid:    &valid,
		})
		return
	}

	writeJSON(w, http.StatusOK, checksumResponse{
		Checksum: crc16.ComputeChecksum(payload + emvqr.TagChecksum + "04"),
	})
}

type providerResponse struct {
	Kind        string `json:"kind"`
	Identifier  string `json:"identifier"`
	DisplayName string `json:"display_name"`
}

func (s *Service) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	country := psp.Country(r.URL.Query().Get("country"))
	if country == "" {
		country = psp.CountryKenya
	}
	if !country.Valid() {
		writeError(w, http.StatusBadRequest, "unknown country")
		return
	}

	records := s.dir.Providers(country)
	out := make([]providerResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, providerResponse{
			Kind:        rec.Kind.String(),
			Identifier:  rec.Identifier,
			DisplayName: rec.DisplayName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toDecodeResponse(p *emvqr.Payload) decodeResponse {
	resp := decodeResponse{
		Country:              string(p.Country),
		Initiation:           initiationLabel(p.InitiationMethod),
		Classification:       string(p.Classification),
		MerchantCategoryCode: p.MerchantCategoryCode,
		CurrencyCode:         p.CurrencyCode,
		RecipientName:        p.RecipientName,
		RecipientIdentifier:  p.RecipientIdentifier,
		PostalCode:           p.PostalCode,
		FormatVersion:        p.FormatVersion,
		Templates:            make([]templatePayload, 0, len(p.AccountTemplates)),
	}
	if p.Amount != nil {
		resp.Amount = p.Amount.String()
	}
	for _, t := range p.AccountTemplates {
		tp := templatePayload{
			Tag:           t.Tag,
			GUID:          t.GUID,
			ParticipantID: t.ParticipantID,
			AccountID:     t.AccountID,
		}
		if t.PSP != nil {
			tp.Provider = t.PSP.DisplayName
			tp.ProviderKind = t.PSP.Kind.String()
		}
		resp.Templates = append(resp.Templates, tp)
	}
	if p.AdditionalData != nil {
		resp.AdditionalData = flattenAdditionalData(p.AdditionalData)
	}
	return resp
}

func flattenAdditionalData(d *emvqr.AdditionalData) map[string]string {
	out := map[string]string{}
	put := func(key, val string) {
		if val != "" {
			out[key] = val
		}
	}
	put("bill_number", d.BillNumber)
	put("mobile_number", d.MobileNumber)
	put("store_label", d.StoreLabel)
	put("loyalty_number", d.LoyaltyNumber)
	put("reference_label", d.ReferenceLabel)
	put("customer_label", d.CustomerLabel)
	put("terminal_label", d.TerminalLabel)
	put("purpose", d.Purpose)
	put("merchant_sub_category", d.MerchantSubCategory)
	for k, v := range d.Custom {
		out["custom_"+k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func toDomainRequest(req *encodeRequest) (*emvqr.Request, error) {
	out := &emvqr.Request{
		Country:              psp.Country(req.Country),
		MerchantCategoryCode: req.MerchantCategoryCode,
		CurrencyCode:         req.CurrencyCode,
		RecipientName:        req.RecipientName,
		RecipientIdentifier:  req.RecipientIdentifier,
		PostalCode:           req.PostalCode,
	}

	switch req.Initiation {
	case "", "static":
		out.InitiationMethod = emvqr.InitiationStatic
	case "dynamic":
		out.InitiationMethod = emvqr.InitiationDynamic
	default:
		return nil, fmt.Errorf("unknown initiation %q", req.Initiation)
	}

	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q", req.Amount)
		}
		out.Amount = &amount
	}

	for _, t := range req.Templates {
		kind, ok := psp.ParseKind(t.Kind)
		if !ok {
			return nil, fmt.Errorf("unknown provider kind %q", t.Kind)
		}
		out.Templates = append(out.Templates, emvqr.TemplateRequest{
			Tag:           t.Tag,
			GUID:          t.GUID,
			Kind:          kind,
			ParticipantID: t.ParticipantID,
			AccountID:     t.AccountID,
		})
	}

	if len(req.AdditionalData) > 0 {
		out.AdditionalData = &emvqr.AdditionalData{
			BillNumber:     req.AdditionalData["bill_number"],
			ReferenceLabel: req.AdditionalData["reference_label"],
			Purpose:        req.AdditionalData["purpose"],
			StoreLabel:     req.AdditionalData["store_label"],
			TerminalLabel:  req.AdditionalData["terminal_label"],
		}
	}

	return out, nil
}

func initiationLabel(m emvqr.InitiationMethod) string {
	if m == emvqr.InitiationDynamic {
		return "dynamic"
	}
	return "static"
}

// errorKind maps sentinel errors to a low-cardinality metric label.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, emvqr.ErrInvalidChecksum):
		return "invalid_checksum"
	case errors.Is(err, emvqr.ErrMissingRequiredField):
		return "missing_required_field"
	case errors.Is(err, emvqr.ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, emvqr.ErrUnsupportedCountry):
		return "unsupported_country"
	case errors.Is(err, emvqr.ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, tlv.ErrCorruptedData), errors.Is(err, tlv.ErrInvalidTag), errors.Is(err, tlv.ErrInvalidLength):
		return "malformed_tlv"
	default:
		return "internal"
	}
}

func decodeStatus(err error) int {
	switch {
	case errors.Is(err, emvqr.ErrUnsupportedCountry):
		return http.StatusUnprocessableEntity
	case errorKind(err) == "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
