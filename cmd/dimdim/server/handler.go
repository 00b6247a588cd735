package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phuslu/log"

	"github.com/thesyncim/dimdim/pkg/converter"
)

// Form defaults for a fresh page load.
const (
	defaultFrom   = "USD"
	defaultTo     = "BRL"
	defaultAmount = "1"
)

type handler struct {
	rates      converter.RateTable
	currencies []converter.Currency
	logger     *log.Logger
	metrics    *metrics
}

func newHandler(cfg Config, logger *log.Logger) *handler {
	return &handler{
		rates:      cfg.Rates,
		currencies: cfg.Currencies,
		logger:     logger,
		metrics:    newMetrics(),
	}
}

// handlePage renders the converter form and, for valid input, the result.
func (h *handler) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pageData{
		Currencies: h.currencies,
		From:       valueOr(q.Get("from_currency"), defaultFrom),
		To:         valueOr(q.Get("to_currency"), defaultTo),
		Amount:     valueOr(q.Get("from_amount"), defaultAmount),
	}

	result, err := h.convert(data.From, data.To, data.Amount)
	if err != nil {
		h.reject(err)
		data.Error = err.Error()
	} else {
		h.metrics.conversions.WithLabelValues(strings.ToUpper(data.From), strings.ToUpper(data.To), "page").Inc()
		data.Result = result
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.Error().Err(err).Msg("failed to render page")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleConvert serves GET /convert?from=USD&to=BRL&amount=1 as plain text.
func (h *handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, amount := q.Get("from"), q.Get("to"), q.Get("amount")
	for _, p := range [][2]string{{"from", from}, {"to", to}, {"amount", amount}} {
		if p[1] == "" {
			h.metrics.rejected.WithLabelValues("missing_parameter").Inc()
			http.Error(w, "missing parameter: "+p[0], http.StatusBadRequest)
			return
		}
	}

	result, err := h.convert(from, to, amount)
	if err != nil {
		h.reject(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.metrics.conversions.WithLabelValues(strings.ToUpper(from), strings.ToUpper(to), "api").Inc()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(result))
}

func (h *handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (h *handler) convert(from, to, amount string) (string, error) {
	v, err := converter.ParseAmount(amount)
	if err != nil {
		return "", err
	}
	out, err := h.rates.Convert(from, to, v)
	if err != nil {
		return "", err
	}
	return converter.FormatAmount(out), nil
}

func (h *handler) reject(err error) {
	reason := "other"
	switch {
	case errors.Is(err, converter.ErrInvalidAmount):
		reason = "invalid_amount"
	case errors.Is(err, converter.ErrUnknownCurrency):
		reason = "unknown_currency"
	}
	h.metrics.rejected.WithLabelValues(reason).Inc()
}

// logRequests logs each request and counts it by route pattern.
func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		h.metrics.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
