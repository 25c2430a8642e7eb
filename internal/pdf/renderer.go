package pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nadmax/pulse/internal/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	TierBrowser  = "browser"
	TierFallback = "fallback"
)

// AdvancedRenderer is the styled rendering tier. Any error makes Renderer fall back.
type AdvancedRenderer interface {
	TryRender(ctx context.Context, p Payload) ([]byte, error)
}

type Renderer struct {
	advanced AdvancedRenderer
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewRenderer builds a renderer. A nil advanced renderer means every document
// is written by the fallback tier.
func NewRenderer(advanced AdvancedRenderer, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Renderer{advanced: advanced, logger: logger}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "pdf-browser",
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("pdf renderer breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return r
}

// Render always returns a PDF document.
func (r *Renderer) Render(ctx context.Context, p Payload) []byte {
	if r.advanced != nil {
		data, err := r.tryAdvanced(ctx, p)
		if err == nil {
			metrics.RecordPDFRender(TierBrowser)
			return data
		}
		if errors.Is(err, gobreaker.ErrOpenState) {
			r.logger.Debug("browser renderer skipped, breaker open")
		} else {
			r.logger.Warn("browser render failed, using fallback", zap.Error(err))
		}
	}

	metrics.RecordPDFRender(TierFallback)
	return BuildMinimalPDF(Lines(p))
}

func (r *Renderer) tryAdvanced(ctx context.Context, p Payload) (data []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			data, err = nil, fmt.Errorf("browser renderer panicked: %v", rec)
		}
	}()

	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.advanced.TryRender(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	data, _ = out.([]byte)
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, errors.New("browser renderer returned a non-PDF document")
	}
	return data, nil
}
