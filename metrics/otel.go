package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/critjwt/jwt"
)

// ErrNilMeter is returned by NewOTelObserver when no meter is given.
var ErrNilMeter = errors.New("nil meter")

// OTelObserver records verification outcomes on OpenTelemetry instruments:
// a "jwt.verify.count" counter and a "jwt.verify.duration" histogram in
// seconds, with the same labels as Collector.
type OTelObserver struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
}

var _ jwt.Observer = (*OTelObserver)(nil)

// NewOTelObserver creates the instruments on meter.
func NewOTelObserver(meter metric.Meter) (*OTelObserver, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}

	count, err := meter.Int64Counter("jwt.verify.count",
		metric.WithDescription("Token verifications by result and rejection kind."))
	if err != nil {
		return nil, fmt.Errorf("create verify counter: %w", err)
	}

	duration, err := meter.Float64Histogram("jwt.verify.duration",
		metric.WithDescription("Token verification latency."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create verify histogram: %w", err)
	}

	return &OTelObserver{count: count, duration: duration}, nil
}

// ObserveVerify implements jwt.Observer.
func (o *OTelObserver) ObserveVerify(alg string, kind jwt.ErrorKind, elapsed time.Duration) {
	result := attribute.String("result", resultLabel(kind))
	ctx := context.Background()

	o.count.Add(ctx, 1, metric.WithAttributes(result,
		attribute.String("kind", kind.String()),
		attribute.String("alg", alg)))
	o.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(result))
}

// Observers fans a verification outcome out to every non-nil observer.
func Observers(observers ...jwt.Observer) jwt.Observer {
	list := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []jwt.Observer

func (m multiObserver) ObserveVerify(alg string, kind jwt.ErrorKind, elapsed time.Duration) {
	for _, o := range m {
		o.ObserveVerify(alg, kind, elapsed)
	}
}
