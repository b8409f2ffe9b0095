package player

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xaionaro-go/ave/pkg/media"
)

var (
	metricFramesProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ave_frames_produced_total",
		Help: "The number of decoded frames handed to the consumer.",
	}, []string{"type"})
	metricTickErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ave_tick_errors_total",
		Help: "The number of ticks that failed, by error kind.",
	}, []string{"kind"})
	metricEndOfFile = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ave_end_of_file_total",
		Help: "The number of times a media reached its end.",
	})
	metricQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ave_queue_length",
		Help: "The number of converted frames waiting in the queue of the last ticked media.",
	})
)

func errorKind(err error) string {
	var (
		errBackend  media.ErrBackend
		errInternal media.ErrInternal
	)
	switch {
	case errors.As(err, &errBackend):
		return "backend"
	case errors.As(err, &errInternal):
		return "internal"
	default:
		return "other"
	}
}
