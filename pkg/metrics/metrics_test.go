package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every collector is registered", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "talentradar")
				manager.enrichments.WithLabelValues("github", OutcomeSuccess).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 10)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate collector", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Enrichment counters move by label", func() {
			before := testutil.ToFloat64(globalManager.enrichments.WithLabelValues("x", OutcomeNotFound))
			RecordEnrichment("x", OutcomeNotFound)
			So(testutil.ToFloat64(globalManager.enrichments.WithLabelValues("x", OutcomeNotFound)), ShouldEqual, before+1)
		})

		Convey("Tier distribution also sets the total gauge", func() {
			UpdateTierDistribution(map[string]int{"top": 2, "high": 1, "medium": 0, "low": 4})
			So(testutil.ToFloat64(globalManager.candidatesByTier.WithLabelValues("top")), ShouldEqual, 2)
			So(testutil.ToFloat64(globalManager.totalCandidates), ShouldEqual, 7)
		})

		Convey("Queue gauges track the latest value", func() {
			UpdateQueueSize(3)
			UpdateQueueCapacity(10)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
			So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 10)
		})

		Convey("Recorders never panic", func() {
			So(func() {
				RecordScoringLatency(0.2)
				RecordCollaboratorFetch("github", OutcomeTimeout)
				RecordInsightMerge(OutcomeError)
				RecordDuplicateAnchor()
				RecordQueueEnqueue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(2)
				RecordWorkerJob(OutcomeSuccess, 12)
				RecordRepositoryUpdateLatency(0.1)
				RecordRepositoryQueryLatency(0.1)
				RecordCacheRequest("hit")
				RecordEventPublished(OutcomeSuccess)
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/healthz", "GET", "200", 1.5)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
