package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered under the namespace", func() {
				m.filingsIngested.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_ingested_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options receive empty values", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))
			So(m.namespace, ShouldEqual, "outreach")
			So(m.subsystem, ShouldEqual, "filings")
			So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When filings are recorded", func() {
			before := testutil.ToFloat64(globalManager.filingsIngested)
			RecordFilingIngested()
			RecordFilingDuplicate()
			RecordFilingRejected("empty_key")
			RecordClassification("route_b", "High", "auto_domain")
			RecordClassification("route_c", "Low", "")
			RecordBulkRetag(3)
			RecordClassificationLatency(1.5)

			Convey("Then counters move", func() {
				So(testutil.ToFloat64(globalManager.filingsIngested), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.routesAssigned.WithLabelValues("route_b")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.consultantDetections.WithLabelValues("auto_domain")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(100)
			UpdateWorkerCount(4)
			UpdateFilingsTotal(12)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.filingsTotal), ShouldEqual, 12)
			})
		})

		Convey("When the registry is scraped", func() {
			RecordHTTPRequest("/filings", "POST", "202")
			RecordHTTPRequestDuration("/filings", "POST", "202", 3)
			RecordUpstreamRequest("usac", "ok")
			RecordUpstreamLatency("usac", 12)
			RecordWorkerError("ingest")
			RecordWorkerProcessingLatency("ingest", 2)
			RecordErrorByComponent("api", "bad_request")

			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			joined := strings.Join(names, ",")

			Convey("Then the outreach metrics are exposed", func() {
				So(joined, ShouldContainSubstring, "outreach_filings_http_requests_total")
				So(joined, ShouldContainSubstring, "outreach_filings_upstream_requests_total")
				So(joined, ShouldContainSubstring, "outreach_filings_worker_errors_total")
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.queueEnqueued)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordQueueEnqueue()
					RecordQueueDequeue()
				}
			}()
		}
		wg.Wait()
		So(testutil.ToFloat64(globalManager.queueEnqueued), ShouldEqual, before+1000)
	})
}
