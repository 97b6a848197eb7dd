/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/driftsentry/driftcore/pkg/metrics"
)

func TestMetrics(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Metrics Suite")
}

var _ = Describe("RecordTransition", func() {
	It("increments the transitions counter and observes stage duration", func() {
		before := testutil.ToFloat64(metrics.StageTransitionsTotal.WithLabelValues("INGESTED", "NORMALIZED"))
		metrics.RecordTransition("INGESTED", "NORMALIZED", 0.25)
		after := testutil.ToFloat64(metrics.StageTransitionsTotal.WithLabelValues("INGESTED", "NORMALIZED"))
		Expect(after).To(Equal(before + 1))
	})

	It("skips the duration observation for a negative duration", func() {
		Expect(func() { metrics.RecordTransition("SNOOZED", "AWAITING_HUMAN", -1) }).ToNot(Panic())
	})
})

var _ = Describe("RecordDependencyHealth", func() {
	It("sets the gauge to 1 when degraded and 0 when healthy", func() {
		metrics.RecordDependencyHealth("github", true)
		Expect(testutil.ToFloat64(metrics.DependencyDegradedTotal.WithLabelValues("github"))).To(Equal(1.0))

		metrics.RecordDependencyHealth("github", false)
		Expect(testutil.ToFloat64(metrics.DependencyDegradedTotal.WithLabelValues("github"))).To(Equal(0.0))
	})
})

var _ = Describe("Server", func() {
	It("serves /metrics and /healthz and shuts down cleanly", func() {
		server := metrics.NewServer("0", logr.Discard())
		server.StartAsync()
		time.Sleep(50 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		Expect(server.Stop(ctx)).ToNot(HaveOccurred())
	})

	It("responds 200 OK on /healthz", func() {
		server := metrics.NewServer("19997", logr.Discard())
		server.StartAsync()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Stop(ctx)
		}()
		time.Sleep(50 * time.Millisecond)

		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/healthz", 19997))
		Expect(err).ToNot(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		body, _ := io.ReadAll(resp.Body)
		Expect(string(body)).To(Equal("ok"))
	})
})
