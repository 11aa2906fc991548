// Package tracing offers support for distributed tracing utilizing OpenTelemetry (OTEL).
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/NVIDIA/dlsim/cmn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var _ = Describe("Tracing", func() {
	const version = "1.0.0"

	var (
		exporter *tracetest.InMemoryExporter

		origExporter = newExporter

		newTestHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("-"))
		})

		enabled = &cmn.TracingConf{
			ExporterEndpoint:   "dummy",
			Enabled:            true,
			SamplerProbability: 1.0,
		}

		expectResourceAttrs = func(attrs []attribute.KeyValue) {
			expected := map[string]string{
				"service.name": "dlsim",
				"version":      version,
			}
			matched := 0
			for _, attr := range attrs {
				value, ok := expected[string(attr.Key)]
				if !ok {
					continue
				}
				Expect(attr.Value.AsString()).To(Equal(value))
				matched++
			}
			Expect(matched).To(Equal(len(expected)))
		}
	)

	BeforeEach(func() {
		exporter = tracetest.NewInMemoryExporter()
		newExporter = func(*cmn.TracingConf) (trace.SpanExporter, error) {
			return exporter, nil
		}
	})

	AfterEach(func() {
		newExporter = origExporter
	})

	Describe("Server", func() {
		AfterEach(func() {
			Expect(Shutdown(context.Background())).To(Succeed())
		})

		It("should export server trace when tracing enabled", func() {
			Expect(Init(enabled, version)).To(Succeed())
			Expect(IsEnabled()).To(BeTrue())

			server := httptest.NewServer(NewTraceableHandler(newTestHandler, "download"))
			defer server.Close()

			resp, err := http.Get(server.URL)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Expect(tp.ForceFlush(context.Background())).To(Succeed())
			Expect(exporter.GetSpans()).To(HaveLen(1))
			expectResourceAttrs(exporter.GetSpans()[0].Resource.Attributes())
		})

		It("should do nothing when tracing disabled", func() {
			Expect(Init(&cmn.TracingConf{}, version)).To(Succeed())
			Expect(IsEnabled()).To(BeFalse())

			server := httptest.NewServer(NewTraceableHandler(newTestHandler, "download"))
			defer server.Close()

			resp, err := http.Get(server.URL)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(exporter.GetSpans()).To(BeEmpty())
		})

		It("should require an exporter endpoint", func() {
			Expect(Init(&cmn.TracingConf{Enabled: true}, version)).NotTo(Succeed())
			Expect(IsEnabled()).To(BeFalse())
		})
	})
})
