// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the Prometheus counters the endpoint package
// updates while driving wire.Parser pairs over live connections.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/packetd/streamwire/common"
)

var (
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "uptime",
			Help:      "Uptime in seconds",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "git_hash", "build_time"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "active_connections",
			Help:      "Number of connections currently being parsed",
		},
	)

	messagesParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "messages_parsed_total",
			Help:      "Messages fully parsed, by protocol and role",
		},
		[]string{"protocol", "role"},
	)

	roundtripsHandled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "roundtrips_handled_total",
			Help:      "Request/response pairs matched by role.Matcher",
		},
	)

	parseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "parse_errors_total",
			Help:      "OnParseError callbacks, by protocol and role",
		},
		[]string{"protocol", "role"},
	)

	bytesFramed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "bytes_framed_total",
			Help:      "Bytes handed to wire.Parser.Feed, by protocol and role",
		},
		[]string{"protocol", "role"},
	)
)

// SetUptime reports the process uptime in seconds.
func SetUptime(seconds float64) {
	uptime.Set(seconds)
}

// SetBuildInfo reports build metadata as a constant gauge, per the
// standard Prometheus build_info convention.
func SetBuildInfo(version, gitHash, buildTime string) {
	buildInfo.WithLabelValues(version, gitHash, buildTime).Set(1)
}

// ConnectionOpened increments the active connection gauge.
func ConnectionOpened() {
	activeConnections.Inc()
}

// ConnectionClosed decrements the active connection gauge.
func ConnectionClosed() {
	activeConnections.Dec()
}

// MessageParsed records one OnMessageEnd for protocol/role (e.g. "http",
// "request").
func MessageParsed(protocol, role string) {
	messagesParsed.WithLabelValues(protocol, role).Inc()
}

// RoundtripHandled records one Request/Response pair matched by
// role.Matcher.
func RoundtripHandled() {
	roundtripsHandled.Inc()
}

// ParseErrorObserved records one OnParseError for protocol/role.
func ParseErrorObserved(protocol, role string) {
	parseErrors.WithLabelValues(protocol, role).Inc()
}

// BytesFramed adds n to the running byte count fed to Parser.Feed for
// protocol/role.
func BytesFramed(protocol, role string, n int) {
	bytesFramed.WithLabelValues(protocol, role).Add(float64(n))
}
