/*
Copyright 2025 The RestFuzz Authors

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

package analysis

import (
	"go.uber.org/zap"

	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/httpmodel"
	"github.com/restfuzz/restfuzz/internal/spec"
)

// StatisticSink is the reference Sink: per-status-code counters, method
// success/failure rates, and the "never reached" method list, ported from
// algo/../analysis/statistic_analysis.py.
type StatisticSink struct {
	logger *zap.Logger

	methods           []*spec.Method
	statusCodeCount   map[int]int
	successMethods    map[*spec.Method]bool
	failedMethods     map[*spec.Method]bool
	totalSuccessCount int
	totalRequestCount int
}

// NewStatisticSink returns a StatisticSink that logs summaries through
// logger.
func NewStatisticSink(logger *zap.Logger) *StatisticSink {
	return &StatisticSink{
		logger:          logger,
		statusCodeCount: map[int]int{},
		successMethods:  map[*spec.Method]bool{},
		failedMethods:   map[*spec.Method]bool{},
	}
}

func (s *StatisticSink) Name() string { return "statistic" }

func (s *StatisticSink) OnInit(odg *depgraph.ODG) {
	s.methods = odg.Methods
}

// OnRequestResponse updates the running counters. Status-code bucketing
// mirrors statistic_analysis.py exactly: 2xx counts as a method success,
// 5xx counts as a method failure; 4xx/Timeout/ParseFail count toward
// total_request_count and the per-status-code table but toward neither
// success nor failure set, so a method that only ever 4xxs still shows up
// in the "neither success nor failed" report.
func (s *StatisticSink) OnRequestResponse(resp *httpmodel.Response) {
	s.statusCodeCount[resp.StatusCode]++
	s.totalRequestCount++

	if resp.Accepted() {
		s.totalSuccessCount++
		s.successMethods[resp.Method] = true
	}
	if resp.StatusCode >= 500 && resp.StatusCode < 600 {
		s.failedMethods[resp.Method] = true
	}
}

func (s *StatisticSink) OnIterationEnd() {
	total := len(s.methods)
	if total == 0 || s.totalRequestCount == 0 {
		return
	}

	successRate := float64(len(s.successMethods)) / float64(total)
	failedRate := float64(len(s.failedMethods)) / float64(total)
	validateRate := float64(s.totalSuccessCount) / float64(s.totalRequestCount)

	s.logger.Info("method success rate",
		zap.Float64("rate", successRate),
		zap.Int("succeeded", len(s.successMethods)),
		zap.Int("total", total))
	s.logger.Info("method failed rate",
		zap.Float64("rate", failedRate),
		zap.Int("failed", len(s.failedMethods)),
		zap.Int("total", total))
	s.logger.Info("request validate rate",
		zap.Float64("rate", validateRate),
		zap.Int("succeeded", s.totalSuccessCount),
		zap.Int("total", s.totalRequestCount))

	for code, count := range s.statusCodeCount {
		s.logger.Info("status code count",
			zap.Int("status_code", code),
			zap.Int("count", count),
			zap.Float64("rate", float64(count)/float64(s.totalRequestCount)))
	}

	for _, m := range s.NeverReached() {
		s.logger.Info("method neither succeeded nor failed", zap.String("operation_id", m.OperationID))
	}
}

// NeverReached returns every method that has registered neither a success
// nor a failure, e.g. because no sequence ever dispatched it.
func (s *StatisticSink) NeverReached() []*spec.Method {
	var out []*spec.Method
	for _, m := range s.methods {
		if !s.successMethods[m] && !s.failedMethods[m] {
			out = append(out, m)
		}
	}
	return out
}

func (s *StatisticSink) OnEnd() {}
