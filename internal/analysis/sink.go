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

// Package analysis defines the Sink interface through which the Sequence
// Converter reports every request/response it dispatches, plus the
// reference StatisticSink implementation.
package analysis

import (
	"github.com/restfuzz/restfuzz/internal/depgraph"
	"github.com/restfuzz/restfuzz/internal/httpmodel"
)

// Sink receives fuzzing observations. OnInit runs once after the ODG is
// built; OnRequestResponse runs after every dispatched request;
// OnIterationEnd runs once per fuzz loop iteration; OnEnd runs once at
// shutdown. Implementations must tolerate being called from the single
// Fuzzer driver goroutine only — no internal synchronization is required
// or provided.
type Sink interface {
	Name() string
	OnInit(odg *depgraph.ODG)
	OnRequestResponse(resp *httpmodel.Response)
	OnIterationEnd()
	OnEnd()
}
