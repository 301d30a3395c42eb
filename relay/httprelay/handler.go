// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httprelay

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/blinklabs-io/ccgov/message"
	"github.com/blinklabs-io/ccgov/relay"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type handler struct {
	endpoint relay.Endpoint
	logger   *slog.Logger
}

// NewHandler serves tally queries for the endpoint. A well-formed packet is
// always answered with 200 and a CBOR callback result, including refusals.
func NewHandler(endpoint relay.Endpoint, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	h := &handler{
		endpoint: endpoint,
		logger:   logger,
	}
	return otelhttp.NewHandler(h, "httprelay.QueryTally")
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPacketSize))
	if err != nil {
		http.Error(w, "failed to read packet", http.StatusBadRequest)
		return
	}
	packet, err := message.DecodeQueryTally(body)
	if err != nil {
		h.logger.Debug(
			"rejected malformed tally query",
			"component", "httprelay",
			"remote", r.RemoteAddr,
			"error", err,
		)
		http.Error(w, "malformed packet", http.StatusBadRequest)
		return
	}
	result := h.endpoint.ServeQuery(r.Context(), packet)
	resp, err := result.Encode()
	if err != nil {
		h.logger.Error(
			"failed to encode callback result",
			"component", "httprelay",
			"token", packet.Token,
			"error", err,
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}
