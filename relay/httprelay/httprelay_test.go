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

package httprelay_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ccgov/message"
	"github.com/blinklabs-io/ccgov/relay/httprelay"
)

type stubEndpoint struct {
	callbacks map[string]*message.CallbackResult
	mu        sync.Mutex
}

func newStubEndpoint() *stubEndpoint {
	return &stubEndpoint{callbacks: make(map[string]*message.CallbackResult)}
}

func (s *stubEndpoint) ServeQuery(
	_ context.Context,
	packet *message.QueryTally,
) *message.CallbackResult {
	if packet.Source.Namespace != message.DefaultNamespace {
		return message.NewQueryErrorResult(assert.AnError)
	}
	return message.NewTallyResult(&message.TallyResponse{
		ProposalID:   packet.ProposalID,
		ChosenOption: "no",
		Tally: []message.OptionVotes{
			{Option: "yes", Votes: 1},
			{Option: "no", Votes: 4},
		},
	})
}

func (s *stubEndpoint) OnRemoteTallyCallback(
	_ context.Context,
	token string,
	result *message.CallbackResult,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks[token] = result
	return nil
}

func (s *stubEndpoint) Callback(token string) *message.CallbackResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callbacks[token]
}

func newClient(t *testing.T, local *stubEndpoint, url string) *httprelay.Client {
	t.Helper()
	c := httprelay.NewClient(httprelay.ClientConfig{
		Endpoint: local,
		RetryMax: 1,
		Peers: []httprelay.Peer{{
			ChainID:  "chain-a",
			Contract: "gov-a",
			URL:      url + "/",
		}},
		RequestTimeout: 5 * time.Second,
	})
	t.Cleanup(c.Stop)
	return c
}

func TestHandlerServesQuery(t *testing.T) {
	srv := httptest.NewServer(httprelay.NewHandler(newStubEndpoint(), nil))
	defer srv.Close()
	packet := &message.QueryTally{
		Token:      "tok-1",
		Source:     message.Source{Namespace: message.DefaultNamespace, ChainID: "chain-b"},
		ProposalID: 9,
	}
	body, err := packet.Encode()
	require.NoError(t, err)
	resp, err := http.Post(srv.URL, httprelay.ContentType, bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, httprelay.ContentType, resp.Header.Get("Content-Type"))
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	result, err := message.DecodeCallbackResult(buf.Bytes())
	require.NoError(t, err)
	require.True(t, result.Success())
	assert.Equal(t, uint64(9), result.Tally.ProposalID)
	assert.Equal(t, map[string]uint64{"yes": 1, "no": 4}, result.Tally.Map())
}

func TestHandlerRejects(t *testing.T) {
	srv := httptest.NewServer(httprelay.NewHandler(newStubEndpoint(), nil))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp, err = http.Post(srv.URL, httprelay.ContentType, bytes.NewReader([]byte{0xff, 0x00}))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClientRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle(httprelay.QueryTallyPath, httprelay.NewHandler(newStubEndpoint(), nil))
	srv := httptest.NewServer(mux)
	defer srv.Close()
	local := newStubEndpoint()
	c := newClient(t, local, srv.URL)
	err := c.SendQuery(
		context.Background(),
		message.Destination{ChainID: "chain-a", Contract: "gov-a"},
		&message.QueryTally{
			Token:      "tok-1",
			Source:     message.Source{Namespace: message.DefaultNamespace},
			ProposalID: 2,
		},
	)
	require.NoError(t, err)
	c.Wait()
	result := local.Callback("tok-1")
	require.NotNil(t, result)
	require.True(t, result.Success())
	assert.Equal(t, "no", result.Tally.ChosenOption)

	// Refusals come back as query errors, not transport failures
	err = c.SendQuery(
		context.Background(),
		message.Destination{ChainID: "chain-a", Contract: "gov-a"},
		&message.QueryTally{Token: "tok-2", Source: message.Source{Namespace: "other"}},
	)
	require.NoError(t, err)
	c.Wait()
	result = local.Callback("tok-2")
	require.NotNil(t, result)
	assert.Equal(t, message.ResultKindQuery, result.Kind)
	assert.NotEmpty(t, result.Error)
}

func TestClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()
	local := newStubEndpoint()
	c := newClient(t, local, srv.URL)
	err := c.SendQuery(
		context.Background(),
		message.Destination{ChainID: "chain-a", Contract: "gov-a"},
		&message.QueryTally{Token: "tok-1"},
	)
	require.NoError(t, err)
	c.Wait()
	result := local.Callback("tok-1")
	require.NotNil(t, result)
	assert.Equal(t, message.ResultKindFatal, result.Kind)
	assert.Contains(t, result.Error, "404")
}

func TestClientUnknownPeer(t *testing.T) {
	c := httprelay.NewClient(httprelay.ClientConfig{})
	defer c.Stop()
	err := c.SendQuery(
		context.Background(),
		message.Destination{ChainID: "chain-z", Contract: "gov-z"},
		&message.QueryTally{Token: "tok-1"},
	)
	require.ErrorIs(t, err, httprelay.ErrUnknownPeer)
	c.Stop()
	err = c.SendQuery(
		context.Background(),
		message.Destination{ChainID: "chain-z", Contract: "gov-z"},
		&message.QueryTally{Token: "tok-1"},
	)
	require.ErrorIs(t, err, httprelay.ErrClientStopped)
}
