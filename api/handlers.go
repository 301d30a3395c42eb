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

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/blinklabs-io/ccgov/database/models"
	"github.com/blinklabs-io/ccgov/governance"
)

const maxRequestBody = 1 << 20

var errBadProposalID = errors.New("invalid proposal id")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// statusForError maps engine errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case governance.IsValidation(err):
		return http.StatusBadRequest
	case governance.IsAuthorization(err):
		return http.StatusForbidden
	case governance.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func proposalID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, errBadProposalID
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
		ChainID:   s.config.ChainID,
	})
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req governance.CreateProposalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if sender := r.Header.Get(SenderHeader); sender != "" {
		req.Proposer = sender
	}
	propId, err := s.node.CreateProposal(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ProposalCreatedResponse{PropID: propId})
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	props, err := s.node.ListProposals(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	if props == nil {
		props = []models.Proposal{}
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	propId, err := proposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prop, err := s.node.QueryProposal(r.Context(), propId)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	propId, err := proposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req VoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	voter := strings.TrimSpace(r.Header.Get(SenderHeader))
	if voter == "" {
		voter = strings.TrimSpace(req.Voter)
	}
	if voter == "" {
		writeError(w, http.StatusBadRequest, "missing voter")
		return
	}
	voteId, err := s.node.Vote(r.Context(), voter, propId, req.Option)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, VoteCastResponse{VoteID: voteId})
}

func (s *Server) handleGetVote(w http.ResponseWriter, r *http.Request) {
	propId, err := proposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vote, err := s.node.QueryVote(r.Context(), propId, r.PathValue("voter"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vote)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	propId, err := proposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.node.ExecuteProposal(r.Context(), propId)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Status == governance.ExecuteStatusUnresolved {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

func (s *Server) handleVotedPower(w http.ResponseWriter, r *http.Request) {
	propId, err := proposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	power, err := s.node.QueryTotalVotedPower(r.Context(), propId)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VotedPowerResponse{PropID: propId, Power: power})
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	propId, err := proposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tally, err := s.node.QueryTally(r.Context(), propId)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	resp := TallyResponse{
		PropID:       tally.ProposalID,
		ChosenOption: tally.ChosenOption,
		Tally:        make([]OptionTally, 0, len(tally.Tally)),
	}
	for _, ov := range tally.Tally {
		resp.Tally = append(resp.Tally, OptionTally{Option: ov.Option, Votes: ov.Votes})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePrerequisites(w http.ResponseWriter, r *http.Request) {
	propId, err := proposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	progress, err := s.node.QueryPrerequisites(r.Context(), propId)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	if progress == nil {
		progress = []governance.PrereqProgress{}
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleExecuted(w http.ResponseWriter, r *http.Request) {
	executed, err := s.node.QueryExecutedProposals(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	if executed == nil {
		executed = []models.ExecutedProposal{}
	}
	writeJSON(w, http.StatusOK, executed)
}
