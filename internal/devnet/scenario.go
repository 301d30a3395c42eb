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

package devnet

import (
	"context"
	"errors"
	"fmt"

	"github.com/blinklabs-io/ccgov/governance"
)

var ErrScenarioFailed = errors.New("devnet scenario failed")

// ScenarioReport is the outcome of RunDependencyScenario
type ScenarioReport struct {
	Steps             []string          `json:"steps"`
	Tally             map[string]uint64 `json:"tally"`
	ChosenOption      string            `json:"chosen_option"`
	RemoteChain       string            `json:"remote_chain"`
	LocalChain        string            `json:"local_chain"`
	RemoteProposal    uint64            `json:"remote_proposal"`
	DependentProposal uint64            `json:"dependent_proposal"`
	QueryAttempts     uint32            `json:"query_attempts"`
}

func (r *ScenarioReport) step(format string, args ...any) {
	r.Steps = append(r.Steps, fmt.Sprintf(format, args...))
}

// RunDependencyScenario creates a proposal on remoteChain and a proposal on
// localChain that depends on it, then executes the dependent proposal before
// and after the remote one. The first query fails because the remote
// proposal is not executed yet; the second resolves it.
func (d *Devnet) RunDependencyScenario(
	ctx context.Context,
	remoteChain string,
	localChain string,
	oracle string,
) (*ScenarioReport, error) {
	remote, err := d.Engine(remoteChain)
	if err != nil {
		return nil, err
	}
	local, err := d.Engine(localChain)
	if err != nil {
		return nil, err
	}
	if oracle == "" {
		oracle = DefaultPowerOracle
	}
	report := &ScenarioReport{
		RemoteChain: remoteChain,
		LocalChain:  localChain,
	}
	options := []string{"approve", "reject"}

	report.RemoteProposal, err = remote.CreateProposal(ctx, governance.CreateProposalRequest{
		Proposer:      "devnet",
		Title:         "remote proposal",
		PowerContract: oracle,
		Options:       options,
	})
	if err != nil {
		return nil, fmt.Errorf("create remote proposal: %w", err)
	}
	report.step("created proposal %d on %s", report.RemoteProposal, remoteChain)
	report.DependentProposal, err = local.CreateProposal(ctx, governance.CreateProposalRequest{
		Proposer:      "devnet",
		Title:         "dependent proposal",
		PowerContract: oracle,
		Options:       options,
		Prerequisites: []governance.PrereqRef{
			d.PrereqRef(remoteChain, report.RemoteProposal),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create dependent proposal: %w", err)
	}
	report.step(
		"created proposal %d on %s depending on %s#%d",
		report.DependentProposal,
		localChain,
		remoteChain,
		report.RemoteProposal,
	)

	votes := []struct {
		engine *governance.Engine
		chain  string
		voter  string
		option string
		propId uint64
	}{
		{remote, remoteChain, "alice", "approve", report.RemoteProposal},
		{remote, remoteChain, "bob", "reject", report.RemoteProposal},
		{local, localChain, "carol", "reject", report.DependentProposal},
	}
	for _, v := range votes {
		if _, err := v.engine.Vote(ctx, v.voter, v.propId, v.option); err != nil {
			return nil, fmt.Errorf("vote %s on %s: %w", v.voter, v.chain, err)
		}
		report.step("%s voted %s on %s#%d", v.voter, v.option, v.chain, v.propId)
	}

	d.EndVoting()
	report.step("voting period ended")

	// The remote proposal has not been executed, so this query fails
	res, err := local.ExecuteProposal(ctx, report.DependentProposal)
	if err != nil {
		return nil, fmt.Errorf("execute dependent proposal: %w", err)
	}
	if res.Status != governance.ExecuteStatusUnresolved {
		return nil, fmt.Errorf("%w: dependent proposal executed before its prerequisite", ErrScenarioFailed)
	}
	report.step("dependent proposal unresolved, dispatched %v", res.Dispatched)
	d.Settle()
	progress, err := local.QueryPrerequisites(ctx, report.DependentProposal)
	if err != nil {
		return nil, err
	}
	for _, p := range progress {
		report.step("prerequisite %d is %s: %s", p.Ref.ID, p.State.Status, p.State.LastError)
	}

	res, err = remote.ExecuteProposal(ctx, report.RemoteProposal)
	if err != nil {
		return nil, fmt.Errorf("execute remote proposal: %w", err)
	}
	report.step("executed %s#%d: %s", remoteChain, report.RemoteProposal, res.ChosenOption)

	res, err = local.ExecuteProposal(ctx, report.DependentProposal)
	if err != nil {
		return nil, fmt.Errorf("execute dependent proposal: %w", err)
	}
	report.step("dependent proposal %s, dispatched %v", res.Status, res.Dispatched)
	d.Settle()

	res, err = local.ExecuteProposal(ctx, report.DependentProposal)
	if err != nil {
		return nil, fmt.Errorf("execute dependent proposal: %w", err)
	}
	if res.Status != governance.ExecuteStatusExecuted {
		return nil, fmt.Errorf("%w: dependent proposal still %s", ErrScenarioFailed, res.Status)
	}
	report.ChosenOption = res.ChosenOption
	report.Tally = make(map[string]uint64, len(res.Totals))
	for _, t := range res.Totals {
		report.Tally[t.Option] = t.Votes
	}
	progress, err = local.QueryPrerequisites(ctx, report.DependentProposal)
	if err != nil {
		return nil, err
	}
	for _, p := range progress {
		report.QueryAttempts += p.State.Attempts
	}
	report.step("executed %s#%d: %s %v", localChain, report.DependentProposal, res.ChosenOption, report.Tally)
	return report, nil
}
