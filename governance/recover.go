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

package governance

import (
	"fmt"

	"github.com/blinklabs-io/ccgov/database"
	"github.com/blinklabs-io/ccgov/database/models"
	"github.com/blinklabs-io/ccgov/event"
)

const abandonedQueryReason = "query abandoned on restart"

// abandonPendingQueries fails every tally query still in flight from a
// previous run. Transports do not outlive the process, so no callback can
// arrive for them and the next ExecuteProposal sends a new query.
func (e *Engine) abandonPendingQueries() error {
	var abandoned []models.PendingQuery
	err := e.update(func(txn *database.Txn) error {
		abandoned = nil
		pending, err := e.db.PendingQueries(txn)
		if err != nil {
			return err
		}
		for _, pq := range pending {
			if err := e.db.DeletePendingQuery(pq.Token, txn); err != nil {
				return err
			}
			state, err := e.db.GetPrereqState(pq.PrereqID, txn)
			if err != nil {
				return fmt.Errorf("prerequisite %d: %w", pq.PrereqID, err)
			}
			if state.Status != models.PrereqStatusQueried || state.Token != pq.Token {
				// Stale correlation entry
				continue
			}
			state.Status = models.PrereqStatusFailed
			state.LastError = abandonedQueryReason
			if err := e.db.SetPrereqState(state, txn); err != nil {
				return err
			}
			abandoned = append(abandoned, pq)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("recover pending queries: %w", err)
	}
	for _, pq := range abandoned {
		e.metrics.callbacks.WithLabelValues("abandoned").Inc()
		e.logger.Warn(
			"abandoned tally query from previous run",
			"component", "governance",
			"prop_id", pq.PropID,
			"prereq_id", pq.PrereqID,
			"token", pq.Token,
		)
		e.publish(
			event.RemoteQueryFailedEventType,
			event.RemoteQueryFailedEvent{
				PropID:   pq.PropID,
				PrereqID: pq.PrereqID,
				Reason:   abandonedQueryReason,
			},
		)
	}
	return nil
}
