// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Rahad0Islam/e-votehub/models"
)

var ErrUnknownElectionType = errors.New("unknown election type")

// ApplyVote folds one validated ballot into the per-nominee tally rows for
// (eventID, electionType). Preconditions (checked by the orchestrator, not
// here): the selection is non-empty, exactly one entry for Single, and
// every entry references an approved nominee.
//
// All counter updates are atomic SQL upserts, so concurrent voters hitting
// the same nominee row never lose increments. Runs inside the caller's
// transaction and performs no partial mutation on an unknown type.
func ApplyVote(tx *sql.Tx, eventID, electionType string, selected []models.SelectedNominee, approved []string, universe int) error {
	switch electionType {
	case models.TypeSingle:
		return addVotes(tx, eventID, electionType, []string{selected[0].NomineeID})

	case models.TypeMultiVote:
		// A ballot listing the same nominee twice counts once.
		seen := make(map[string]bool, len(selected))
		unique := make([]string, 0, len(selected))
		for _, sel := range selected {
			if !seen[sel.NomineeID] {
				seen[sel.NomineeID] = true
				unique = append(unique, sel.NomineeID)
			}
		}
		return addVotes(tx, eventID, electionType, unique)

	case models.TypeRank:
		scores := rankScores(selected, approved, universe)
		// Fixed row order keeps concurrent transactions from deadlocking
		// on tally row locks.
		ids := make([]string, 0, len(scores))
		for id := range scores {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			_, err := tx.Exec(`
				INSERT INTO tally (event_id, election_type, nominee_id, total_vote, total_rank)
				VALUES ($1, $2, $3, 0, $4)
				ON CONFLICT (event_id, election_type, nominee_id)
				DO UPDATE SET total_rank = tally.total_rank + $4
			`, eventID, electionType, id, scores[id])
			if err != nil {
				return fmt.Errorf("failed to add rank score: %w", err)
			}
		}
		return nil

	default:
		return ErrUnknownElectionType
	}
}

// addVotes increments total_vote by one for each listed nominee.
func addVotes(tx *sql.Tx, eventID, electionType string, nomineeIDs []string) error {
	sort.Strings(nomineeIDs)
	for _, id := range nomineeIDs {
		_, err := tx.Exec(`
			INSERT INTO tally (event_id, election_type, nominee_id, total_vote, total_rank)
			VALUES ($1, $2, $3, 1, 0)
			ON CONFLICT (event_id, election_type, nominee_id)
			DO UPDATE SET total_vote = tally.total_vote + 1
		`, eventID, electionType, id)
		if err != nil {
			return fmt.Errorf("failed to add vote: %w", err)
		}
	}
	return nil
}

// rankScores computes each approved nominee's score contribution for one
// Rank ballot. Declared ranks are clamped into [1, n]; an unranked ballot
// line and every approved nominee the ballot omits score the worst value n
// (non-ranking is a last-place vote, not an omission). Every committed
// Rank ballot therefore contributes exactly one score per nominee in the
// universe.
func rankScores(selected []models.SelectedNominee, approved []string, n int) map[string]int {
	if n <= 0 {
		// Empty universe fallback; should not occur in practice.
		n = len(selected)
	}

	declared := make(map[string]int, len(selected))
	for _, sel := range selected {
		score := n
		if sel.Rank != nil {
			r := *sel.Rank
			if r < 1 {
				r = 1
			}
			if r > n {
				r = n
			}
			score = r
		}
		declared[sel.NomineeID] = score
	}

	if len(approved) == 0 {
		return declared
	}

	scores := make(map[string]int, len(approved))
	for _, id := range approved {
		if s, ok := declared[id]; ok {
			scores[id] = s
		} else {
			scores[id] = n
		}
	}
	return scores
}

// tallyEntries reads the accumulated counters for one (event, type) pair.
func tallyEntries(db *sql.DB, eventID, electionType string) ([]models.TallyEntry, error) {
	rows, err := db.Query(`
		SELECT nominee_id, total_vote, total_rank
		FROM tally
		WHERE event_id = $1 AND election_type = $2
		ORDER BY nominee_id
	`, eventID, electionType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TallyEntry
	for rows.Next() {
		var e models.TallyEntry
		if err := rows.Scan(&e.NomineeID, &e.TotalVote, &e.TotalRank); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
