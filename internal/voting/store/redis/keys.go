// Package redis implements the voting stores on go-redis.
//
// Layout:
//
//	{evote}:voter:<id>               hash   name, role, has_voted, created_at
//	{evote}:voters                   zset   voter ids scored by registration time
//	{evote}:candidate:<id>           hash   name, party, vote_count, seq, created_at, updated_at
//	{evote}:candidate:<id>:votes     list   JSON vote log entries, arrival order
//	{evote}:candidate:<id>:voters    set    voter ids present in the log
//	{evote}:candidates               zset   candidate ids scored by seq
//	{evote}:candidates:seq           string creation counter
//
// Every key shares the {evote} hash tag so multi-key scripts stay on one
// cluster slot. A cast runs as a single script through VoteTx: the voter
// flag, the log append and the count move together or not at all.
package redis

import (
	"time"

	id "evote/pkg/domain"
)

const (
	keyPrefix       = "{evote}:"
	votersIndexKey  = keyPrefix + "voters"
	candidatesIndex = keyPrefix + "candidates"
	candidateSeqKey = keyPrefix + "candidates:seq"
)

func voterKey(voterID id.VoterID) string {
	return keyPrefix + "voter:" + voterID.String()
}

func candidateKey(candidateID id.CandidateID) string {
	return keyPrefix + "candidate:" + candidateID.String()
}

func candidateVotesKey(candidateID id.CandidateID) string {
	return candidateKey(candidateID) + ":votes"
}

func candidateVotersKey(candidateID id.CandidateID) string {
	return candidateKey(candidateID) + ":voters"
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
