package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"sanad/pkg/domain"
	dErrors "sanad/pkg/domain-errors"
)

// ApprovalEntry is one link in a record's tamper-evident approval trail.
// PrevDigest is the previous entry's digest (empty for the first entry) and
// Digest covers every field of this entry plus PrevDigest.
type ApprovalEntry struct {
	ActorID    string         `json:"actor_id"`
	Role       domain.Role    `json:"role"`
	Action     ApprovalAction `json:"action"`
	Timestamp  time.Time      `json:"timestamp"`
	Remarks    string         `json:"remarks,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	PrevDigest string         `json:"prev_digest,omitempty"`
	Digest     string         `json:"digest"`
}

// digest hashes the entry's fields chained onto PrevDigest. Field order and
// the timestamp encoding are part of the format; changing either breaks
// verification of existing trails.
func (e ApprovalEntry) digest() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s",
		e.ActorID,
		e.Role,
		e.Action,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.Remarks,
		e.Reason,
		e.PrevDigest,
	)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyApprovalChain recomputes every digest in the trail and checks the
// links. An empty trail is invalid: issuance always writes the first entry.
func VerifyApprovalChain(entries []ApprovalEntry) error {
	if len(entries) == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "approval trail is empty")
	}
	prev := ""
	for i, e := range entries {
		if e.PrevDigest != prev {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "approval entry %d is not chained to its predecessor", i)
		}
		if e.Digest != e.digest() {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "approval entry %d digest mismatch", i)
		}
		prev = e.Digest
	}
	return nil
}
