package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/heinergc/sqlconn/internal/audit"
	"github.com/heinergc/sqlconn/internal/profiles"
)

// Decrypter recovers a stored password.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// CorruptionReason says why a profile's password is unusable.
type CorruptionReason string

const (
	ReasonEmptySecret   CorruptionReason = "password is empty"
	ReasonFlaggedEmpty  CorruptionReason = "flagged as encrypted but empty"
	ReasonUndecryptable CorruptionReason = "cannot be decrypted on this machine"
)

// Candidate is a profile whose password must be re-entered.
type Candidate struct {
	Profile profiles.Profile
	Reason  CorruptionReason
}

// FindCorrupted returns the SQL-auth profiles whose password is empty,
// flagged as encrypted but empty, or flagged as encrypted but not
// decryptable with cipher. cipher may be nil to skip the last check.
func FindCorrupted(list []profiles.Profile, cipher Decrypter) []Candidate {
	var out []Candidate
	for _, p := range list {
		if !p.UsesSQLAuth() {
			continue
		}

		switch {
		case p.Password == "" && p.PasswordEncrypted:
			out = append(out, Candidate{Profile: p, Reason: ReasonFlaggedEmpty})
		case p.Password == "":
			out = append(out, Candidate{Profile: p, Reason: ReasonEmptySecret})
		case p.PasswordEncrypted && cipher != nil:
			if _, err := cipher.Decrypt(p.Password); err != nil {
				out = append(out, Candidate{Profile: p, Reason: ReasonUndecryptable})
			}
		}
	}
	return out
}

// PromptFunc asks the operator for a new password for c. An empty answer
// skips the profile.
type PromptFunc func(c Candidate) (string, error)

// RepairOptions configures the Repair workflow.
type RepairOptions struct {
	Cipher Decrypter
	Prompt PromptFunc
	Audit  audit.Trail
}

// RepairFailure records a profile whose new password could not be stored.
type RepairFailure struct {
	Profile profiles.Profile
	Err     error
}

// RepairResult holds the complete result of the Repair workflow.
type RepairResult struct {
	Candidates []Candidate
	Repaired   []profiles.Profile
	Skipped    []profiles.Profile
	Failed     []RepairFailure
}

// Repair prompts for a new password for every corrupted profile and stores
// it with ForceReplaceSecret. Skipped profiles are left untouched. A prompt
// error stops the workflow and is returned with the partial result.
func Repair(ctx context.Context, store *profiles.Store, opts RepairOptions) (*RepairResult, error) {
	if opts.Prompt == nil {
		return nil, fmt.Errorf("repair needs a prompt")
	}

	result := &RepairResult{Candidates: FindCorrupted(store.List(), opts.Cipher)}

	defer func() {
		if len(result.Candidates) == 0 {
			return
		}
		entry := audit.NewEntry(audit.OpRepair)
		entry.Changed = len(result.Repaired)
		entry.Skipped = len(result.Skipped)
		entry.Failed = len(result.Failed)
		opts.Audit.Log(entry)
	}()

	for _, c := range result.Candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		answer, err := opts.Prompt(c)
		if err != nil {
			return result, fmt.Errorf("reading password for %q: %w", c.Profile.Name, err)
		}

		if strings.TrimRight(answer, "\r\n") == "" {
			result.Skipped = append(result.Skipped, c.Profile)
			continue
		}

		if err := store.ForceReplaceSecret(c.Profile.ID, answer); err != nil {
			result.Failed = append(result.Failed, RepairFailure{Profile: c.Profile, Err: err})
			continue
		}
		result.Repaired = append(result.Repaired, c.Profile)
	}

	return result, nil
}
