package repo

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/odvcencio/flux/pkg/object"
)

// zeroHash stands in for "no commit" on either side of a reflog entry.
var zeroHash = object.Hash(strings.Repeat("0", 2*object.HashSize))

// ReflogEntry is one recorded move of a branch ref.
type ReflogEntry struct {
	Ref       string
	OldHash   object.Hash
	NewHash   object.Hash
	Timestamp int64
	Reason    string
}

func (r *Repository) reflogPath(ref string) string {
	return filepath.Join(r.StoreDir, "logs", filepath.FromSlash(ref))
}

// appendReflog adds "<old> <new> <unix-ts> <reason>" to the ref's log.
func (r *Repository) appendReflog(ref string, oldHash, newHash object.Hash, reason string) error {
	if strings.TrimSpace(reason) == "" {
		reason = "update"
	}
	reason = strings.ReplaceAll(reason, "\n", " ")

	logPath := r.reflogPath(ref)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("reflog mkdir: %w", err)
	}

	if oldHash == "" {
		oldHash = zeroHash
	}
	if newHash == "" {
		newHash = zeroHash
	}
	line := fmt.Sprintf("%s %s %d %s\n", oldHash, newHash, time.Now().Unix(), reason)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reflog open: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("reflog write: %w", err)
	}
	return nil
}

func (r *Repository) removeReflog(ref string) error {
	if err := os.Remove(r.reflogPath(ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reflog remove: %w", err)
	}
	return nil
}

// ReadReflog returns the recorded moves of branch (the current branch when
// empty), newest first. A limit of zero or less returns every entry.
func (r *Repository) ReadReflog(branch string, limit int) ([]ReflogEntry, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" || branch == "HEAD" {
		branch = r.BranchName()
	}
	if err := ValidateBranchName(branch); err != nil {
		return nil, fmt.Errorf("read reflog: %w", err)
	}
	ref := headsPrefix + branch

	f, err := os.Open(r.reflogPath(ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog: %w", err)
	}
	defer f.Close()

	var entries []ReflogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 4)
		if len(parts) < 4 {
			continue
		}
		ts, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}
		entry := ReflogEntry{
			Ref:       ref,
			OldHash:   object.Hash(parts[0]),
			NewHash:   object.Hash(parts[1]),
			Timestamp: ts,
			Reason:    parts[3],
		}
		if entry.OldHash == zeroHash {
			entry.OldHash = ""
		}
		if entry.NewHash == zeroHash {
			entry.NewHash = ""
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reflog: %w", err)
	}

	// Newest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
