package repo

import (
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/flux/pkg/object"
)

// SignaturePrefix tags the encoded value stored in a commit's sshsig
// header: "sshsig-v1:<format>:<base64 public key>:<base64 signature>".
const SignaturePrefix = "sshsig-v1"

// EncodeSignature renders an SSH signature made by pub into the single-line
// header value.
func EncodeSignature(pub ssh.PublicKey, sig *ssh.Signature) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		SignaturePrefix,
		sig.Format,
		base64.StdEncoding.EncodeToString(pub.Marshal()),
		base64.StdEncoding.EncodeToString(sig.Blob),
	)
}

// VerifyCommitSignature checks the sshsig header of c against its signing
// payload and returns the signing public key.
func VerifyCommitSignature(c *object.Commit) (ssh.PublicKey, error) {
	parts := strings.Split(c.Signature, ":")
	if len(parts) != 4 || parts[0] != SignaturePrefix {
		return nil, fmt.Errorf("%w: unrecognized encoding", ErrBadSignature)
	}
	pubRaw, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrBadSignature, err)
	}
	blob, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrBadSignature, err)
	}
	pub, err := ssh.ParsePublicKey(pubRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrBadSignature, err)
	}
	if err := pub.Verify(object.SigningPayload(c), &ssh.Signature{Format: parts[1], Blob: blob}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return pub, nil
}

// VerifyReport summarizes a full repository check.
type VerifyReport struct {
	Objects  *object.VerifySummary
	Commits  int // commits reachable from branch tips
	Signed   int // of which carry a valid signature
	Branches int
}

// Verify rehashes every stored object, then walks the history of every
// branch checking that each commit points at a tree, that each parent is a
// commit and that every signature present is valid.
func (r *Repository) Verify() (*VerifyReport, error) {
	summary, err := r.Store.Verify()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	report := &VerifyReport{Objects: summary}

	seen := make(map[object.Hash]bool)
	for _, b := range r.Branches {
		report.Branches++
		for cur := b.LastCommit; cur != "" && !seen[cur]; {
			seen[cur] = true
			c, err := r.Store.ReadCommit(cur)
			if err != nil {
				return nil, fmt.Errorf("verify: branch %s: %w", b.Name, err)
			}
			if _, err := r.Store.ReadTyped(c.Tree, object.TypeTree); err != nil {
				return nil, fmt.Errorf("verify: commit %s: %w", cur, err)
			}
			if c.Signature != "" {
				if _, err := VerifyCommitSignature(c); err != nil {
					return nil, fmt.Errorf("verify: commit %s: %w", cur, err)
				}
				report.Signed++
			}
			report.Commits++
			cur = c.Parent
		}
	}

	r.log.Debug("repository verified",
		zap.Int("objects", summary.Objects),
		zap.Int("commits", report.Commits),
		zap.Int("signed", report.Signed),
	)
	return report, nil
}
