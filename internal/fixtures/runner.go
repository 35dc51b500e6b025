package fixtures

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/remiblancher/signature/internal/keys"
	"github.com/remiblancher/signature/internal/pkcs1"
)

// Status is the outcome of one vector.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result is the outcome of one vector.
type Result struct {
	Vector Vector
	Status Status
	Err    error // cause of a failure or skip
}

// Summary counts results by status.
type Summary struct {
	Passed  int
	Failed  int
	Skipped int
}

// OK reports whether no vector failed.
func (s Summary) OK() bool { return s.Failed == 0 }

// Total is the number of vectors run.
func (s Summary) Total() int { return s.Passed + s.Failed + s.Skipped }

// Report is the outcome of a run.
type Report struct {
	Results []Result
	Summary Summary
}

// ErrFixtureMissing marks vectors skipped because a key file is absent.
var ErrFixtureMissing = errors.New("key fixture not found")

// ErrMismatch marks vectors whose outcome differs from the expectation.
var ErrMismatch = errors.New("vector mismatch")

// Runner checks vectors against the key files of a Locator.
//
// Valid vectors must verify and must be reproduced byte for byte by
// signing again. Forged vectors must not verify; a padding error counts
// as a correct rejection.
type Runner struct {
	Locator Locator
}

// NewRunner returns a runner over loc.
func NewRunner(loc Locator) *Runner {
	return &Runner{Locator: loc}
}

// Run executes vectors in order. Keys are loaded once per run. It returns
// early with ctx.Err() when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, vectors []Vector) (*Report, error) {
	cache := &keyCache{loc: r.Locator}
	report := &Report{Results: make([]Result, 0, len(vectors))}

	for _, v := range vectors {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := r.runOne(cache, v)
		switch res.Status {
		case StatusPassed:
			report.Summary.Passed++
		case StatusFailed:
			report.Summary.Failed++
		case StatusSkipped:
			report.Summary.Skipped++
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (r *Runner) runOne(cache *keyCache, v Vector) Result {
	pub, err := cache.public(v.PublicKey)
	if err != nil {
		return resultFor(v, err)
	}

	ok, err := pkcs1.Verify(pub, v.Algorithm, v.Message, v.Signature)

	if v.Expect == ExpectForged {
		switch {
		case ok:
			return Result{Vector: v, Status: StatusFailed, Err: fmt.Errorf("%w: forged signature verified", ErrMismatch)}
		case err != nil && !errors.Is(err, pkcs1.ErrPadding):
			return Result{Vector: v, Status: StatusFailed, Err: err}
		}
		return Result{Vector: v, Status: StatusPassed}
	}

	if err != nil {
		return Result{Vector: v, Status: StatusFailed, Err: err}
	}
	if !ok {
		return Result{Vector: v, Status: StatusFailed, Err: fmt.Errorf("%w: signature did not verify", ErrMismatch)}
	}

	priv, err := cache.private(v.PrivateKey, v.Passphrase)
	if err != nil {
		return resultFor(v, err)
	}
	sig, err := pkcs1.Sign(priv, v.Algorithm, v.Message)
	if err != nil {
		return Result{Vector: v, Status: StatusFailed, Err: err}
	}
	if !bytes.Equal(sig, v.Signature) {
		return Result{Vector: v, Status: StatusFailed, Err: fmt.Errorf("%w: signing produced %x", ErrMismatch, sig)}
	}
	return Result{Vector: v, Status: StatusPassed}
}

// resultFor turns a key loading error into a skip or a failure.
func resultFor(v Vector, err error) Result {
	if errors.Is(err, ErrFixtureMissing) {
		return Result{Vector: v, Status: StatusSkipped, Err: err}
	}
	return Result{Vector: v, Status: StatusFailed, Err: err}
}

// keyCache loads each fixture at most once per run.
type keyCache struct {
	loc   Locator
	pubs  map[string]*keys.PublicKey
	privs map[string]*keys.PrivateKey
}

func (c *keyCache) public(name string) (*keys.PublicKey, error) {
	if k, ok := c.pubs[name]; ok {
		return k, nil
	}
	path, ok := c.loc.Path(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrFixtureMissing, name, c.loc.Dir)
	}
	k, err := keys.LoadPublicKey(path)
	if err != nil {
		return nil, err
	}
	if c.pubs == nil {
		c.pubs = make(map[string]*keys.PublicKey)
	}
	c.pubs[name] = k
	return k, nil
}

func (c *keyCache) private(name string, passphrase *string) (*keys.PrivateKey, error) {
	if k, ok := c.privs[name]; ok {
		return k, nil
	}
	path, ok := c.loc.Path(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrFixtureMissing, name, c.loc.Dir)
	}
	var pass []byte
	if passphrase != nil {
		pass = []byte(*passphrase)
	}
	k, err := keys.LoadPrivateKey(path, pass)
	clear(pass)
	if err != nil {
		return nil, err
	}
	if c.privs == nil {
		c.privs = make(map[string]*keys.PrivateKey)
	}
	c.privs[name] = k
	return k, nil
}
