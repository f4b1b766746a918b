/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: verify.go
Description: Corpus verification. Every sample is read and inferred through the
client concurrently; the inferred type must equal the sample's label. Results are
summarised in a report that can be written to disk as JSON.
*/

package corpus

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/magicsniff/pkg/detect"
	"github.com/kleascm/magicsniff/pkg/logging"
	"github.com/kleascm/magicsniff/pkg/sniff"
	"github.com/kleascm/magicsniff/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// Result is the outcome for one sample
type Result struct {
	Sample
	Actual detect.Identifier `json:"actual,omitempty"`
	// Consistent is true when the label is at least an ancestor of the content
	Consistent bool   `json:"consistent"`
	Error      string `json:"error,omitempty"`
}

// Passed reports whether inference returned exactly the label
func (r Result) Passed() bool {
	return r.Error == "" && r.Actual == r.Expected
}

// Report summarises a verification run
type Report struct {
	ID        string        `json:"id"`
	Root      string        `json:"root"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Total     int           `json:"total"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Failures  []Result      `json:"failures,omitempty"`
}

// OK reports whether every sample passed
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Verifier checks a labelled corpus against the detector
type Verifier struct {
	client      *sniff.Client
	concurrency int
	logger      *logrus.Logger
}

// NewVerifier creates a verifier. concurrency bounds files read at once;
// zero or less uses 8.
func NewVerifier(client *sniff.Client, concurrency int, logger *logrus.Logger) *Verifier {
	if concurrency <= 0 {
		concurrency = 8
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Verifier{client: client, concurrency: concurrency, logger: logger}
}

// Verify collects samples under root and checks each one. A mismatch is
// recorded in the report; only infrastructure failures abort the run.
func (v *Verifier) Verify(ctx context.Context, root string, excludes []string) (*Report, error) {
	samples, err := Collect(root, excludes)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:        uuid.NewString(),
		Root:      root,
		StartedAt: time.Now(),
		Total:     len(samples),
	}

	results := make([]Result, len(samples))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(v.concurrency).WithCancelOnError()
	for i, sample := range samples {
		i, sample := i, sample
		p.Go(func(ctx context.Context) error {
			res, err := v.check(ctx, sample)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("verification aborted: %w", err)
	}

	for _, res := range results {
		if res.Passed() {
			report.Passed++
			continue
		}
		report.Failed++
		report.Failures = append(report.Failures, res)
	}
	report.Duration = time.Since(report.StartedAt)

	v.logger.WithFields(logrus.Fields{
		"root":     root,
		"total":    report.Total,
		"passed":   report.Passed,
		"failed":   report.Failed,
		"duration": report.Duration,
	}).Info("Corpus verified")

	return report, nil
}

func (v *Verifier) check(ctx context.Context, sample Sample) (Result, error) {
	res := Result{Sample: sample}

	data, err := os.ReadFile(sample.Path)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}

	inferred, err := v.client.InferFromBuffer(ctx, data)
	if err != nil {
		return res, err
	}
	matched, err := v.client.MatchBuffer(ctx, sample.Expected.String(), data)
	if err != nil {
		return res, err
	}

	if res.Actual, err = inferred.Await(ctx); err != nil {
		return res, err
	}
	if res.Consistent, err = matched.Await(ctx); err != nil {
		return res, err
	}

	if !res.Passed() {
		v.logger.WithFields(logrus.Fields{
			"expected":   sample.Expected,
			"actual":     res.Actual,
			"consistent": res.Consistent,
		}).Warn("Sample mismatch")
	}
	return res, nil
}

// WriteReport stores report as JSON under dir and returns the file path
func WriteReport(dir string, report *Report) (string, error) {
	return utils.WriteResult(dir, "verify", report)
}
