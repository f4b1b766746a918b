/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: match_path.go
Description: Verification of a claimed type against the content of a file.
*/

package sniff

import (
	"context"

	"github.com/kleascm/magicsniff/pkg/core"
	"github.com/kleascm/magicsniff/pkg/detect"
)

type matchPathTask struct {
	registry *detect.Registry
	claim    string
	path     string
	strict   bool
}

func (t matchPathTask) Name() string { return "match_path" }

func (t matchPathTask) Execute() (pathResult[bool], error) {
	ok, err := t.registry.MatchFile(t.claim, t.path)
	return pathResult[bool]{value: ok, err: err}, nil
}

func (t matchPathTask) Finalize(r pathResult[bool]) (bool, error) {
	if r.err != nil {
		if t.strict {
			return false, r.err
		}
		return false, nil
	}
	return r.value, nil
}

// MatchPath schedules a check of whether the file at path is consistent with
// claim. An unreadable file does not match, or resolves to an error wrapping
// detect.ErrUnreadable when the client uses strict I/O.
func (c *Client) MatchPath(ctx context.Context, claim, path string) (*core.Future[bool], error) {
	return core.Submit[pathResult[bool], bool](ctx, c.scheduler, matchPathTask{
		registry: c.registry,
		claim:    claim,
		path:     path,
		strict:   c.strictIO,
	})
}

// MatchFile is the blocking form of MatchPath
func (c *Client) MatchFile(ctx context.Context, claim, path string) (bool, error) {
	f, err := c.MatchPath(ctx, claim, path)
	if err != nil {
		return false, err
	}
	return f.Await(ctx)
}
