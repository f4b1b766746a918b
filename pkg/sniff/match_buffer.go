/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: match_buffer.go
Description: Verification of a claimed type against an in-memory buffer.
*/

package sniff

import (
	"context"

	"github.com/kleascm/magicsniff/pkg/core"
	"github.com/kleascm/magicsniff/pkg/detect"
)

type matchBufferTask struct {
	registry *detect.Registry
	claim    string
	data     []byte
}

func (t matchBufferTask) Name() string { return "match_buffer" }

func (t matchBufferTask) Execute() (bool, error) {
	return t.registry.Match(t.claim, t.data), nil
}

func (t matchBufferTask) Finalize(ok bool) (bool, error) {
	return ok, nil
}

// MatchBuffer schedules a check of whether data is consistent with claim:
// the detected type, one of its aliases, or one of its ancestors. Claims the
// library does not know never match.
func (c *Client) MatchBuffer(ctx context.Context, claim string, data []byte) (*core.Future[bool], error) {
	return core.Submit[bool, bool](ctx, c.scheduler, matchBufferTask{
		registry: c.registry,
		claim:    claim,
		data:     data,
	})
}

// Match is the blocking form of MatchBuffer
func (c *Client) Match(ctx context.Context, claim string, data []byte) (bool, error) {
	f, err := c.MatchBuffer(ctx, claim, data)
	if err != nil {
		return false, err
	}
	return f.Await(ctx)
}
