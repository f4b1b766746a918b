/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: infer_path.go
Description: Type inference over the content of a file. The file name and extension
play no part in the result.
*/

package sniff

import (
	"context"

	"github.com/kleascm/magicsniff/pkg/core"
	"github.com/kleascm/magicsniff/pkg/detect"
)

type inferPathTask struct {
	registry *detect.Registry
	path     string
	strict   bool
}

func (t inferPathTask) Name() string { return "infer_path" }

func (t inferPathTask) Execute() (pathResult[detect.Identifier], error) {
	id, err := t.registry.InferFile(t.path)
	return pathResult[detect.Identifier]{value: id, err: err}, nil
}

func (t inferPathTask) Finalize(r pathResult[detect.Identifier]) (Optional, error) {
	if r.err != nil {
		if t.strict {
			return None, r.err
		}
		return None, nil
	}
	return Some(r.value), nil
}

// InferFromPath schedules inference of the type of the file at path. A file
// that cannot be opened or read resolves to an absent value, or to an error
// wrapping detect.ErrUnreadable when the client uses strict I/O.
func (c *Client) InferFromPath(ctx context.Context, path string) (*core.Future[Optional], error) {
	return core.Submit[pathResult[detect.Identifier], Optional](ctx, c.scheduler, inferPathTask{
		registry: c.registry,
		path:     path,
		strict:   c.strictIO,
	})
}

// InferPath is the blocking form of InferFromPath
func (c *Client) InferPath(ctx context.Context, path string) (Optional, error) {
	f, err := c.InferFromPath(ctx, path)
	if err != nil {
		return None, err
	}
	return f.Await(ctx)
}
