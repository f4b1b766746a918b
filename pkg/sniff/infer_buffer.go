/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: infer_buffer.go
Description: Type inference over an in-memory buffer.
*/

package sniff

import (
	"context"

	"github.com/kleascm/magicsniff/pkg/core"
	"github.com/kleascm/magicsniff/pkg/detect"
)

// inferBufferTask infers the type of a captured buffer. The buffer is held by
// reference and must not change while the task is pending.
type inferBufferTask struct {
	registry *detect.Registry
	data     []byte
}

func (t inferBufferTask) Name() string { return "infer_buffer" }

func (t inferBufferTask) Execute() (detect.Identifier, error) {
	return t.registry.Infer(t.data), nil
}

func (t inferBufferTask) Finalize(id detect.Identifier) (detect.Identifier, error) {
	return id, nil
}

// InferFromBuffer schedules inference of data's type. The result is never
// empty: unrecognized content resolves to detect.Fallback.
func (c *Client) InferFromBuffer(ctx context.Context, data []byte) (*core.Future[detect.Identifier], error) {
	return core.Submit[detect.Identifier, detect.Identifier](ctx, c.scheduler, inferBufferTask{
		registry: c.registry,
		data:     data,
	})
}

// Infer is the blocking form of InferFromBuffer
func (c *Client) Infer(ctx context.Context, data []byte) (detect.Identifier, error) {
	f, err := c.InferFromBuffer(ctx, data)
	if err != nil {
		return "", err
	}
	return f.Await(ctx)
}
