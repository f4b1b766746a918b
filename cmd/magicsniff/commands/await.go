/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: await.go
Description: Result collection for submitted inferences.
*/

package commands

import (
	"context"

	"github.com/kleascm/magicsniff/pkg/logging"
	"github.com/kleascm/magicsniff/pkg/sniff"
)

func (p pending) await(ctx context.Context, logger *logging.Logger) (sniff.Optional, error) {
	if p.path != nil {
		got, err := p.path.Await(ctx)
		logger.LogTask(p.path.ID, p.path.Name, since(p.path.Submitted), err)
		return got, err
	}

	id, err := p.buffer.Await(ctx)
	logger.LogTask(p.buffer.ID, p.buffer.Name, since(p.buffer.Submitted), err)
	if err != nil {
		return sniff.None, err
	}
	return sniff.Some(id), nil
}
