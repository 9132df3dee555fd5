package pkg

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type BuildOptions struct {
	// Workers > 1 walks that many processes concurrently.
	Workers int
	// ProcessTimeout bounds a single process walk; zero means no bound.
	ProcessTimeout time.Duration
	// FailOnUnreadable aborts the build on the first unreadable process
	// instead of keeping it with zero descriptors.
	FailOnUnreadable bool
	TargetBufferSize int
}

// BuildComposite attaches descriptors to every process. Processes are
// independent, so the walk order does not affect the result.
func BuildComposite(ctx context.Context, procRoot string, processes []*Process, opts BuildOptions) error {
	if opts.Workers <= 1 {
		for _, p := range processes {
			if err := attachProcess(ctx, procRoot, p, opts); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, p := range processes {
		p := p
		g.Go(func() error {
			return attachProcess(gctx, procRoot, p, opts)
		})
	}
	return g.Wait()
}

func attachProcess(ctx context.Context, procRoot string, p *Process, opts BuildOptions) error {
	descriptors, err := walkProcess(ctx, procRoot, p, opts)
	if err == nil {
		p.Descriptors = descriptors
		return nil
	}

	log := logrus.WithField("pid", p.Pid)
	var unreadable *UnreadableProcessError
	switch {
	case errors.As(err, &unreadable):
		if opts.FailOnUnreadable {
			return err
		}
		log.WithError(err).Warnln("process unreadable, keeping zero descriptors")
	case errors.Is(err, ErrProcessTimeout):
		log.WithError(err).Warnln("process walk timed out, keeping zero descriptors")
	default:
		return err
	}
	p.Descriptors = []*Descriptor{}
	return nil
}

func walkProcess(ctx context.Context, procRoot string, p *Process, opts BuildOptions) ([]*Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.ProcessTimeout <= 0 {
		return readDescriptors(procRoot, p, opts.TargetBufferSize)
	}

	type result struct {
		descriptors []*Descriptor
		err         error
	}
	// the walk only reads p; a late result after a timeout is dropped
	ch := make(chan result, 1)
	go func() {
		descriptors, err := readDescriptors(procRoot, p, opts.TargetBufferSize)
		ch <- result{descriptors, err}
	}()

	timer := time.NewTimer(opts.ProcessTimeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.descriptors, r.err
	case <-timer.C:
		return nil, errors.Wrapf(ErrProcessTimeout, "pid %d after %s", p.Pid, opts.ProcessTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
