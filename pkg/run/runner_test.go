package run

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunnerCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	err := NewRunner().Go(
		RunnableFunc(func(context.Context) error { return nil }),
		RunnableFunc(func(context.Context) error { return boom }),
	).Wait()
	require.Error(t, err)
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.Equal(t, []error{boom}, agg.Errors)
}

func TestRunnerIgnoresContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewRunnerWith(ctx).Go(
		RunnableFunc(func(ctx context.Context) error { return ctx.Err() }),
	).Wait()
	require.NoError(t, err)
}

type chanCloser chan struct{}

func (c chanCloser) Close() error {
	close(c)
	return nil
}

func TestRunWithContextCloserOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	closeCh := make(chanCloser)
	go cancel()
	err := RunWithContextCloser(ctx, closeCh, func() error {
		// blocked until the cancel path closes us
		<-closeCh
		return io.EOF
	})
	require.Equal(t, context.Canceled, err)
}

func TestRunWithContextCloserOnExit(t *testing.T) {
	closeCh := make(chanCloser)
	err := RunWithContextCloser(context.Background(), closeCh, func() error {
		return nil
	})
	require.NoError(t, err)
	select {
	case <-closeCh:
	default:
		t.Fatal("closer not closed after fn exit")
	}
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Aggregate())
	errs.Add(nil, errors.New("a"), nil, errors.New("b"))
	require.Len(t, errs.Errors, 2)
	require.Equal(t, "Multiple errors:\na\nb", errs.Error())
}
