package square

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSquare(t *testing.T) {
	tests := []struct {
		x, want int64
	}{
		{0, 0},
		{1, 1},
		{-3, 9},
		{12, 144},
		{999_999, 999_998_000_001},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Square(tt.x), "Square(%d)", tt.x)
	}
}

func TestNumbers(t *testing.T) {
	assert.Empty(t, Numbers(0))
	assert.Empty(t, Numbers(1))
	assert.Equal(t, []int64{1, 2, 3, 4}, Numbers(5))

	in := Numbers(1_000_000)
	require.Len(t, in, 999_999)
	assert.Equal(t, int64(1), in[0])
	assert.Equal(t, int64(999_999), in[len(in)-1])
}

func TestModesAgree(t *testing.T) {
	ctx := context.Background()

	for _, n := range []int{0, 1, 2, 17, 10_000} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			in := Numbers(n)

			seq := Sequential(in)
			require.Len(t, seq, len(in))
			for i, x := range in {
				assert.Equal(t, x*x, seq[i])
			}

			thr, err := Threaded(ctx, in, 0)
			require.NoError(t, err)

			chk, err := Chunked(ctx, in, 3)
			require.NoError(t, err)

			if diff := cmp.Diff(seq, thr); diff != "" {
				t.Errorf("Threaded() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(seq, chk); diff != "" {
				t.Errorf("Chunked() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChunkedMoreWorkersThanElements(t *testing.T) {
	got, err := Chunked(context.Background(), []int64{2, 3}, 16)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 9}, got)
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := Numbers(1000)

	got, err := Threaded(ctx, in, 4)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)

	got, err = Chunked(ctx, in, 4)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func BenchmarkSquare(b *testing.B) {
	in := Numbers(1_000_000)
	ctx := context.Background()

	tableBenchmarks := []struct {
		name    string
		workers []int
		benchFn func(workers int)
	}{
		{
			name:    "Sequential",
			workers: []int{1},
			benchFn: func(int) { Sequential(in) },
		},
		{
			name:    "Threaded",
			workers: []int{1, 4, 0},
			benchFn: func(workers int) { _, _ = Threaded(ctx, in, workers) },
		},
		{
			name:    "Chunked",
			workers: []int{1, 4, 0},
			benchFn: func(workers int) { _, _ = Chunked(ctx, in, workers) },
		},
	}

	for _, tb := range tableBenchmarks {
		for _, workers := range tb.workers {
			b.Run(fmt.Sprintf("%s %02d workers", tb.name, workers), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					tb.benchFn(workers)
				}
			})
		}
	}
}
