// Package model_selection provides index splitters for resampling.
package model_selection

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
)

// Split holds the row indices of one train/test partition.
type Split struct {
	TrainIndices []int
	TestIndices  []int
}

// ShuffleSplit generates independent random train/test partitions.
//
// Unlike KFold a sample may land in the test side of any number of
// repetitions. Repetition r draws its permutation from a PCG stream keyed by
// (Seed, r), so splits can be generated or consumed in any order and the
// same seed always yields the same partitions.
type ShuffleSplit struct {
	NSplits  int
	TestSize float64
	Seed     uint64
}

// NewShuffleSplit creates a shuffle-split generator.
func NewShuffleSplit(nSplits int, testSize float64, seed uint64) *ShuffleSplit {
	return &ShuffleSplit{
		NSplits:  nSplits,
		TestSize: testSize,
		Seed:     seed,
	}
}

// GetNSplits returns the number of repetitions.
func (ss *ShuffleSplit) GetNSplits() int {
	return ss.NSplits
}

// Split returns NSplits partitions of [0, nSamples).
func (ss *ShuffleSplit) Split(nSamples int) ([]Split, error) {
	if ss.NSplits < 1 {
		return nil, errors.NewInvalidArgumentError("ShuffleSplit.Split", "n_splits", "must be at least 1", ss.NSplits)
	}
	nTest, err := testCount("ShuffleSplit.Split", nSamples, ss.TestSize)
	if err != nil {
		return nil, err
	}

	splits := make([]Split, ss.NSplits)
	for r := range splits {
		splits[r] = partition(nSamples, nTest, ss.Seed, uint64(r))
	}
	return splits, nil
}

// SplitAt returns the partition of repetition r without building the others.
func (ss *ShuffleSplit) SplitAt(nSamples, r int) (Split, error) {
	if r < 0 || r >= ss.NSplits {
		return Split{}, errors.NewInvalidArgumentError("ShuffleSplit.SplitAt", "repetition", "out of range", r)
	}
	nTest, err := testCount("ShuffleSplit.SplitAt", nSamples, ss.TestSize)
	if err != nil {
		return Split{}, err
	}
	return partition(nSamples, nTest, ss.Seed, uint64(r)), nil
}

// TrainTestSplit returns a single random hold-out partition of [0, nSamples)
// with the same rounding as ShuffleSplit.
func TrainTestSplit(nSamples int, testSize float64, seed uint64) (Split, error) {
	nTest, err := testCount("TrainTestSplit", nSamples, testSize)
	if err != nil {
		return Split{}, err
	}
	return partition(nSamples, nTest, seed, 0), nil
}

// testCount validates the arguments and returns ceil(testSize * nSamples).
func testCount(op string, nSamples int, testSize float64) (int, error) {
	if nSamples < 2 {
		return 0, errors.NewInvalidArgumentError(op, "n_samples", "must be at least 2", nSamples)
	}
	if math.IsNaN(testSize) || testSize <= 0 || testSize >= 1 {
		return 0, errors.NewInvalidArgumentError(op, "test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(nSamples)))
	if nTest >= nSamples {
		return 0, errors.NewInvalidArgumentError(op, "test_size", "leaves no training samples", testSize)
	}
	return nTest, nil
}

func partition(nSamples, nTest int, seed, stream uint64) Split {
	r := rand.New(rand.NewPCG(seed, stream))
	perm := r.Perm(nSamples)
	return Split{
		TrainIndices: perm[nTest:],
		TestIndices:  perm[:nTest],
	}
}
