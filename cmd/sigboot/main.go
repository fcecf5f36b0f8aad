// Command sigboot selects significant features of a binary classification
// dataset by bootstrap resampling of logistic regression weights.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
