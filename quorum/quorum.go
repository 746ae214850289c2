// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package quorum derives the classic and fast quorum sizes a replica group
// of a given size needs for the slow and fast paths respectively. These are
// pure functions: no replica, network or storage state is involved.
package quorum

import "fmt"

// Classic returns the classic (slow-path) quorum size for a group of n
// replicas: floor(n/2) + 1.
func Classic(n int) int {
	return n/2 + 1
}

// Fast returns the fast-path quorum size for a group of n replicas.
//
// The source specification left the N=5 formula ambiguous (see DESIGN.md's
// quorum/ entry). This module fixes F = n - floor((n-1)/2), which yields
// F=2 for n=3, F=3 for n=5 and F=4 for n=7; that choice is pinned down by
// the TestQuorumSizesN* tests and must not be changed without updating them.
func Fast(n int) int {
	return n - (n-1)/2
}

// Validate reports an error if n cannot support the protocol: a replica
// group needs at least 3 members so that Classic(n) < n (a quorum exists
// that does not require every replica to reply).
func Validate(n int) error {
	if n < 3 {
		return fmt.Errorf("quorum: group size %d is too small, need >= 3", n)
	}
	return nil
}
