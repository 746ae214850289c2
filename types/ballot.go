// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "fmt"

// BallotNum arbitrates between concurrent proposers. It is ordered
// lexicographically (Epoch, Num, ReplicaId); the trailing ReplicaId breaks
// ties between two replicas racing at the same (Epoch, Num).
type BallotNum struct {
	Epoch     uint32
	Num       uint32
	ReplicaId ReplicaId
}

// ZeroBallot is the sentinel "no ballot written yet" value; it compares
// less than any ballot a leader or recovering replica would ever issue.
var ZeroBallot = BallotNum{}

// Less reports whether b sorts strictly before other.
func (b BallotNum) Less(other BallotNum) bool {
	if b.Epoch != other.Epoch {
		return b.Epoch < other.Epoch
	}
	if b.Num != other.Num {
		return b.Num < other.Num
	}
	return b.ReplicaId < other.ReplicaId
}

// LessEqual reports whether b sorts before or equal to other.
func (b BallotNum) LessEqual(other BallotNum) bool {
	return b == other || b.Less(other)
}

// Next returns the smallest ballot strictly greater than b that this
// replica is entitled to issue, i.e. the next Num in the same epoch.
func (b BallotNum) Next(self ReplicaId) BallotNum {
	return BallotNum{Epoch: b.Epoch, Num: b.Num + 1, ReplicaId: self}
}

func (b BallotNum) String() string {
	return fmt.Sprintf("(%d,%d,%d)", b.Epoch, b.Num, b.ReplicaId)
}

// InitialBallot is the ballot a leader uses the first time it proposes an
// instance under its own ReplicaId.
func InitialBallot(self ReplicaId) BallotNum {
	return BallotNum{Epoch: 0, Num: 0, ReplicaId: self}
}
