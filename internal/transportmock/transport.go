// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transportmock is a mockgen-style mock of transport.Bus, in the
// same hand-maintained shape as internal/storagemock.
package transportmock

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/luxfi/epaxos/transport"
	"github.com/luxfi/epaxos/types"
	"github.com/luxfi/epaxos/wire"
)

// MockBus is a mock of the transport.Bus interface.
type MockBus struct {
	ctrl     *gomock.Controller
	recorder *MockBusMockRecorder
}

// MockBusMockRecorder is the mock recorder for MockBus.
type MockBusMockRecorder struct {
	mock *MockBus
}

// NewMockBus creates a new mock instance.
func NewMockBus(ctrl *gomock.Controller) *MockBus {
	mock := &MockBus{ctrl: ctrl}
	mock.recorder = &MockBusMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBus) EXPECT() *MockBusMockRecorder {
	return m.recorder
}

func (m *MockBus) Replicate(ctx context.Context, to types.ReplicaId, req wire.Message) (wire.Message, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Replicate", ctx, to, req)
	ret0, _ := ret[0].(wire.Message)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockBusMockRecorder) Replicate(ctx, to, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Replicate", reflect.TypeOf((*MockBus)(nil).Replicate), ctx, to, req)
}

var _ transport.Bus = (*MockBus)(nil)
