// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storagemock is a mockgen-style mock of storage.Adapter, in the
// shape go.uber.org/mock/mockgen produces (see the teacher's
// validatorsmock/sendermock packages) — hand-maintained here since this
// module has no generate step to invoke.
package storagemock

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/luxfi/epaxos/storage"
)

// MockAdapter is a mock of the storage.Adapter interface.
type MockAdapter struct {
	ctrl     *gomock.Controller
	recorder *MockAdapterMockRecorder
}

// MockAdapterMockRecorder is the mock recorder for MockAdapter.
type MockAdapterMockRecorder struct {
	mock *MockAdapter
}

// NewMockAdapter creates a new mock instance.
func NewMockAdapter(ctrl *gomock.Controller) *MockAdapter {
	mock := &MockAdapter{ctrl: ctrl}
	mock.recorder = &MockAdapterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAdapter) EXPECT() *MockAdapterMockRecorder {
	return m.recorder
}

func (m *MockAdapter) Set(cf string, key, value []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Set", cf, key, value)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockAdapterMockRecorder) Set(cf, key, value interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Set", reflect.TypeOf((*MockAdapter)(nil).Set), cf, key, value)
}

func (m *MockAdapter) Get(cf string, key []byte) ([]byte, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", cf, key)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockAdapterMockRecorder) Get(cf, key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockAdapter)(nil).Get), cf, key)
}

func (m *MockAdapter) Delete(cf string, key []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", cf, key)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockAdapterMockRecorder) Delete(cf, key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockAdapter)(nil).Delete), cf, key)
}

func (m *MockAdapter) Next(cf string, key []byte, inclusive bool) ([]byte, []byte, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Next", cf, key, inclusive)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].([]byte)
	ret2, _ := ret[2].(bool)
	ret3, _ := ret[3].(error)
	return ret0, ret1, ret2, ret3
}

func (mr *MockAdapterMockRecorder) Next(cf, key, inclusive interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Next", reflect.TypeOf((*MockAdapter)(nil).Next), cf, key, inclusive)
}

func (m *MockAdapter) Prev(cf string, key []byte, inclusive bool) ([]byte, []byte, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Prev", cf, key, inclusive)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].([]byte)
	ret2, _ := ret[2].(bool)
	ret3, _ := ret[3].(error)
	return ret0, ret1, ret2, ret3
}

func (mr *MockAdapterMockRecorder) Prev(cf, key, inclusive interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Prev", reflect.TypeOf((*MockAdapter)(nil).Prev), cf, key, inclusive)
}

func (m *MockAdapter) WriteBatch(entries []storage.BatchEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WriteBatch", entries)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockAdapterMockRecorder) WriteBatch(entries interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WriteBatch", reflect.TypeOf((*MockAdapter)(nil).WriteBatch), entries)
}

func (m *MockAdapter) Close() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Close")
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockAdapterMockRecorder) Close() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", reflect.TypeOf((*MockAdapter)(nil).Close))
}

var _ storage.Adapter = (*MockAdapter)(nil)
