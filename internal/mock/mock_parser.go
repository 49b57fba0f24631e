// Package mock provides mock implementations for testing.
package mock

import (
	"github.com/stretchr/testify/mock"

	"github.com/classmeta/internal/classfile"
)

// MockParser is a mock implementation of the resource.ClassParser interface.
type MockParser struct {
	mock.Mock
}

// Parse mocks the Parse method.
func (m *MockParser) Parse(value []byte) (*classfile.ClassInfo, error) {
	args := m.Called(value)
	if fn, ok := args.Get(0).(func([]byte) (*classfile.ClassInfo, error)); ok {
		return fn(value)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*classfile.ClassInfo), args.Error(1)
}

// ExpectParse sets up an expectation for Parse of exactly value.
func (m *MockParser) ExpectParse(value []byte, result *classfile.ClassInfo, err error) *mock.Call {
	return m.On("Parse", value).Return(result, err)
}

// ExpectAnyParse sets up an expectation for any Parse call.
func (m *MockParser) ExpectAnyParse(result *classfile.ClassInfo, err error) *mock.Call {
	return m.On("Parse", mock.Anything).Return(result, err)
}

// PassThrough makes every Parse call delegate to p.
func (m *MockParser) PassThrough(p *classfile.Parser) *mock.Call {
	return m.On("Parse", mock.Anything).Return(p.Parse, nil)
}
