package testkit

import (
	"context"

	"psycdata/domain/analysis"
	"psycdata/domain/table"

	"github.com/stretchr/testify/mock"
)

// MockBackend is a testify double for ports.Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ListSheets(ctx context.Context, path string) ([]string, error) {
	args := m.Called(ctx, path)
	sheets, _ := args.Get(0).([]string)
	return sheets, args.Error(1)
}

func (m *MockBackend) ParseExcel(ctx context.Context, path, sheet string) (table.Table, error) {
	args := m.Called(ctx, path, sheet)
	return args.Get(0).(table.Table), args.Error(1)
}

func (m *MockBackend) RunDescriptiveStats(ctx context.Context, path, sheet string, variables []string, sort analysis.SortOrder) (table.Table, error) {
	args := m.Called(ctx, path, sheet, variables, sort)
	return args.Get(0).(table.Table), args.Error(1)
}

func (m *MockBackend) RunCorrelation(ctx context.Context, path, sheet string, variables []string) (table.Table, error) {
	args := m.Called(ctx, path, sheet, variables)
	return args.Get(0).(table.Table), args.Error(1)
}

func (m *MockBackend) RunReliability(ctx context.Context, path, sheet string, variables []string, model analysis.Model) (table.Table, error) {
	args := m.Called(ctx, path, sheet, variables, model)
	return args.Get(0).(table.Table), args.Error(1)
}
