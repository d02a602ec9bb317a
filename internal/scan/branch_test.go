package scan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/notebook-audit/internal/scan"
)

const (
	testClonePathConstant  = "/tmp/clones/models"
	testBranchNameConstant = "feature/plots"
)

func TestBranchInspectorInspectBranch(testInstance *testing.T) {
	cleanerFailure := errors.New("nbstripout: invalid notebook")

	testCases := []struct {
		name                 string
		notebooks            []string
		changedFiles         []string
		cleanerFailures      map[string]error
		expectedChangedFiles []string
		expectedErrorFiles   int
		expectedLevel        zapcore.Level
		expectedMessage      string
	}{
		{
			name:            "no_notebooks",
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: "  Checking branch: feature/plots, CLEAN",
		},
		{
			name:            "notebooks_without_output",
			notebooks:       []string{"a.ipynb", "nested/b.ipynb"},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: "  Checking branch: feature/plots, CLEAN",
		},
		{
			name:                 "notebooks_with_output",
			notebooks:            []string{"a.ipynb", "nested/b.ipynb"},
			changedFiles:         []string{"nested/b.ipynb"},
			expectedChangedFiles: []string{"nested/b.ipynb"},
			expectedLevel:        zapcore.WarnLevel,
			expectedMessage:      "  Checking branch: feature/plots, DIRTY. Repo: acme/models. Files that contain output:",
		},
		{
			name:               "failed_notebook_excluded_from_diff",
			notebooks:          []string{"a.ipynb", "broken.ipynb"},
			changedFiles:       []string{"broken.ipynb"},
			cleanerFailures:    map[string]error{"broken.ipynb": cleanerFailure},
			expectedErrorFiles: 1,
			expectedLevel:      zapcore.InfoLevel,
			expectedMessage:    "  Checking branch: feature/plots, CLEAN",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager := &stubRepositoryManager{changedFiles: map[string][]string{testBranchNameConstant: testCase.changedFiles}}
			cleaner := &stubNotebookCleaner{failures: testCase.cleanerFailures}
			observedCore, observedLogs := observer.New(zapcore.DebugLevel)

			inspector, creationError := scan.NewBranchInspector(manager, stubNotebookDiscoverer{relativePaths: testCase.notebooks}, cleaner, zap.New(observedCore))
			require.NoError(testInstance, creationError)

			result, inspectionError := inspector.InspectBranch(context.Background(), testRepositoryFullNameConstant, testClonePathConstant, testBranchNameConstant)
			require.NoError(testInstance, inspectionError)

			require.Equal(testInstance, testBranchNameConstant, result.BranchName)
			require.Equal(testInstance, testCase.expectedChangedFiles, result.ChangedFiles)
			require.Equal(testInstance, testCase.expectedErrorFiles, result.ErrorFiles)
			require.Len(testInstance, cleaner.cleanedPaths, len(testCase.notebooks))
			require.Equal(testInstance, []string{testBranchNameConstant}, manager.switchedBranches)
			require.Equal(testInstance, 1, manager.resetCount)

			matchingEntries := observedLogs.FilterMessage(testCase.expectedMessage).All()
			require.Len(testInstance, matchingEntries, 1)
			require.Equal(testInstance, testCase.expectedLevel, matchingEntries[0].Level)
		})
	}
}

func TestBranchInspectorLogsDirtyFilesAndCleanerErrors(testInstance *testing.T) {
	manager := &stubRepositoryManager{changedFiles: map[string][]string{testBranchNameConstant: {"a.ipynb"}}}
	cleaner := &stubNotebookCleaner{failures: map[string]error{"broken.ipynb": errors.New("bad json")}}
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)

	inspector, creationError := scan.NewBranchInspector(manager, stubNotebookDiscoverer{relativePaths: []string{"a.ipynb", "broken.ipynb"}}, cleaner, zap.New(observedCore))
	require.NoError(testInstance, creationError)

	_, inspectionError := inspector.InspectBranch(context.Background(), testRepositoryFullNameConstant, testClonePathConstant, testBranchNameConstant)
	require.NoError(testInstance, inspectionError)

	require.Len(testInstance, observedLogs.FilterMessage("      a.ipynb").FilterLevelExact(zapcore.WarnLevel).All(), 1)
	require.Len(testInstance, observedLogs.FilterMessage("ERROR from notebook cleaner on broken.ipynb").FilterLevelExact(zapcore.WarnLevel).All(), 1)
}

func TestBranchInspectorResetsAfterFailures(testInstance *testing.T) {
	diffFailure := errors.New("diff failed")
	resetFailure := errors.New("reset failed")

	testCases := []struct {
		name               string
		diffError          error
		resetError         error
		expectedError      error
		expectedResetCount int
	}{
		{name: "diff_failure_still_resets", diffError: diffFailure, expectedError: diffFailure, expectedResetCount: 1},
		{name: "reset_failure_reported", resetError: resetFailure, expectedError: resetFailure, expectedResetCount: 1},
		{name: "diff_failure_wins_over_reset_failure", diffError: diffFailure, resetError: resetFailure, expectedError: diffFailure, expectedResetCount: 1},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager := &stubRepositoryManager{diffError: testCase.diffError, resetError: testCase.resetError}
			inspector, creationError := scan.NewBranchInspector(manager, stubNotebookDiscoverer{relativePaths: []string{"a.ipynb"}}, &stubNotebookCleaner{}, zap.NewNop())
			require.NoError(testInstance, creationError)

			_, inspectionError := inspector.InspectBranch(context.Background(), testRepositoryFullNameConstant, testClonePathConstant, testBranchNameConstant)
			require.ErrorIs(testInstance, inspectionError, testCase.expectedError)
			require.Equal(testInstance, testCase.expectedResetCount, manager.resetCount)
		})
	}
}

func TestBranchInspectorSwitchFailureSkipsReset(testInstance *testing.T) {
	switchFailure := errors.New("unknown branch")
	manager := &stubRepositoryManager{switchErrors: map[string]error{testBranchNameConstant: switchFailure}}
	cleaner := &stubNotebookCleaner{}

	inspector, creationError := scan.NewBranchInspector(manager, stubNotebookDiscoverer{relativePaths: []string{"a.ipynb"}}, cleaner, zap.NewNop())
	require.NoError(testInstance, creationError)

	_, inspectionError := inspector.InspectBranch(context.Background(), testRepositoryFullNameConstant, testClonePathConstant, testBranchNameConstant)
	require.ErrorIs(testInstance, inspectionError, switchFailure)
	require.Zero(testInstance, manager.resetCount)
	require.Empty(testInstance, cleaner.cleanedPaths)
}

func TestBranchInspectorStopsOnCancellation(testInstance *testing.T) {
	executionContext, cancel := context.WithCancel(context.Background())
	cancel()

	manager := &stubRepositoryManager{}
	cleaner := &stubNotebookCleaner{failures: map[string]error{"a.ipynb": context.Canceled}}
	inspector, creationError := scan.NewBranchInspector(manager, stubNotebookDiscoverer{relativePaths: []string{"a.ipynb", "b.ipynb"}}, cleaner, zap.NewNop())
	require.NoError(testInstance, creationError)

	_, inspectionError := inspector.InspectBranch(executionContext, testRepositoryFullNameConstant, testClonePathConstant, testBranchNameConstant)
	require.ErrorIs(testInstance, inspectionError, context.Canceled)
	require.Len(testInstance, cleaner.cleanedPaths, 1)
	require.Equal(testInstance, 1, manager.resetCount)
}

func TestNewBranchInspectorRequiresDependencies(testInstance *testing.T) {
	inspector, creationError := scan.NewBranchInspector(nil, stubNotebookDiscoverer{}, &stubNotebookCleaner{}, zap.NewNop())
	require.Nil(testInstance, inspector)
	require.ErrorIs(testInstance, creationError, scan.ErrBranchInspectorDependencies)
}
