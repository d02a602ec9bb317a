package notebooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

const (
	cellsKeyConstant          = "cells"
	worksheetsKeyConstant     = "worksheets"
	cellTypeKeyConstant       = "cell_type"
	codeCellTypeConstant      = "code"
	outputsKeyConstant        = "outputs"
	executionCountKeyConstant = "execution_count"
	promptNumberKeyConstant   = "prompt_number"
	metadataKeyConstant       = "metadata"
	notebookIndentConstant    = " "

	readNotebookTemplateConstant   = "read notebook %s: %w"
	decodeNotebookTemplateConstant = "decode notebook %s: %w"
	encodeNotebookTemplateConstant = "encode notebook %s: %w"
	writeNotebookTemplateConstant  = "write notebook %s: %w"
	missingCellsTemplateConstant   = "decode notebook %s: cells list missing"
)

// executionMetadataKeys are code cell metadata entries written by executing a cell.
var executionMetadataKeys = []string{"collapsed", "scrolled", "ExecuteTime", "execution"}

// BuiltinCleaner clears code cell outputs, execution counters and execution
// metadata without shelling out. Both the nbformat 4 cells list and the
// nbformat 3 worksheets layout are handled. Notebooks without anything to
// strip are left byte-for-byte untouched.
type BuiltinCleaner struct{}

// NewBuiltinCleaner constructs a BuiltinCleaner.
func NewBuiltinCleaner() *BuiltinCleaner {
	return &BuiltinCleaner{}
}

// Clean rewrites notebookPath when any code cell carries outputs, an execution count or execution metadata.
func (cleaner *BuiltinCleaner) Clean(executionContext context.Context, notebookPath string) error {
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}

	fileInfo, statError := os.Stat(notebookPath)
	if statError != nil {
		return fmt.Errorf(readNotebookTemplateConstant, notebookPath, statError)
	}

	contents, readError := os.ReadFile(notebookPath)
	if readError != nil {
		return fmt.Errorf(readNotebookTemplateConstant, notebookPath, readError)
	}

	decoder := json.NewDecoder(bytes.NewReader(contents))
	decoder.UseNumber()

	var document map[string]any
	if decodeError := decoder.Decode(&document); decodeError != nil {
		return fmt.Errorf(decodeNotebookTemplateConstant, notebookPath, decodeError)
	}

	cellLists, cellsPresent := notebookCellLists(document)
	if !cellsPresent {
		return fmt.Errorf(missingCellsTemplateConstant, notebookPath)
	}

	modified := false
	for _, cells := range cellLists {
		if stripCells(cells) {
			modified = true
		}
	}
	if !modified {
		return nil
	}

	var encoded bytes.Buffer
	encoder := json.NewEncoder(&encoded)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", notebookIndentConstant)
	if encodeError := encoder.Encode(document); encodeError != nil {
		return fmt.Errorf(encodeNotebookTemplateConstant, notebookPath, encodeError)
	}

	if writeError := os.WriteFile(notebookPath, encoded.Bytes(), fileInfo.Mode().Perm()); writeError != nil {
		return fmt.Errorf(writeNotebookTemplateConstant, notebookPath, writeError)
	}
	return nil
}

// notebookCellLists returns the top-level cells of an nbformat 4 notebook or
// the cells of every nbformat 3 worksheet.
func notebookCellLists(document map[string]any) ([][]any, bool) {
	if cells, cellsPresent := document[cellsKeyConstant].([]any); cellsPresent {
		return [][]any{cells}, true
	}

	worksheets, worksheetsPresent := document[worksheetsKeyConstant].([]any)
	if !worksheetsPresent {
		return nil, false
	}

	cellLists := make([][]any, 0, len(worksheets))
	for _, rawWorksheet := range worksheets {
		worksheet, isObject := rawWorksheet.(map[string]any)
		if !isObject {
			return nil, false
		}
		cells, cellsPresent := worksheet[cellsKeyConstant].([]any)
		if !cellsPresent {
			return nil, false
		}
		cellLists = append(cellLists, cells)
	}
	return cellLists, true
}

// stripCells clears outputs, execution counts and execution metadata in place
// and reports whether anything changed.
func stripCells(cells []any) bool {
	modified := false
	for _, rawCell := range cells {
		cell, isObject := rawCell.(map[string]any)
		if !isObject || cell[cellTypeKeyConstant] != codeCellTypeConstant {
			continue
		}

		if outputs, hasOutputs := cell[outputsKeyConstant].([]any); hasOutputs && len(outputs) > 0 {
			cell[outputsKeyConstant] = []any{}
			modified = true
		}

		for _, counterKey := range []string{executionCountKeyConstant, promptNumberKeyConstant} {
			if counter, hasCounter := cell[counterKey]; hasCounter && counter != nil {
				cell[counterKey] = nil
				modified = true
			}
		}

		if metadata, hasMetadata := cell[metadataKeyConstant].(map[string]any); hasMetadata {
			for _, metadataKey := range executionMetadataKeys {
				if _, present := metadata[metadataKey]; present {
					delete(metadata, metadataKey)
					modified = true
				}
			}
		}
	}
	return modified
}
