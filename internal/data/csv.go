package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// LoadCSV loads a dataset from a CSV file. targetCols lists the column
// indices used as targets; all other columns become features, in file
// order. hasHeader skips the first line.
func LoadCSV(filename string, targetCols []int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, fmt.Errorf("csv file has no data rows")
	}

	isTarget := make(map[int]bool, len(targetCols))
	for _, col := range targetCols {
		isTarget[col] = true
	}

	numCols := len(records[startRow])
	inputs := make([][]float64, 0, len(records)-startRow)
	targets := make([][]float64, 0, len(records)-startRow)

	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i)
		}

		features := make([]float64, 0, numCols-len(targetCols))
		byCol := make(map[int]float64, len(targetCols))
		for j, s := range record {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			if isTarget[j] {
				byCol[j] = v
			} else {
				features = append(features, v)
			}
		}

		// Targets keep the order given in targetCols.
		target := make([]float64, 0, len(targetCols))
		for _, col := range targetCols {
			target = append(target, byCol[col])
		}

		inputs = append(inputs, features)
		targets = append(targets, target)
	}

	return &Dataset{Inputs: inputs, Targets: targets}, nil
}

// Standardize shifts and scales every feature column to zero mean and
// unit variance, in place. Constant columns are zeroed.
func (d *Dataset) Standardize() {
	if d.Len() == 0 {
		return
	}

	numFeatures := len(d.Inputs[0])
	column := make([]float64, d.Len())

	for j := 0; j < numFeatures; j++ {
		for i, row := range d.Inputs {
			column[i] = row[j]
		}
		mean, std := stat.MeanStdDev(column, nil)

		for _, row := range d.Inputs {
			if std == 0 {
				row[j] = 0
			} else {
				row[j] = (row[j] - mean) / std
			}
		}
	}
}
