// Package taxonomy maps IAB intent category codes to category names.
// The table ships with the binary so lookups never touch the network.
package taxonomy

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"strconv"
	"sync"
)

//go:embed iab_categories.csv
var taxonomyCSV []byte

var (
	loadOnce       sync.Once
	codeToCategory map[int]string
	categoryToCode map[string]int
)

func load() {
	loadOnce.Do(func() {
		codeToCategory = make(map[int]string)
		categoryToCode = make(map[string]int)

		reader := csv.NewReader(bytes.NewReader(taxonomyCSV))
		records, err := reader.ReadAll()
		if err != nil {
			// The table is compiled in; a parse failure is a build defect.
			panic("taxonomy: malformed iab_categories.csv: " + err.Error())
		}

		for i, record := range records {
			if i == 0 || len(record) < 2 {
				continue
			}

			code, err := strconv.Atoi(record[0])
			if err != nil {
				continue
			}

			codeToCategory[code] = record[1]
			categoryToCode[record[1]] = code
		}
	})
}

// CodeToCategory returns the category name for a given code. Codes that are
// not numeric, or numeric codes with no mapping, are echoed back unchanged.
func CodeToCategory(code string) string {
	load()

	n, err := strconv.Atoi(code)
	if err != nil {
		return code
	}

	if name, ok := codeToCategory[n]; ok {
		return name
	}

	return code
}

// CategoryToCode returns the code for a given category name. The second
// return value reports whether the category is known.
func CategoryToCode(category string) (int, bool) {
	load()

	code, ok := categoryToCode[category]
	return code, ok
}
