package discovery

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loadMarketCaps reads the market-cap asset CSV into a scrip→cap map. The
// file joins on the instrument id column. An empty path disables the
// market-cap filter (every scrip passes).
func loadMarketCaps(path string) (map[string]float64, error) {
	if strings.TrimSpace(path) == "" {
		return map[string]float64{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market-cap csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read market-cap csv: %w", err)
	}
	if len(rows) == 0 {
		return map[string]float64{}, nil
	}

	idCol, capCol := -1, -1
	for i, name := range rows[0] {
		switch strings.TrimSpace(name) {
		case "FinInstrmId":
			idCol = i
		case "Market Cap":
			capCol = i
		}
	}
	if idCol < 0 || capCol < 0 {
		return nil, fmt.Errorf("market-cap csv missing FinInstrmId / Market Cap columns")
	}

	caps := make(map[string]float64, len(rows)-1)
	for _, row := range rows[1:] {
		if idCol >= len(row) || capCol >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idCol])
		v, err := strconv.ParseFloat(strings.ReplaceAll(row[capCol], ",", ""), 64)
		if err != nil || id == "" {
			continue
		}
		// instrument ids sometimes carry a trailing ".0" from spreadsheet exports
		caps[strings.TrimSuffix(id, ".0")] = v
	}
	return caps, nil
}
