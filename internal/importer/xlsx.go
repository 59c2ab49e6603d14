package importer

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/advisor-cli/internal/model"
)

// interestSep separates interest tags inside a single spreadsheet cell.
const interestSep = ";"

// Client book columns. Headers are matched case-insensitively and spaces
// are treated as underscores, so "Annual Income" maps to annual_income.
const (
	colID         = "id"
	colName       = "name"
	colAge        = "age"
	colIncome     = "annual_income"
	colRisk       = "risk_tolerance"
	colInterests  = "interests"
	colStage      = "lifecycle_stage"
	colConversion = "conversion_probability"
	colPortfolio  = "portfolio_value"
	colContact    = "preferred_contact"
)

var requiredColumns = []string{colID, colAge}

// ReadClientsXLSX reads client profiles from a spreadsheet whose first row
// is a header. Blank rows are skipped. sheet selects a worksheet by name;
// empty means the first one.
func ReadClientsXLSX(path, sheet string) ([]model.ClientProfile, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sh, err := getSheet(f, sheet)
	if err != nil {
		return nil, err
	}
	if len(sh.Rows) == 0 {
		return nil, eris.Errorf("xlsx: sheet %q is empty", sh.Name)
	}

	cols := headerIndex(rowToStrings(sh.Rows[0]))
	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			return nil, eris.Errorf("xlsx: missing required column %q", req)
		}
	}

	var clients []model.ClientProfile
	for i, row := range sh.Rows[1:] {
		cells := rowToStrings(row)
		if isBlank(cells) {
			continue
		}
		c, err := rowToClient(cols, cells)
		if err != nil {
			// Row numbers are 1-based and include the header.
			return nil, eris.Wrapf(err, "xlsx: row %d", i+2)
		}
		clients = append(clients, c)
	}
	return clients, nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: file has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = strings.TrimSpace(cell.String())
	}
	return cells
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func rowToClient(cols map[string]int, cells []string) (model.ClientProfile, error) {
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(cells) {
			return ""
		}
		return cells[i]
	}

	c := model.ClientProfile{
		ID:               get(colID),
		Name:             get(colName),
		RiskTolerance:    model.ParseRiskLevel(get(colRisk)),
		LifecycleStage:   model.ParseLifecycleStage(get(colStage)),
		PreferredContact: model.ParseContactChannel(get(colContact)),
		Interests:        splitInterests(get(colInterests)),
	}

	age, err := parseNumber(get(colAge))
	if err != nil {
		return c, eris.Wrap(err, colAge)
	}
	c.Age = int(age)

	for col, dst := range map[string]*float64{
		colIncome:     &c.AnnualIncome,
		colConversion: &c.ConversionProbability,
		colPortfolio:  &c.PortfolioValue,
	} {
		v, err := parseNumber(get(col))
		if err != nil {
			return c, eris.Wrap(err, col)
		}
		*dst = v
	}
	return c, nil
}

func splitInterests(s string) []string {
	var out []string
	for _, part := range strings.Split(s, interestSep) {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// parseNumber accepts plain numbers plus the currency and percent
// decorations advisors type into spreadsheets. Blank cells are zero.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.NewReplacer("$", "", ",", "", "%", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Errorf("invalid number %q", s)
	}
	return v, nil
}
