package sources

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/singerliu226/AI-resipe/internal/fetch"
	"github.com/singerliu226/AI-resipe/internal/normalize"
	"github.com/singerliu226/AI-resipe/internal/types"
)

// DefaultSpreadsheetURL is the 6th edition China food composition table.
const DefaultSpreadsheetURL = "https://raw.githubusercontent.com/foodnutritionfacts/chinese-food-composition/6th/CFCT_6th_2018.xlsx"

// Header aliases per field, tried in order.
var (
	nameAliases    = []string{"食物名称", "食物", "名称"}
	codeAliases    = []string{"编码"}
	energyAliases  = []string{"能量(kcal)", "能量(千卡)"}
	proteinAliases = []string{"蛋白质(g)", "蛋白质"}
	fatAliases     = []string{"脂肪(g)", "脂肪"}
	carbAliases    = []string{"碳水化合物(g)", "碳水化合物"}
	fiberAliases   = []string{"膳食纤维(g)", "不溶性膳食纤维(g)", "粗纤维"}
	calciumAliases = []string{"钙(mg)", "钙"}
	sodiumAliases  = []string{"钠(mg)", "钠"}
)

// Spreadsheet downloads one workbook and maps the rows of its first sheet.
type Spreadsheet struct {
	URL string

	getter fetch.Getter
	logger *slog.Logger
}

// NewSpreadsheet returns the adapter for url, or the default workbook when url is empty.
func NewSpreadsheet(url string, getter fetch.Getter, logger *slog.Logger) *Spreadsheet {
	if url == "" {
		url = DefaultSpreadsheetURL
	}
	return &Spreadsheet{URL: url, getter: getter, logger: orDiscard(logger)}
}

// Name implements Source.
func (s *Spreadsheet) Name() string { return "spreadsheet" }

// Crawl downloads the workbook and reads its first sheet. Row 1 is the header.
func (s *Spreadsheet) Crawl(ctx context.Context) (*types.Batch[types.NutritionRecord], error) {
	s.logger.Info("downloading workbook", "url", s.URL)
	res, err := s.getter.Get(ctx, s.URL, nil)
	if err != nil {
		return nil, &SourceError{Source: s.Name(), Message: "failed to download workbook", Cause: err}
	}

	f, err := excelize.OpenReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, &SourceError{Source: s.Name(), Message: "failed to open workbook", Cause: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Debug("failed to close workbook", "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &SourceError{Source: s.Name(), Message: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &SourceError{Source: s.Name(), Message: "failed to read sheet " + sheets[0], Cause: err}
	}

	batch := &types.Batch[types.NutritionRecord]{}
	if len(rows) == 0 {
		return batch, nil
	}

	h := newHeader(rows[0])
	if !h.has(nameAliases) {
		s.logger.Warn("no name column found; check the sheet headers", "sheet", sheets[0])
	}

	for idx, row := range rows[1:] {
		name, ok := h.lookup(row, nameAliases)
		if !ok {
			continue
		}
		id, ok := h.lookup(row, codeAliases)
		if !ok {
			id = strconv.Itoa(idx + 1)
		}
		batch.Records = append(batch.Records, types.NutritionRecord{
			ID:         id,
			Name:       name,
			EnergyKcal: h.number(row, energyAliases),
			ProteinG:   h.number(row, proteinAliases),
			FatG:       h.number(row, fatAliases),
			CarbG:      h.number(row, carbAliases),
			FiberG:     h.number(row, fiberAliases),
			CalciumMg:  h.number(row, calciumAliases),
			SodiumMg:   h.number(row, sodiumAliases),
		})
	}
	s.logger.Info("workbook parsed", "sheet", sheets[0], "rows", len(rows)-1, "records", len(batch.Records))
	return batch, nil
}

// header maps trimmed header text to its column index.
type header map[string]int

func newHeader(cells []string) header {
	h := make(header, len(cells))
	for i, c := range cells {
		key := strings.TrimSpace(c)
		if _, dup := h[key]; key != "" && !dup {
			h[key] = i
		}
	}
	return h
}

func (h header) has(aliases []string) bool {
	for _, a := range aliases {
		if _, ok := h[a]; ok {
			return true
		}
	}
	return false
}

// lookup returns the first non-empty cell among aliases.
func (h header) lookup(row []string, aliases []string) (string, bool) {
	for _, a := range aliases {
		i, ok := h[a]
		if !ok || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v, true
		}
	}
	return "", false
}

func (h header) number(row []string, aliases []string) *float64 {
	v, ok := h.lookup(row, aliases)
	if !ok {
		return nil
	}
	return normalize.Text(v)
}
