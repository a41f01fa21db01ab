package ingestion

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"

	"github.com/Corner324/spimexpulse/internal/domain/models"
	"github.com/Corner324/spimexpulse/internal/logger"
)

// Bulletin layout constants. SPIMEX oil bulletins are fixed format: six
// preamble rows, the header at row index 6, a filler row, then data from
// row index 8 until the trailing summary block.
const (
	headerRowIndex = 6
	dataStartIndex = 8
)

// instrumentCodeHeader is the cleaned header of the instrument-code column;
// its reappearance (or any cell starting with its leading token) marks the
// start of the trailing summary block.
const (
	instrumentCodeHeader = "Код Инструмента"
	headerLeadingToken   = "Код"
)

// summaryMarker excludes aggregate rows by instrument-code content.
const summaryMarker = "итог"

// requiredColumns maps the cleaned Russian bulletin headers to their roles.
var requiredColumns = []string{
	"Код Инструмента",
	"Наименование Инструмента",
	"Базис поставки",
	"Объем Договоров в единицах измерения",
	"Обьем Договоров, руб.",
	"Количество Договоров, шт.",
}

// readWorkbook loads the first sheet of a spreadsheet as a cell grid.
// Indirection so parser tests can feed grids without crafting .xls binaries.
var readWorkbook = readXLSWorkbook

// readXLSWorkbook reads a legacy .xls file via extrame/xls.
func readXLSWorkbook(path string) ([][]string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, err
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}

	grid := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// ParseBulletin converts one downloaded bulletin into validated trading
// result rows for the given trade date.
//
// Behavior:
//   - Non-.xls paths and unreadable workbooks yield an empty slice.
//   - Files with no header row (6 rows or fewer) are malformed: logged, empty.
//   - Missing required columns: logged, empty.
//   - Numeric cells holding "-" or any unparseable value coerce to 0.
//   - Rows with contract count <= 0 and summary rows are dropped.
//   - Every surviving row is stamped with tradeDate and one shared ingestion
//     instant, then built through the validating constructor; a single
//     row-schema failure marks the whole file corrupt (logged, empty).
//
// Result order is the source row order minus dropped rows.
func ParseBulletin(path string, tradeDate time.Time) []models.TradingResult {
	started := time.Now()

	if strings.ToLower(filepath.Ext(path)) != ".xls" {
		logger.L().Error().Str("path", path).Msg("bulletin does not have the .xls extension")
		return nil
	}

	grid, err := readWorkbook(path)
	if err != nil {
		logger.L().Error().Str("path", path).Err(err).Msg("could not open bulletin as a workbook")
		return nil
	}

	if len(grid) <= headerRowIndex {
		logger.L().Error().Str("path", path).Int("rows", len(grid)).Msg("bulletin too short, header row missing")
		return nil
	}

	columns, missing := locateColumns(grid[headerRowIndex])
	if len(missing) > 0 {
		logger.L().Error().Str("path", path).Strs("missing", missing).Msg("bulletin is missing required columns")
		return nil
	}

	ingestedAt := time.Now()
	var results []models.TradingResult

	for i := dataStartIndex; i < len(grid); i++ {
		row := grid[i]

		code := strings.TrimSpace(cellAt(row, columns["Код Инструмента"]))
		if code == "" || code == instrumentCodeHeader || strings.HasPrefix(code, headerLeadingToken) {
			// Start of the trailing summary/footer block.
			break
		}

		count := int64(parseNumericCell(cellAt(row, columns["Количество Договоров, шт."])))
		if count <= 0 {
			continue
		}
		if strings.Contains(strings.ToLower(code), summaryMarker) {
			continue
		}

		result, err := models.NewTradingResult(
			code,
			strings.TrimSpace(cellAt(row, columns["Наименование Инструмента"])),
			strings.TrimSpace(cellAt(row, columns["Базис поставки"])),
			parseNumericCell(cellAt(row, columns["Объем Договоров в единицах измерения"])),
			parseNumericCell(cellAt(row, columns["Обьем Договоров, руб."])),
			count,
			tradeDate,
			ingestedAt,
		)
		if err != nil {
			// Structure is suspect; discard the whole file rather than salvage rows.
			logger.L().Error().Str("path", path).Int("row", i+1).Err(err).Msg("row failed schema validation, dropping file")
			return nil
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		logger.L().Warn().Str("path", path).Msg("no data rows in bulletin")
		return nil
	}

	logger.L().Info().
		Str("path", path).
		Int("rows", len(results)).
		Dur("elapsed", time.Since(started)).
		Msg("bulletin parsed")
	return results
}

// locateColumns cleans the header row and resolves the absolute cell index of
// every required column. Header cells may contain embedded newlines and
// padding; the first cell of the row is a layout artifact and is skipped,
// matching the bulletin's fixed format.
func locateColumns(header []string) (map[string]int, []string) {
	columns := make(map[string]int, len(requiredColumns))
	for idx := 1; idx < len(header); idx++ {
		clean := strings.TrimSpace(strings.ReplaceAll(header[idx], "\n", " "))
		if _, taken := columns[clean]; clean != "" && !taken {
			columns[clean] = idx
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	return columns, missing
}

// cellAt returns the cell at idx or "" when the row is shorter.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseNumericCell coerces a bulletin numeric cell to a float. The literal
// "-" placeholder and anything unparseable (including empty cells) become 0;
// bad numeric content is never an error at this layer.
func parseNumericCell(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
