package streamimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
)

// File-level error codes.
const (
	CodeHeaderRequired = "IMPORT_HEADER_REQUIRED"
	CodeMissingColumn  = "IMPORT_MISSING_COLUMN"
	CodeMalformedFile  = "IMPORT_MALFORMED_FILE"
)

// column identifies a field of Row independent of the header language.
type column string

const (
	colStreamNumber      column = "streamNumber"
	colProcessorNumber   column = "processorNumber"
	colProcessorKvK      column = "processorKvk"
	colProcessorName     column = "processorName"
	colProcessorAddress  column = "processorAddress"
	colProcessorCity     column = "processorPostalCity"
	colConsignorKvK      column = "consignorKvk"
	colConsignorName     column = "consignorName"
	colConsignorCountry  column = "consignorCountry"
	colOriginStreet      column = "originStreet"
	colOriginNumber      column = "originHouseNumber"
	colOriginAddition    column = "originHouseNumberAddition"
	colOriginPostalCode  column = "originPostalCode"
	colOriginCity        column = "originCity"
	colOriginDescription column = "originDescription"
	colOriginCountry     column = "originCountry"
	colEuralCode         column = "euralCode"
	colEuralDescription  column = "euralDescription"
	colWasteName         column = "wasteName"
	colMethodCode        column = "processingMethodCode"
	colMethodDescription column = "processingMethodDescription"
	colRoute             column = "routeCollection"
	colCollectorsScheme  column = "collectorsScheme"
	colPrivateConsignor  column = "privateConsignor"
)

// aliases lists the accepted header spellings per column, already in
// headerKey form. English names come first, then the registry's Dutch ones.
var aliases = map[column][]string{
	colStreamNumber:      {"streamnumber", "wastestreamnumber", "afvalstroomnummer"},
	colProcessorNumber:   {"processornumber", "processorid", "verwerkersnummer"},
	colProcessorKvK:      {"processorkvk", "processorchamberofcommerce", "kvkverwerker", "verwerkerkvk"},
	colProcessorName:     {"processorname", "naamverwerker", "verwerkernaam"},
	colProcessorAddress:  {"processoraddress", "adresverwerker", "verwerkeradres"},
	colProcessorCity:     {"processorpostalcity", "postcodeplaatsverwerker", "verwerkerpostcodeplaats"},
	colConsignorKvK:      {"consignorkvk", "consignorchamberofcommerce", "kvkontdoener", "ontdoenerkvk"},
	colConsignorName:     {"consignorname", "naamontdoener", "ontdoenernaam"},
	colConsignorCountry:  {"consignorcountry", "landontdoener", "ontdoenerland"},
	colOriginStreet:      {"originstreet", "straatherkomst", "herkomststraat"},
	colOriginNumber:      {"originhousenumber", "originnumber", "huisnummerherkomst", "herkomsthuisnummer"},
	colOriginAddition:    {"originhousenumberaddition", "originaddition", "toevoegingherkomst", "herkomsttoevoeging"},
	colOriginPostalCode:  {"originpostalcode", "postcodeherkomst", "herkomstpostcode"},
	colOriginCity:        {"origincity", "plaatsherkomst", "herkomstplaats"},
	colOriginDescription: {"origindescription", "nabijheidsbeschrijving", "herkomstomschrijving"},
	colOriginCountry:     {"origincountry", "landherkomst", "herkomstland"},
	colEuralCode:         {"euralcode", "euralcodeafval"},
	colEuralDescription:  {"euraldescription", "euralomschrijving", "omschrijvingeuralcode"},
	colWasteName:         {"wastename", "usualname", "gebruikelijkebenaming", "benaming"},
	colMethodCode:        {"processingmethodcode", "methodcode", "verwerkingsmethodecode", "verwerkingsmethode"},
	colMethodDescription: {"processingmethoddescription", "methoddescription", "verwerkingsmethodeomschrijving"},
	colRoute:             {"routecollection", "route", "routeinzameling"},
	colCollectorsScheme:  {"collectorsscheme", "collectorscheme", "inzamelaarsregeling"},
	colPrivateConsignor:  {"privateconsignor", "particuliereontdoener"},
}

var requiredColumns = []column{colStreamNumber, colProcessorKvK, colConsignorKvK, colEuralCode, colMethodCode}

// Row is one data line of a registry export.
// Line is the 1-based line in the file; the header is line 1.
type Row struct {
	Line int

	StreamNumber        string
	ProcessorNumber     string
	ProcessorKvK        string
	ProcessorName       string
	ProcessorAddress    string
	ProcessorPostalCity string

	ConsignorKvK     string
	ConsignorName    string
	ConsignorCountry string

	OriginStreet              string
	OriginHouseNumber         string
	OriginHouseNumberAddition string
	OriginPostalCode          string
	OriginCity                string
	OriginDescription         string
	OriginCountry             string

	EuralCode                   string
	EuralDescription            string
	WasteName                   string
	ProcessingMethodCode        string
	ProcessingMethodDescription string

	RouteCollection  string
	CollectorsScheme string
	PrivateConsignor string
}

// Parse reads a registry export. The first record must be the header.
// Comma and semicolon separators are both accepted.
func Parse(r io.Reader) ([]Row, error) {
	utf8r, err := NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}
	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = separator(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperror.NewBusinessRule(CodeHeaderRequired, "import file needs a header row")
	}
	if err != nil {
		return nil, malformed(err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, cols.row(record, line))
	}
	return rows, nil
}

// columnIndex maps a column to its position in the header.
type columnIndex map[column]int

func mapHeader(header []string) (columnIndex, error) {
	byKey := make(map[string]column)
	for col, names := range aliases {
		for _, name := range names {
			byKey[name] = col
		}
	}

	cols := make(columnIndex)
	for i, cell := range header {
		col, ok := byKey[headerKey(cell)]
		if !ok {
			continue
		}
		if _, dup := cols[col]; !dup {
			cols[col] = i
		}
	}
	if len(cols) == 0 {
		return nil, apperror.NewBusinessRule(CodeHeaderRequired, "import file needs a header row")
	}
	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, apperror.NewBusinessRule(CodeMissingColumn, "import file misses a required column").
				WithDetail("column", string(col))
		}
	}
	return cols, nil
}

func (c columnIndex) row(record []string, line int) Row {
	get := func(col column) string {
		i, ok := c[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	return Row{
		Line:                        line,
		StreamNumber:                get(colStreamNumber),
		ProcessorNumber:             get(colProcessorNumber),
		ProcessorKvK:                get(colProcessorKvK),
		ProcessorName:               get(colProcessorName),
		ProcessorAddress:            get(colProcessorAddress),
		ProcessorPostalCity:         get(colProcessorCity),
		ConsignorKvK:                get(colConsignorKvK),
		ConsignorName:               get(colConsignorName),
		ConsignorCountry:            get(colConsignorCountry),
		OriginStreet:                get(colOriginStreet),
		OriginHouseNumber:           get(colOriginNumber),
		OriginHouseNumberAddition:   get(colOriginAddition),
		OriginPostalCode:            get(colOriginPostalCode),
		OriginCity:                  get(colOriginCity),
		OriginDescription:           get(colOriginDescription),
		OriginCountry:               get(colOriginCountry),
		EuralCode:                   get(colEuralCode),
		EuralDescription:            get(colEuralDescription),
		WasteName:                   get(colWasteName),
		ProcessingMethodCode:        get(colMethodCode),
		ProcessingMethodDescription: get(colMethodDescription),
		RouteCollection:             get(colRoute),
		CollectorsScheme:            get(colCollectorsScheme),
		PrivateConsignor:            get(colPrivateConsignor),
	}
}

// headerKey folds a header cell to lowercase letters and digits.
func headerKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// separator picks ';' when the header line has more semicolons than commas.
func separator(data []byte) rune {
	line := string(data)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func malformed(err error) error {
	appErr := apperror.NewBusinessRule(CodeMalformedFile, "import file is not valid CSV").WithCause(err)
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		appErr.WithDetail("row", parseErr.StartLine)
	}
	return appErr
}

// ParseFlag reads a Y/N column. Dutch J and textual forms are accepted;
// an empty cell is false.
func ParseFlag(s string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "N", "NO", "NEE", "FALSE", "0":
		return false, nil
	case "Y", "YES", "J", "JA", "TRUE", "1":
		return true, nil
	}
	return false, fmt.Errorf("flag must be Y or N, got %q", s)
}
