// =============================================================================
// Merchant Feed Ingest - Configuration Module
// =============================================================================
//
// This module loads the main application configuration and the per-merchant
// configurations.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): directories, logging, output naming and
//      canonical schema overrides
//   2. Merchant Configs (merchants/*.yaml): one file per merchant with the
//      column-name mapping table, CSV settings and static fields
//
// ENVIRONMENT:
//   The .env file named by --env-file is loaded before the main config.
//   FEEDINGEST_* variables override the matching main config values.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/validation"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/xlsxparser"
	"gopkg.in/yaml.v3"
)

// ErrMerchantNotFound is returned when no merchant configuration matches.
var ErrMerchantNotFound = errors.New("merchant configuration not found")

// DisabledField disables an optional canonical field setting.
const DisabledField = "-"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// InputDir is where merchant feeds are dropped.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the clean datasets and error reports.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives processed feeds when ArchiveOnSuccess is set.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// MerchantsDir contains one YAML file per merchant.
	// Default: "./merchants"
	MerchantsDir string `yaml:"merchants_dir"`

	// TemplatesDir contains XLSX mapping templates referenced by merchants.
	// Default: "./templates"
	TemplatesDir string `yaml:"templates_dir"`

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// CleanFileFormat names the clean dataset. Placeholders:
	//   {merchant}  - merchant ID
	//   {original}  - feed file name without extension
	//   {timestamp} - run timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - run date (YYYYMMDD)
	//   {uuid}      - random UUID
	// Default: "{merchant}_{original}_db_ready.csv"
	CleanFileFormat string `yaml:"clean_file_format"`

	// ErrorReportFormat names the error report. Same placeholders.
	// Default: "{merchant}_{original}_errors.txt"
	ErrorReportFormat string `yaml:"error_report_format"`

	// ArchiveOnSuccess moves the feed to InputArchiveDir after a run that
	// produced no fatal error.
	ArchiveOnSuccess bool `yaml:"archive_on_success"`

	// CanonicalSchema adds or retypes canonical fields. Keys are canonical
	// field names, values are field type names ("string", "decimal", ...).
	CanonicalSchema map[string]string `yaml:"canonical_schema"`
}

// =============================================================================
// MERCHANT CONFIGURATION STRUCTURE
// =============================================================================

// MerchantConfig holds the configuration for one merchant.
type MerchantConfig struct {
	// MerchantID is the merchant identifier. Required and unique.
	MerchantID int64 `yaml:"merchant_id"`

	// MerchantName is used in logs.
	MerchantName string `yaml:"merchant_name"`

	// FileMatchingPatterns are glob patterns matched against feed file names
	// when the merchant is not given explicitly.
	// Example: "276_*.csv"
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// CSVSettings controls how the merchant's CSV feeds are read.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// ColumnMapping maps the merchant's column names to canonical names.
	ColumnMapping map[string]string `yaml:"column_mapping"`

	// MappingTemplate is an optional XLSX file in TemplatesDir holding more
	// mapping rows. Entries in ColumnMapping take precedence.
	MappingTemplate string `yaml:"mapping_template"`

	// MerchantIDField is the canonical field the merchant ID is injected into.
	// Set to "-" to disable injection.
	// Default: "multiply_merchant_id"
	MerchantIDField string `yaml:"merchant_id_field"`

	// StaticFields are canonical fields with a constant raw value added to
	// every row.
	StaticFields []StaticField `yaml:"static_fields"`

	// source is the file the configuration was loaded from.
	source string
}

// CSVSettings contains settings for parsing CSV feeds.
type CSVSettings struct {
	// Delimiter separates fields. Accepts a single character or one of
	// "comma", "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is the feed's character encoding (any WHATWG label, e.g.
	// "utf-8", "windows-1252", "iso-8859-1").
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`

	// LazyQuotes tolerates bare quotes inside unquoted fields.
	LazyQuotes bool `yaml:"lazy_quotes"`
}

// Comma resolves the configured delimiter to the rune the CSV reader splits on.
func (s CSVSettings) Comma() (rune, error) {
	return ParseDelimiter(s.Delimiter)
}

// ParseDelimiter resolves a delimiter name or single character. An empty name
// is a comma. Anything else must be exactly one character that can separate
// CSV fields.
func ParseDelimiter(name string) (rune, error) {
	switch strings.ToLower(name) {
	case "", ",", "comma":
		return ',', nil
	case "\\t", "\t", "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	}

	if utf8.RuneCountInString(name) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character or one of comma, tab, pipe, semicolon", name)
	}

	r, _ := utf8.DecodeRuneInString(name)
	switch r {
	case '"', '\r', '\n', utf8.RuneError:
		return 0, fmt.Errorf("delimiter %q cannot separate CSV fields", name)
	}
	return r, nil
}

// StaticField is a canonical field with a constant raw value.
type StaticField struct {
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

// Source returns the path the configuration was loaded from.
func (m *MerchantConfig) Source() string {
	return m.source
}

// Statics returns the static fields including the injected merchant ID.
// Injection is skipped when MerchantIDField is empty or disabled.
func (m *MerchantConfig) Statics() []StaticField {
	statics := make([]StaticField, 0, len(m.StaticFields)+1)
	if m.MerchantIDField != "" && m.MerchantIDField != DisabledField {
		statics = append(statics, StaticField{
			Field: m.MerchantIDField,
			Value: strconv.FormatInt(m.MerchantID, 10),
		})
	}
	return append(statics, m.StaticFields...)
}

// ResolveMapping builds the merchant's column mapping table from the optional
// XLSX template and the inline column_mapping entries.
func (m *MerchantConfig) ResolveMapping(templatesDir string) (types.ColumnMapping, error) {
	mapping := make(types.ColumnMapping)

	if m.MappingTemplate != "" {
		path := m.MappingTemplate
		if !filepath.IsAbs(path) {
			path = filepath.Join(templatesDir, path)
		}
		fromTemplate, err := xlsxparser.ParseMapping(path)
		if err != nil {
			return nil, fmt.Errorf("merchant %d mapping template: %w", m.MerchantID, err)
		}
		for source, canonical := range fromTemplate {
			mapping[source] = canonical
		}
	}

	for source, canonical := range m.ColumnMapping {
		mapping[source] = canonical
	}

	if len(mapping) == 0 {
		return nil, fmt.Errorf("merchant %d has an empty column mapping", m.MerchantID)
	}

	return mapping, nil
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file, applies
// defaults and environment overrides, and validates the result.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)
	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Schema returns the default canonical schema with the configured overrides.
func (c *MainConfig) Schema() (validation.Schema, error) {
	return validation.DefaultSchema().WithOverrides(c.CanonicalSchema)
}

// envOverrides binds FEEDINGEST_* variables to main config fields.
var envOverrides = map[string]func(*MainConfig) *string{
	"FEEDINGEST_INPUT_DIR":         func(c *MainConfig) *string { return &c.InputDir },
	"FEEDINGEST_OUTPUT_DIR":        func(c *MainConfig) *string { return &c.OutputDir },
	"FEEDINGEST_INPUT_ARCHIVE_DIR": func(c *MainConfig) *string { return &c.InputArchiveDir },
	"FEEDINGEST_MERCHANTS_DIR":     func(c *MainConfig) *string { return &c.MerchantsDir },
	"FEEDINGEST_TEMPLATES_DIR":     func(c *MainConfig) *string { return &c.TemplatesDir },
	"FEEDINGEST_LOG_LEVEL":         func(c *MainConfig) *string { return &c.LogLevel },
	"FEEDINGEST_LOG_FORMAT":        func(c *MainConfig) *string { return &c.LogFormat },
}

// applyEnvOverrides replaces config values with non-empty environment values.
func applyEnvOverrides(config *MainConfig) {
	for name, field := range envOverrides {
		if value := os.Getenv(name); value != "" {
			*field(config) = value
		}
	}
}

// applyMainConfigDefaults sets default values for any unset options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.MerchantsDir == "" {
		config.MerchantsDir = "./merchants"
	}
	if config.TemplatesDir == "" {
		config.TemplatesDir = "./templates"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.CleanFileFormat == "" {
		config.CleanFileFormat = "{merchant}_{original}_db_ready.csv"
	}
	if config.ErrorReportFormat == "" {
		config.ErrorReportFormat = "{merchant}_{original}_errors.txt"
	}
}

// validateMainConfig checks enumerated values and the schema overrides.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", config.LogLevel)
	}

	switch strings.ToLower(config.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q is not one of text, json", config.LogFormat)
	}

	if _, err := config.Schema(); err != nil {
		return fmt.Errorf("canonical_schema: %w", err)
	}

	return nil
}

// LoadMerchantConfigs loads all merchant configurations from a directory.
//
// PARAMETERS:
//   - merchantsDir: The directory containing *.yaml / *.yml merchant files.
//
// RETURNS:
//   - The configurations keyed by merchant ID.
//   - An error if a file cannot be parsed, lacks a merchant ID, or repeats
//     another file's merchant ID.
func LoadMerchantConfigs(merchantsDir string) (map[int64]*MerchantConfig, error) {
	configs := make(map[int64]*MerchantConfig)

	files, err := filepath.Glob(filepath.Join(merchantsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list merchant files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(merchantsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list merchant files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	for _, file := range files {
		merchant, err := loadMerchantConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		if existing, ok := configs[merchant.MerchantID]; ok {
			return nil, fmt.Errorf("merchant %d defined in both %s and %s", merchant.MerchantID, existing.source, file)
		}

		configs[merchant.MerchantID] = merchant
	}

	return configs, nil
}

// loadMerchantConfig loads a single merchant configuration file.
func loadMerchantConfig(filePath string) (*MerchantConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var merchant MerchantConfig
	if err := yaml.Unmarshal(data, &merchant); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	if merchant.MerchantID == 0 {
		return nil, errors.New("merchant_id is required")
	}

	merchant.source = filePath
	applyMerchantConfigDefaults(&merchant)

	if _, err := merchant.CSVSettings.Comma(); err != nil {
		return nil, fmt.Errorf("csv_settings: %w", err)
	}

	return &merchant, nil
}

// applyMerchantConfigDefaults sets default values for a merchant.
func applyMerchantConfigDefaults(merchant *MerchantConfig) {
	if merchant.CSVSettings.Delimiter == "" {
		merchant.CSVSettings.Delimiter = ","
	}
	if merchant.CSVSettings.Encoding == "" {
		merchant.CSVSettings.Encoding = "utf-8"
	}
	if merchant.MerchantIDField == "" {
		merchant.MerchantIDField = validation.FieldMerchantID
	}
	if merchant.MerchantName == "" {
		merchant.MerchantName = strconv.FormatInt(merchant.MerchantID, 10)
	}
}

// =============================================================================
// MERCHANT SELECTION
// =============================================================================

// FindMerchant returns the configuration for a merchant ID.
func FindMerchant(configs map[int64]*MerchantConfig, merchantID int64) (*MerchantConfig, error) {
	merchant, ok := configs[merchantID]
	if !ok {
		return nil, fmt.Errorf("%w: merchant %d", ErrMerchantNotFound, merchantID)
	}
	return merchant, nil
}

// MatchMerchant returns the merchant whose file matching patterns match the
// feed's file name. Merchants are checked in ascending ID order.
func MatchMerchant(configs map[int64]*MerchantConfig, feedPath string) (*MerchantConfig, error) {
	fileName := filepath.Base(feedPath)

	ids := make([]int64, 0, len(configs))
	for id := range configs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		for _, pattern := range configs[id].FileMatchingPatterns {
			matched, err := filepath.Match(pattern, fileName)
			if err != nil {
				// Invalid pattern, skip it.
				continue
			}
			if matched {
				return configs[id], nil
			}
		}
	}

	return nil, fmt.Errorf("%w: no pattern matches %s", ErrMerchantNotFound, fileName)
}
