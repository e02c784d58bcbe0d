package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"mcp-bridge/internal/extract"
)

// ErrInvalidConfig marks tools file validation failures.
var ErrInvalidConfig = errors.New("invalid config")

// Tool defaults applied when a field is absent.
const (
	DefaultTotalTimeoutMs    = 30000
	DefaultInactiveTimeoutMs = 10000
	DefaultSuccessMessage    = "Operation completed successfully"
	DefaultErrorMessage      = "Operation failed"
	DefaultExtractorType     = extract.TypeGCC
)

// Parameter types.
const (
	ParamNumber  = "number"
	ParamString  = "string"
	ParamBoolean = "boolean"
)

// ToolParameter declares one caller-supplied parameter.
type ToolParameter struct {
	Name        string
	Type        string
	Default     any
	Description string
}

// TimeoutConfig holds timeouts in milliseconds. Total <= 0 disables the
// total timer.
type TimeoutConfig struct {
	Total    int64
	Inactive int64
}

// Extractor selects the classification patterns.
type Extractor struct {
	Type     string
	Patterns extract.Patterns
}

// OutputProcessing controls classification and message rendering.
type OutputProcessing struct {
	Extractor    Extractor
	FormatOutput bool
	// LogLines is a template rendered per invocation and parsed as an integer.
	LogLines string
}

// ResultFormat holds the message prefixes.
type ResultFormat struct {
	SuccessMessage string
	ErrorMessage   string
}

// SpecialHandling holds per-tool verdict overrides.
type SpecialHandling struct {
	TimeoutAsWarning bool
}

// ToolDefinition is a validated, defaulted tool. It is not modified after
// LoadTools returns.
type ToolDefinition struct {
	Description      string
	Command          string
	Cwd              string
	Parameters       []ToolParameter
	Timeout          TimeoutConfig
	StreamOutput     bool
	OutputProcessing OutputProcessing
	ResultFormat     ResultFormat
	SpecialHandling  *SpecialHandling
}

// TimeoutAsWarning reports whether timeouts are downgraded to non-failures.
func (d ToolDefinition) TimeoutAsWarning() bool {
	return d.SpecialHandling != nil && d.SpecialHandling.TimeoutAsWarning
}

// Tools maps tool names to definitions.
type Tools map[string]ToolDefinition

// Names returns sorted tool names.
func (t Tools) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type rawFile struct {
	Tools map[string]rawTool `mapstructure:"tools"`
}

type rawTool struct {
	Description      *string             `mapstructure:"description"`
	Command          *string             `mapstructure:"command"`
	Cwd              *string             `mapstructure:"cwd"`
	Parameters       []rawParameter      `mapstructure:"parameters"`
	Timeout          *rawTimeout         `mapstructure:"timeout"`
	StreamOutput     *bool               `mapstructure:"streamOutput"`
	OutputProcessing *rawOutput          `mapstructure:"outputProcessing"`
	ResultFormat     *rawResultFormat    `mapstructure:"resultFormat"`
	SpecialHandling  *rawSpecialHandling `mapstructure:"specialHandling"`
}

type rawParameter struct {
	Name        string `mapstructure:"name"`
	Type        string `mapstructure:"type"`
	Default     any    `mapstructure:"default"`
	Description string `mapstructure:"description"`
}

type rawTimeout struct {
	Total    *int64 `mapstructure:"total"`
	Inactive *int64 `mapstructure:"inactive"`
}

type rawOutput struct {
	Extractor    *rawExtractor `mapstructure:"extractor"`
	FormatOutput *bool         `mapstructure:"formatOutput"`
	LogLines     *string       `mapstructure:"logLines"`
}

type rawExtractor struct {
	Type     string       `mapstructure:"type"`
	Patterns *rawPatterns `mapstructure:"patterns"`
}

type rawPatterns struct {
	Errors   []string `mapstructure:"errors"`
	Warnings []string `mapstructure:"warnings"`
}

type rawResultFormat struct {
	SuccessMessage string `mapstructure:"successMessage"`
	ErrorMessage   string `mapstructure:"errorMessage"`
}

type rawSpecialHandling struct {
	TimeoutAsWarning bool `mapstructure:"timeoutAsWarning"`
}

// LoadTools reads a JSON, YAML or TOML tools file. Tools without a cwd get
// defaultCwd.
func LoadTools(path, defaultCwd string) (Tools, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tools file: %w", err)
	}
	doc, err := parseDocument(path, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return DecodeTools(doc, defaultCwd)
}

func parseDocument(path string, data []byte) (map[string]any, error) {
	doc := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// DecodeTools validates and defaults an already-parsed tools document.
func DecodeTools(doc map[string]any, defaultCwd string) (Tools, error) {
	toolsDoc, ok := doc["tools"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: 'tools' object is required", ErrInvalidConfig)
	}

	var raw rawFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "mapstructure", Result: &raw})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]any{"tools": toolsDoc}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	names := make([]string, 0, len(raw.Tools))
	for name := range raw.Tools {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make(Tools, len(raw.Tools))
	for _, name := range names {
		rt := raw.Tools[name]
		if err := validatePartial(name, rt); err != nil {
			return nil, err
		}
		def := applyDefaults(rt, defaultCwd)
		if err := validateTool(name, rt, def); err != nil {
			return nil, err
		}
		applyDefaultPatterns(&def)
		tools[name] = def
	}
	return tools, nil
}

func invalid(tool, format string, args ...any) error {
	return fmt.Errorf("%w for tool '%s': %s", ErrInvalidConfig, tool, fmt.Sprintf(format, args...))
}

func validatePartial(name string, rt rawTool) error {
	if rt.Description == nil || strings.TrimSpace(*rt.Description) == "" {
		return invalid(name, "'description' is required and must be a string")
	}
	if rt.Command == nil || strings.TrimSpace(*rt.Command) == "" {
		return invalid(name, "'command' is required and must be a string")
	}
	return nil
}

func applyDefaults(rt rawTool, defaultCwd string) ToolDefinition {
	def := ToolDefinition{
		Description: *rt.Description,
		Command:     *rt.Command,
		Cwd:         defaultCwd,
		Timeout:     TimeoutConfig{Total: DefaultTotalTimeoutMs, Inactive: DefaultInactiveTimeoutMs},
		OutputProcessing: OutputProcessing{
			Extractor: Extractor{Type: DefaultExtractorType},
		},
		ResultFormat: ResultFormat{SuccessMessage: DefaultSuccessMessage, ErrorMessage: DefaultErrorMessage},
	}
	if rt.Cwd != nil && *rt.Cwd != "" {
		def.Cwd = *rt.Cwd
	}
	if rt.Timeout != nil {
		if rt.Timeout.Total != nil {
			def.Timeout.Total = *rt.Timeout.Total
		}
		if rt.Timeout.Inactive != nil {
			def.Timeout.Inactive = *rt.Timeout.Inactive
		}
	}
	if rt.StreamOutput != nil {
		def.StreamOutput = *rt.StreamOutput
	}
	if op := rt.OutputProcessing; op != nil {
		if op.Extractor != nil {
			if op.Extractor.Type != "" {
				def.OutputProcessing.Extractor.Type = op.Extractor.Type
			}
			if op.Extractor.Patterns != nil {
				def.OutputProcessing.Extractor.Patterns = extract.Patterns{
					Errors:   nonNil(op.Extractor.Patterns.Errors),
					Warnings: nonNil(op.Extractor.Patterns.Warnings),
				}
			}
		}
		if op.FormatOutput != nil {
			def.OutputProcessing.FormatOutput = *op.FormatOutput
		}
		if op.LogLines != nil {
			def.OutputProcessing.LogLines = *op.LogLines
		}
	}
	if rf := rt.ResultFormat; rf != nil {
		if rf.SuccessMessage != "" {
			def.ResultFormat.SuccessMessage = rf.SuccessMessage
		}
		if rf.ErrorMessage != "" {
			def.ResultFormat.ErrorMessage = rf.ErrorMessage
		}
	}
	if rt.SpecialHandling != nil {
		def.SpecialHandling = &SpecialHandling{TimeoutAsWarning: rt.SpecialHandling.TimeoutAsWarning}
	}
	for _, p := range rt.Parameters {
		def.Parameters = append(def.Parameters, ToolParameter(p))
	}
	return def
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func validateTool(name string, rt rawTool, def ToolDefinition) error {
	if def.Timeout.Total < 0 {
		return invalid(name, "'timeout.total' must be a non-negative number")
	}
	if def.Timeout.Inactive < 0 {
		return invalid(name, "'timeout.inactive' must be a non-negative number")
	}
	ex := def.OutputProcessing.Extractor
	if !extract.ValidType(ex.Type) {
		return invalid(name, "'outputProcessing.extractor.type' must be 'gcc' or 'custom'")
	}
	hasPatterns := rt.OutputProcessing != nil && rt.OutputProcessing.Extractor != nil && rt.OutputProcessing.Extractor.Patterns != nil
	if ex.Type == extract.TypeCustom && !hasPatterns {
		return invalid(name, "'outputProcessing.extractor.patterns' object is required for custom type")
	}
	if hasPatterns {
		if _, err := extract.New(ex.Patterns); err != nil {
			return invalid(name, "%v", err)
		}
	}
	seen := map[string]struct{}{}
	for _, p := range def.Parameters {
		if err := validateParameter(name, p); err != nil {
			return err
		}
		if _, dup := seen[p.Name]; dup {
			return invalid(name, "duplicate parameter '%s'", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

func validateParameter(tool string, p ToolParameter) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid(tool, "parameter 'name' is required and must be a string")
	}
	if p.Type != ParamNumber && p.Type != ParamString && p.Type != ParamBoolean {
		return invalid(tool, "parameter 'type' must be 'number', 'string', or 'boolean'")
	}
	if p.Default != nil && !MatchesType(p.Type, p.Default) {
		return invalid(tool, "parameter 'default' must be of type '%s'", p.Type)
	}
	if strings.TrimSpace(p.Description) == "" {
		return invalid(tool, "parameter 'description' is required and must be a string")
	}
	return nil
}

// MatchesType reports whether value is a scalar of the declared parameter type.
func MatchesType(paramType string, value any) bool {
	switch paramType {
	case ParamString:
		_, ok := value.(string)
		return ok
	case ParamBoolean:
		_, ok := value.(bool)
		return ok
	case ParamNumber:
		switch value.(type) {
		case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
			return true
		}
	}
	return false
}

func applyDefaultPatterns(def *ToolDefinition) {
	ex := &def.OutputProcessing.Extractor
	if ex.Patterns.Errors != nil || ex.Patterns.Warnings != nil {
		return
	}
	if known, ok := extract.KnownPatterns(ex.Type); ok {
		ex.Patterns = known
		return
	}
	ex.Patterns = extract.Patterns{Errors: []string{}, Warnings: []string{}}
}
