// Package config loads the settings for a run from command-line flags, the environment
// and an optional tezt.yaml file.
package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/launchdarkly/tezt/discovery"
	"github.com/launchdarkly/tezt/framework/tezt"
)

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix is prepended to every setting name to get its environment variable, with
// dashes changed to underscores: TEZT_TEST_PATTERNS, TEZT_NO_COLOR and so on.
const EnvPrefix = "TEZT"

// FileName is the base name of the config file looked for in the project root.
const FileName = "tezt"

// Summary formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds the settings for a run.
type Config struct {
	// Root is the directory searched for test files. It defaults to the nearest directory
	// holding a go.mod.
	Root           string   `mapstructure:"root"            validate:"required,dir"`
	TestPatterns   []string `mapstructure:"test-patterns"   validate:"required,min=1,dive,required,glob"`
	IgnorePatterns []string `mapstructure:"ignore-patterns" validate:"dive,required,glob"`
	Run            []string `mapstructure:"run"             validate:"dive,nodepath"`
	Skip           []string `mapstructure:"skip"            validate:"dive,nodepath"`
	SkipFile       string   `mapstructure:"skip-file"       validate:"omitempty,file"`
	RecordFailures string   `mapstructure:"record-failures"`
	Echo           bool     `mapstructure:"echo"`
	Debug          bool     `mapstructure:"debug"`
	JUnit          string   `mapstructure:"junit"`
	Summary        string   `mapstructure:"summary"`
	SummaryFormat  string   `mapstructure:"summary-format"  validate:"oneof=json yaml"`
	NoColor        bool     `mapstructure:"no-color"`

	// ConfigFile is the config file that was read, if any.
	ConfigFile string `mapstructure:"-"`
	// Files are test files named on the command line. If there are none, files are
	// discovered under Root.
	Files []string `mapstructure:"-"`
}

// Filters returns the run and skip patterns as a filter.
func (c *Config) Filters() (tezt.RegexFilters, error) {
	return tezt.NewRegexFilters(c.Run, c.Skip)
}

// DiscoveryOptions returns the options for finding test files.
func (c *Config) DiscoveryOptions() discovery.Options {
	return discovery.Options{
		Root:           c.Root,
		TestPatterns:   c.TestPatterns,
		IgnorePatterns: c.IgnorePatterns,
	}
}

// NewFlagSet defines every command-line flag. Flags override the environment, which
// overrides the config file.
func NewFlagSet(name string, output io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.String("config", "", "read settings from this file instead of tezt.yaml in the project root")
	fs.String("root", "", "directory to search for test files (default: nearest directory with a go.mod)")
	fs.StringSlice("test-patterns", discovery.DefaultTestPatterns, "glob pattern(s) selecting test files")
	fs.StringSlice("ignore-patterns", discovery.DefaultIgnorePatterns, "glob pattern(s) of files and directories to ignore")
	fs.StringArray("run", nil, "regex pattern(s) to select tests to run")
	fs.StringArray("skip", nil, "regex pattern(s) to select tests not to run")
	fs.String("skip-file", "", "file of test paths, one per line, not to run")
	fs.String("record-failures", "", "write the paths of failed tests to this file")
	fs.Bool("echo", false, "also print test output as it is written")
	fs.Bool("debug", false, "enable debug logging of the run itself")
	fs.String("junit", "", "write JUnit XML output to the specified path")
	fs.String("summary", "", "write a machine-readable summary to the specified path")
	fs.String("summary-format", FormatJSON, "summary format: json or yaml")
	fs.Bool("no-color", false, "disable colors in console output")
	return fs
}

// Load parses args (not including the program name) and combines them with the
// environment and config file. Relative paths are resolved against workDir. If args
// ask for help, the error is pflag.ErrHelp.
func Load(args []string, workDir string, output io.Writer) (*Config, error) {
	fs := NewFlagSet("tezt", output)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	vip := viper.New()
	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()
	if err := vip.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	root := vip.GetString("root")
	if root == "" {
		found, err := discovery.FindProjectRoot(workDir)
		if err != nil {
			found = workDir
		}
		root = found
	}
	root = resolve(workDir, root)

	if path := vip.GetString("config"); path != "" {
		vip.SetConfigFile(resolve(workDir, path))
	} else {
		vip.SetConfigName(FileName)
		vip.AddConfigPath(root)
	}
	vip.SetConfigType("yaml")
	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigFile = vip.ConfigFileUsed()
	if cfg.Root == "" {
		cfg.Root = root
	} else {
		cfg.Root = resolve(workDir, cfg.Root)
	}
	for _, f := range fs.Args() {
		cfg.Files = append(cfg.Files, resolve(workDir, f))
	}
	if cfg.SkipFile != "" {
		cfg.SkipFile = resolve(workDir, cfg.SkipFile)
	}

	if err := newValidator().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("glob", isGlob)
	_ = validate.RegisterValidation("nodepath", isNodePathPattern)
	return validate
}

func isGlob(fl validator.FieldLevel) bool {
	return doublestar.ValidatePattern(fl.Field().String())
}

func isNodePathPattern(fl validator.FieldLevel) bool {
	_, err := tezt.ParseNodePathPattern(fl.Field().String())
	return err == nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
