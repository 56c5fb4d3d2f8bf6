// Package config parses the tuning options once at the program boundary.
//
// Options come from command line flags, environment variables and an
// optional YAML file named by --config. Flags and environment variables win
// over the file. Validate turns a Config into a Tuning holding only typed,
// defaulted values; everything past the boundary works from a Tuning.
package config

import (
	"os"

	"github.com/alexflint/go-arg"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ErrInvalid marks configuration errors.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the raw tuning options. Zero values mean "use the default".
type Config struct {
	ConfigFile string `arg:"--config" yaml:"-" help:"YAML file with option defaults"`

	// data
	Manifest     string   `arg:"--manifest" yaml:"manifest" help:"CSV annotation manifest (id,image,terms,user,reviewed,path)"`
	DirLS        string   `arg:"--pyxit-dir-ls" yaml:"pyxit_dir_ls" help:"directory holding the learning set images"`
	WorkingPath  string   `arg:"--working-path" yaml:"working_path" help:"directory for temporary files"`
	ZoomLevel    int      `arg:"-z,--zoom-level" yaml:"zoom_level" help:"zoom level the learning set was dumped at, recorded in the log only"`
	Reviewed     bool     `arg:"--reviewed" yaml:"reviewed" help:"use reviewed annotations only"`
	ExcludedTerm []string `arg:"--excluded-terms" yaml:"excluded_terms" help:"terms whose annotations are dropped"`
	ExcludedAnn  []string `arg:"--excluded-annotations" yaml:"excluded_annotations" help:"annotation ids to drop"`
	Users        []string `arg:"--selected-users" yaml:"selected_users" help:"only keep annotations of these users"`

	// label mapping
	Binary        bool     `arg:"--binary" yaml:"binary" help:"map terms to POSITIVE/NEGATIVE (and OTHER with --other-terms)"`
	PositiveTerms []string `arg:"--positive-terms" yaml:"positive_terms" help:"terms of the positive class"`
	NegativeTerms []string `arg:"--negative-terms" yaml:"negative_terms" help:"terms of the negative class"`
	OtherTerms    []string `arg:"--other-terms" yaml:"other_terms" help:"terms of the third class"`

	// pyxit
	TargetWidth   int       `arg:"--pyxit-target-width" yaml:"pyxit_target_width" help:"subwindow target width [default: 16]"`
	TargetHeight  int       `arg:"--pyxit-target-height" yaml:"pyxit_target_height" help:"subwindow target height [default: 16]"`
	Colorspace    []int     `arg:"--pyxit-colorspace" yaml:"pyxit_colorspace" help:"colorspaces to try: 0 RGB, 1 TRGB, 2 HSV, 3 GRAY [default: 2]"`
	NSubwindows   int       `arg:"--pyxit-n-subwindows" yaml:"pyxit_n_subwindows" help:"subwindows per image [default: 10]"`
	MinSize       []float64 `arg:"--pyxit-min-size" yaml:"pyxit_min_size" help:"minimum window size proportions to try [default: 0.1]"`
	MaxSize       []float64 `arg:"--pyxit-max-size" yaml:"pyxit_max_size" help:"maximum window size proportions to try [default: 0.9]"`
	Transpose     bool      `arg:"--pyxit-transpose" yaml:"pyxit_transpose" help:"apply random rotations and flips to subwindows"`
	Interpolation int       `arg:"--pyxit-interpolation" yaml:"pyxit_interpolation" help:"1 nearest, 2 bilinear, 3 cubic, 4 anti-alias [default: 2]"`
	FixedSize     bool      `arg:"--pyxit-fixed-size" yaml:"pyxit_fixed_size" help:"extract windows of exactly the target size"`
	Jobs          int       `arg:"--pyxit-n-jobs" yaml:"pyxit_n_jobs" help:"grid points evaluated concurrently [default: 1]"`

	// forest
	NEstimators     int   `arg:"--forest-n-estimators" yaml:"forest_n_estimators" help:"trees per forest [default: 10]"`
	MinSamplesSplit []int `arg:"--forest-min-samples-split" yaml:"forest_min_samples_split" help:"minimum node sizes to try [default: 1]"`
	MaxFeatures     []int `arg:"--forest-max-features" yaml:"forest_max_features" help:"features per split to try [default: 16]"`

	// svm
	SVM  int       `arg:"--svm" yaml:"svm" help:"1 for the SVM variant (not available, reported only)"`
	SVMC []float64 `arg:"--svm-c" yaml:"svm_c" help:"SVM C values (reported only) [default: 0.1]"`

	// cross validation and search
	CVImagesOut int    `arg:"--cv-images-out" yaml:"cv_images_out" help:"images left out per fold [default: 1]"`
	FoldJobs    int    `arg:"--fold-jobs" yaml:"fold_jobs" help:"folds evaluated concurrently per grid point [default: 1]"`
	Scoring     string `arg:"--scoring" yaml:"scoring" help:"accuracy, precision or recall [default: accuracy]"`
	Positive    string `arg:"--positive-label" yaml:"positive_label" help:"positive class for precision and recall [default: POSITIVE]"`
	Seed        int64  `arg:"--seed" yaml:"seed" help:"random seed"`

	// output
	ModelOut   string `arg:"--model-out" yaml:"model_out" help:"write the refitted best estimator to this file"`
	ResultsCSV string `arg:"--results-csv" yaml:"results_csv" help:"write every grid point score to this CSV file"`

	Verbose    bool   `arg:"-v,--verbose" yaml:"verbose" help:"log every fold"`
	LogLevel   string `arg:"--log-level,env:REGION_TUNER_LOG_LEVEL" yaml:"log_level" help:"debug, info, warn or error [default: info]"`
	LogConsole bool   `arg:"--log-console" yaml:"log_console" help:"human readable logs"`
}

// LoadFile reads YAML options from path into c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return errors.Wrapf(ErrInvalid, "config %s: %v", path, err)
	}
	return nil
}

// Parse builds a Config from command line arguments (without the program
// or subcommand name). When --config is given the file is loaded first and
// the arguments are applied on top of it.
func Parse(program string, args []string) (*Config, *arg.Parser, error) {
	var cfg Config
	p, err := arg.NewParser(arg.Config{Program: program}, &cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := p.Parse(args); err != nil {
		return nil, p, err
	}
	if cfg.ConfigFile == "" {
		return &cfg, p, nil
	}

	var layered Config
	if err := layered.LoadFile(cfg.ConfigFile); err != nil {
		return nil, p, err
	}
	p, err = arg.NewParser(arg.Config{Program: program}, &layered)
	if err != nil {
		return nil, nil, err
	}
	if err := p.Parse(args); err != nil {
		return nil, p, err
	}
	return &layered, p, nil
}
