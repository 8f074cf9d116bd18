// Package jobs describes batch validation jobs: a YAML file listing the
// sheets to check, each with the profile it must satisfy and where its
// normalized output goes.
//
// Example:
//
//	defaults:
//	  tier: strict
//	  output_dir: out
//	  format: csv
//	sheets:
//	  - path: VB_water_column.xlsx
//	    sheet: sampling
//	    domain: sampling
//	  - path: VB_measured.csv
//	    domain: measured
//	    tier: lenient
package jobs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Job is a parsed job file.
type Job struct {
	Defaults Defaults `yaml:"defaults"`
	Sheets   []Sheet  `yaml:"sheets" validate:"min=1,dive"`

	// dir is the job file's directory; relative paths resolve against it.
	dir string
}

// Defaults apply to every sheet that does not override them.
type Defaults struct {
	Tier      string `yaml:"tier" validate:"omitempty,tier"`
	Variant   string `yaml:"variant"`
	Workers   int    `yaml:"workers" validate:"gte=0"`
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format" validate:"omitempty,oneof=csv json"`
}

// Sheet is one input of a job.
type Sheet struct {
	Path    string `yaml:"path" validate:"required"`
	Sheet   string `yaml:"sheet,omitempty"`
	Domain  string `yaml:"domain" validate:"required"`
	Tier    string `yaml:"tier,omitempty" validate:"omitempty,tier"`
	Variant string `yaml:"variant,omitempty"`
	Output  string `yaml:"output,omitempty"`
}

// Task is a sheet with every default applied and paths resolved.
type Task struct {
	Path    string
	Sheet   string
	Profile core.ProfileKey
	Output  string
	Format  string
	Workers int
}

// Name identifies the task in reports.
func (t Task) Name() string {
	name := filepath.Base(t.Path)
	if t.Sheet != "" {
		name += "#" + t.Sheet
	}
	return name
}

// Load reads and validates a job file.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	job, err := Parse(data)
	if err != nil {
		return nil, err
	}
	job.dir = filepath.Dir(path)
	return job, nil
}

// Parse parses and validates job YAML. Unknown keys are rejected so that a
// misspelled option is not silently ignored.
func Parse(data []byte) (*Job, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var job Job
	if err := dec.Decode(&job); err != nil {
		return nil, fmt.Errorf("parse job file: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job file: %w", err)
	}
	return &job, nil
}

var validate = newValidator()

// newValidator checks jobs by their struct tags, naming fields as they are
// spelled in YAML.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
		_, ok := core.ParseTier(fl.Field().String())
		return ok
	})
	return v
}

// Validate reports every problem of the job at once.
func (j *Job) Validate() error {
	err := validate.Struct(j)
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	errs := make([]error, len(ves))
	for i, fe := range ves {
		errs[i] = errors.New(describe(fe))
	}
	return errors.Join(errs...)
}

// describe phrases one failed tag, e.g. "sheet 2: domain is required".
func describe(fe validator.FieldError) string {
	where := location(fe.Namespace())
	switch fe.Tag() {
	case "min":
		return "no sheets listed"
	case "required":
		return fmt.Sprintf("%s: %s is required", where, fe.Field())
	case "tier":
		return fmt.Sprintf("%s: unknown tier %q", where, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: %s %q must be one of %s", where, fe.Field(), fe.Value(),
			strings.ReplaceAll(fe.Param(), " ", " or "))
	case "gte":
		return fmt.Sprintf("%s: %s must be at least %s", where, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s: %s failed %s", where, fe.Field(), fe.Tag())
}

// location turns "Job.sheets[1].domain" into "sheet 2" and
// "Job.defaults.format" into "defaults".
func location(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) < 3 {
		return "job"
	}
	parent := parts[len(parts)-2]
	if idx, ok := strings.CutPrefix(parent, "sheets["); ok {
		if n, err := strconv.Atoi(strings.TrimSuffix(idx, "]")); err == nil {
			return fmt.Sprintf("sheet %d", n+1)
		}
	}
	return parent
}

// Tasks applies defaults and resolves paths.
func (j *Job) Tasks() []Task {
	tierName := j.Defaults.Tier
	format := j.Defaults.Format
	if format == "" {
		format = FormatCSV
	}

	tasks := make([]Task, 0, len(j.Sheets))
	for _, s := range j.Sheets {
		name := tierName
		if s.Tier != "" {
			name = s.Tier
		}
		tier, ok := core.ParseTier(name)
		if !ok {
			tier = core.TierLenient
		}
		variant := j.Defaults.Variant
		if s.Variant != "" {
			variant = s.Variant
		}

		t := Task{
			Path:    j.resolve(s.Path),
			Sheet:   s.Sheet,
			Profile: core.ProfileKey{Domain: core.Domain(s.Domain), Tier: tier, Variant: core.Variant(variant)},
			Format:  format,
			Workers: j.Defaults.Workers,
		}
		switch {
		case s.Output != "":
			t.Output = j.resolve(s.Output)
		case j.Defaults.OutputDir != "":
			t.Output = filepath.Join(j.resolve(j.Defaults.OutputDir), OutputName(t))
		}
		tasks = append(tasks, t)
	}
	return tasks
}

func (j *Job) resolve(p string) string {
	if filepath.IsAbs(p) || j.dir == "" {
		return p
	}
	return filepath.Join(j.dir, p)
}

// OutputName derives the normalized file name of a task:
// "<input base>[.<sheet>].<domain>.<tier>.<format>".
func OutputName(t Task) string {
	base := strings.TrimSuffix(filepath.Base(t.Path), filepath.Ext(t.Path))
	if t.Sheet != "" {
		base += "." + t.Sheet
	}
	return fmt.Sprintf("%s.%s.%s.%s", base, t.Profile.Domain, t.Profile.Tier, t.Format)
}
