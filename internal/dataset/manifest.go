// Package dataset loads annotated regions into learning samples.
//
// Annotations come from a CSV manifest with the header
//
//	id,image,terms,user,reviewed,path
//
// where terms is a ';' separated list of term identifiers. Every annotation
// becomes one sample: its tile file, its first term as label and its image as
// cross-validation group.
package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// Annotation is one row of a manifest.
type Annotation struct {
	ID       string `csv:"id"`
	Image    string `csv:"image"`
	Terms    string `csv:"terms"`
	User     string `csv:"user"`
	Reviewed string `csv:"reviewed"`
	Path     string `csv:"path"`
}

// TermList returns the annotation's terms in manifest order.
func (a Annotation) TermList() []string {
	var terms []string
	for _, t := range strings.Split(a.Terms, ";") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// IsReviewed reports whether the reviewed column holds a true value.
func (a Annotation) IsReviewed() bool {
	return ParseBool(a.Reviewed)
}

// ParseBool accepts "yes", "true", "t" and "1" in any case as true and
// everything else as false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "t", "1":
		return true
	}
	return false
}

// LoadManifest reads the annotations listed in a CSV file.
func LoadManifest(path string) ([]Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening manifest")
	}
	defer f.Close()

	var rows []*Annotation
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.Wrapf(err, "parsing manifest %s", path)
	}
	out := make([]Annotation, 0, len(rows))
	for i, r := range rows {
		if r.ID == "" || r.Image == "" {
			return nil, errors.Errorf("manifest %s: row %d needs id and image", path, i+1)
		}
		out = append(out, *r)
	}
	return out, nil
}

// Filter selects the annotations used for learning.
type Filter struct {
	ReviewedOnly        bool     `json:"reviewed_only" yaml:"reviewed_only"`
	ExcludedAnnotations []string `json:"excluded_annotations" yaml:"excluded_annotations"`
	ExcludedTerms       []string `json:"excluded_terms" yaml:"excluded_terms"`
	// SelectedUsers keeps only annotations of these users when non-empty.
	SelectedUsers []string `json:"selected_users" yaml:"selected_users"`
}

// Apply returns the annotations that have at least one term, are not
// excluded by id or by any of their terms, belong to a selected user and,
// with ReviewedOnly, are reviewed. Order is preserved.
func (f Filter) Apply(annotations []Annotation) []Annotation {
	excluded := set(f.ExcludedAnnotations)
	excludedTerms := set(f.ExcludedTerms)
	users := set(f.SelectedUsers)

	var out []Annotation
	for _, a := range annotations {
		terms := a.TermList()
		switch {
		case len(terms) == 0:
			continue
		case excluded[a.ID]:
			continue
		case len(users) > 0 && !users[a.User]:
			continue
		case f.ReviewedOnly && !a.IsReviewed():
			continue
		case anyIn(terms, excludedTerms):
			continue
		}
		out = append(out, a)
	}
	return out
}

// Sample is one learning example.
type Sample struct {
	Path  string
	Label string
	Group string
}

// Samples turns annotations into samples. Annotations without a path are
// expected at dir/<first term>/<image>_<id>.png; relative paths are resolved
// against dir.
func Samples(annotations []Annotation, dir string) []Sample {
	out := make([]Sample, 0, len(annotations))
	for _, a := range annotations {
		terms := a.TermList()
		if len(terms) == 0 {
			continue
		}
		path := a.Path
		switch {
		case path == "":
			path = filepath.Join(dir, terms[0], a.Image+"_"+a.ID+".png")
		case !filepath.IsAbs(path):
			path = filepath.Join(dir, path)
		}
		out = append(out, Sample{Path: path, Label: terms[0], Group: a.Image})
	}
	return out
}

// Columns splits samples into aligned path, label and group sequences.
func Columns(samples []Sample) (paths, labels, groups []string) {
	paths = make([]string, len(samples))
	labels = make([]string, len(samples))
	groups = make([]string, len(samples))
	for i, s := range samples {
		paths[i], labels[i], groups[i] = s.Path, s.Label, s.Group
	}
	return paths, labels, groups
}

// Load reads, filters and converts the manifest at path.
func Load(path, dir string, f Filter) ([]Sample, error) {
	annotations, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return Samples(f.Apply(annotations), dir), nil
}

// PrepareDir creates dir if needed. With clean, existing content is removed first.
func PrepareDir(dir string, clean bool) error {
	if clean {
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, "cleaning %s", dir)
		}
	}
	return errors.Wrapf(os.MkdirAll(dir, 0o755), "creating %s", dir)
}

func set(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

func anyIn(values []string, m map[string]bool) bool {
	for _, v := range values {
		if m[v] {
			return true
		}
	}
	return false
}
