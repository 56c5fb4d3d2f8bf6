// Package labels recodes annotation terms into reduced class spaces for
// binary and ternary evaluation.
package labels

import (
	"fmt"

	"github.com/pkg/errors"
)

// Reduced class labels.
const (
	Positive = "POSITIVE"
	Negative = "NEGATIVE"
	Other    = "OTHER"
)

// ErrUnmappableLabel is matched by every UnmappableLabelError.
var ErrUnmappableLabel = errors.New("unmappable label")

// UnmappableLabelError reports a label that belongs to none of the mapper's buckets.
type UnmappableLabelError struct {
	Label string
}

func (e *UnmappableLabelError) Error() string {
	return fmt.Sprintf("label %q matches no configured class", e.Label)
}

// Is lets errors.Is match ErrUnmappableLabel.
func (e *UnmappableLabelError) Is(target error) bool {
	return target == ErrUnmappableLabel
}

// Mapper maps a source label into a reduced label space.
type Mapper interface {
	Map(label string) (string, error)
	// Classes lists the reduced labels in a fixed order.
	Classes() []string
}

type bucket struct {
	name    string
	members map[string]struct{}
}

type setMapper struct {
	buckets []bucket
}

// Map returns the first bucket containing label.
func (m *setMapper) Map(label string) (string, error) {
	for _, b := range m.buckets {
		if _, ok := b.members[label]; ok {
			return b.name, nil
		}
	}
	return "", &UnmappableLabelError{Label: label}
}

func (m *setMapper) Classes() []string {
	out := make([]string, len(m.buckets))
	for i, b := range m.buckets {
		out[i] = b.name
	}
	return out
}

func newBucket(name string, labels []string) bucket {
	b := bucket{name: name, members: make(map[string]struct{}, len(labels))}
	for _, l := range labels {
		b.members[l] = struct{}{}
	}
	return b
}

// NewBinaryMapper maps positive labels to Positive and negative labels to Negative.
// A label in both sets maps to Positive.
func NewBinaryMapper(positive, negative []string) Mapper {
	return &setMapper{buckets: []bucket{
		newBucket(Positive, positive),
		newBucket(Negative, negative),
	}}
}

// NewTernaryMapper adds an Other bucket to the binary mapping.
func NewTernaryMapper(positive, negative, other []string) Mapper {
	return &setMapper{buckets: []bucket{
		newBucket(Positive, positive),
		newBucket(Negative, negative),
		newBucket(Other, other),
	}}
}

// MapAll maps every label, preserving length and order. The first unmappable
// label aborts the mapping.
func MapAll(m Mapper, labels []string) ([]string, error) {
	out := make([]string, len(labels))
	for i, l := range labels {
		mapped, err := m.Map(l)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}
		out[i] = mapped
	}
	return out, nil
}
