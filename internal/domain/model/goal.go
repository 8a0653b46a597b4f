// Package model contains domain models passed between layers.
package model

import (
	"slices"
	"sort"
	"strings"
)

// Goal is a single bingo objective. Goals are identified by Name.
type Goal struct {
	Name       string   `json:"name" koanf:"name" validate:"required"`
	Difficulty int      `json:"difficulty" koanf:"difficulty" validate:"min=1,max=10"`
	Tags       []string `json:"tags" koanf:"tags" validate:"min=1,dive,required"`
}

// HasTag reports whether the goal carries tag.
func (g Goal) HasTag(tag string) bool {
	return slices.Contains(g.Tags, tag)
}

// TagMeta controls how goals carrying a tag may be combined.
type TagMeta struct {
	// AllowMultiple false means at most one goal with this tag per board.
	AllowMultiple bool `json:"allowmultiple" koanf:"allowmultiple"`
	// SingleUse true exhausts every goal with this tag for later boards
	// of the same session once one of them is drawn.
	SingleUse bool   `json:"singleuse" koanf:"singleuse"`
	Icon      string `json:"image,omitempty" koanf:"image"`
}

// DefaultTagMeta applies to tags that have no metadata entry.
var DefaultTagMeta = TagMeta{AllowMultiple: true}

// Bucket is a difficulty partition.
type Bucket int

const (
	Easy Bucket = iota
	Normal
	Hard
)

// Buckets lists every bucket in draw order.
var Buckets = [...]Bucket{Easy, Normal, Hard}

func (b Bucket) String() string {
	switch b {
	case Easy:
		return "easy"
	case Normal:
		return "normal"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// MarshalText encodes the bucket by name.
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText accepts easy, normal/norm/medium and hard.
func (b *Bucket) UnmarshalText(text []byte) error {
	v, ok := ParseBucket(string(text))
	if !ok {
		return &UnknownBucketError{Value: string(text)}
	}
	*b = v
	return nil
}

// ParseBucket maps a bucket name to its value.
func ParseBucket(s string) (Bucket, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, true
	case "normal", "norm", "medium":
		return Normal, true
	case "hard":
		return Hard, true
	default:
		return 0, false
	}
}

// UnknownBucketError is returned when a bucket name cannot be parsed.
type UnknownBucketError struct {
	Value string
}

func (e *UnknownBucketError) Error() string {
	return "unknown difficulty bucket: " + e.Value
}

// Thresholds partition the difficulty scale. Boundaries may overlap, so a
// goal can be eligible for two adjacent buckets.
type Thresholds struct {
	EasyMax int `json:"easymax" koanf:"easymax"`
	NormMin int `json:"normmin" koanf:"normmin"`
	NormMax int `json:"normmax" koanf:"normmax"`
	HardMin int `json:"hardmin" koanf:"hardmin"`
}

// Monotonic reports whether the boundaries are ordered.
func (t Thresholds) Monotonic() bool {
	return t.NormMin <= t.NormMax &&
		t.EasyMax <= t.NormMax &&
		t.NormMin <= t.HardMin &&
		t.EasyMax < t.HardMin
}

// Contains reports whether difficulty falls into bucket b.
func (t Thresholds) Contains(b Bucket, difficulty int) bool {
	switch b {
	case Easy:
		return difficulty <= t.EasyMax
	case Normal:
		return difficulty >= t.NormMin && difficulty <= t.NormMax
	case Hard:
		return difficulty >= t.HardMin
	default:
		return false
	}
}

// BucketsFor returns every bucket difficulty belongs to, in draw order.
func (t Thresholds) BucketsFor(difficulty int) []Bucket {
	out := make([]Bucket, 0, len(Buckets))
	for _, b := range Buckets {
		if t.Contains(b, difficulty) {
			out = append(out, b)
		}
	}
	return out
}

// Mix is the requested number of goals per bucket.
type Mix struct {
	Easy   int `json:"easy"`
	Normal int `json:"normal"`
	Hard   int `json:"hard"`
}

// Count returns the requested count for b.
func (m Mix) Count(b Bucket) int {
	switch b {
	case Easy:
		return m.Easy
	case Normal:
		return m.Normal
	case Hard:
		return m.Hard
	default:
		return 0
	}
}

// Total is the sum of all bucket counts.
func (m Mix) Total() int {
	return m.Easy + m.Normal + m.Hard
}

// IsZero reports whether no counts were requested.
func (m Mix) IsZero() bool {
	return m == Mix{}
}

// GoalSet is a set of goal names.
type GoalSet map[string]struct{}

// NewGoalSet builds a set from names.
func NewGoalSet(names ...string) GoalSet {
	s := make(GoalSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set contains nothing.
func (s GoalSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add inserts name.
func (s GoalSet) Add(name string) {
	s[name] = struct{}{}
}

// Names returns the members sorted.
func (s GoalSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
