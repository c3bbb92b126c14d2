package patch

import (
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-ugen/dsp/ugen"
)

// refPrefix marks a string parameter as a reference to another node.
const refPrefix = "@"

// Params holds the parsed parameters of a single patch node. Numbers,
// strings and numeric lists are kept as written; references ("@id" or
// "@id:lane") are resolved to the generators built for earlier nodes.
type Params struct {
	ID   string
	Type string
	Num  map[string]float64
	Str  map[string]string
	List map[string][]float64

	refs     map[string]ref
	refLists map[string][]ref
	resolved map[string]ugen.Generator
}

type ref struct {
	id   string
	lane int
}

// parseRef splits "@id" or "@id:lane".
func parseRef(s string) (ref, bool) {
	if !strings.HasPrefix(s, refPrefix) || len(s) == len(refPrefix) {
		return ref{}, false
	}

	body := s[len(refPrefix):]

	id, laneStr, hasLane := strings.Cut(body, ":")
	if id == "" {
		return ref{}, false
	}

	if !hasLane {
		return ref{id: id}, true
	}

	lane, err := strconv.Atoi(laneStr)
	if err != nil || lane < 0 {
		return ref{}, false
	}

	return ref{id: id, lane: lane}, true
}

// GetNum safely extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if p.Num == nil {
		return def
	}

	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// GetInt is GetNum rounded to the nearest integer.
func (p Params) GetInt(key string, def int) int {
	return int(math.Round(p.GetNum(key, float64(def))))
}

// GetBool reports a numeric parameter as a flag: non-zero is true.
func (p Params) GetBool(key string, def bool) bool {
	d := 0.0
	if def {
		d = 1
	}

	return p.GetNum(key, d) != 0
}

// GetList returns a numeric list parameter, or nil.
func (p Params) GetList(key string) []float64 {
	return p.List[key]
}

// GetValue returns the parameter as a generator value: a reference binds
// the referenced generator's lane, a number binds a constant. Missing
// parameters return nil, which constructors treat as their default.
func (p Params) GetValue(key string) ugen.Value {
	if r, ok := p.refs[key]; ok {
		return p.bind(r)
	}

	if v, ok := p.Num[key]; ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return ugen.Const(v)
	}

	return nil
}

// GetValues returns a list parameter as generator values. A reference
// list binds signals; a numeric list binds constants.
func (p Params) GetValues(key string) []ugen.Value {
	if rs, ok := p.refLists[key]; ok {
		out := make([]ugen.Value, len(rs))
		for i, r := range rs {
			out[i] = p.bind(r)
		}

		return out
	}

	if nums, ok := p.List[key]; ok {
		out := make([]ugen.Value, len(nums))
		for i, v := range nums {
			out[i] = ugen.Const(v)
		}

		return out
	}

	return nil
}

// GetGenerator returns the generator referenced by key.
func (p Params) GetGenerator(key string) (ugen.Generator, bool) {
	r, ok := p.refs[key]
	if !ok {
		return nil, false
	}

	g, ok := p.resolved[r.id]

	return g, ok
}

func (p Params) bind(r ref) ugen.Value {
	g, ok := p.resolved[r.id]
	if !ok {
		return nil
	}

	if r.lane == 0 {
		return g
	}

	return ugen.Lane(g, r.lane)
}

// deps returns the node ids p references, in first-seen order.
func (p Params) deps() []string {
	var out []string

	seen := map[string]bool{}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	for _, key := range sortedKeys(p.refs) {
		add(p.refs[key].id)
	}

	for _, key := range sortedKeys(p.refLists) {
		for _, r := range p.refLists[key] {
			add(r.id)
		}
	}

	return out
}

// parseNodeParams extracts numeric, string, list and reference
// parameters from a raw JSON params value.
func parseNodeParams(raw map[string]any) Params {
	p := Params{
		Num:      map[string]float64{},
		Str:      map[string]string{},
		List:     map[string][]float64{},
		refs:     map[string]ref{},
		refLists: map[string][]ref{},
	}

	for k, v := range raw {
		switch t := v.(type) {
		case float64:
			p.Num[k] = t
		case bool:
			if t {
				p.Num[k] = 1
			} else {
				p.Num[k] = 0
			}
		case string:
			if r, ok := parseRef(t); ok {
				p.refs[k] = r
			} else {
				p.Str[k] = t
			}
		case []any:
			parseList(&p, k, t)
		}
	}

	return p
}

func parseList(p *Params, key string, items []any) {
	nums := make([]float64, 0, len(items))
	refs := make([]ref, 0, len(items))

	for _, item := range items {
		switch t := item.(type) {
		case float64:
			nums = append(nums, t)
		case string:
			if r, ok := parseRef(t); ok {
				refs = append(refs, r)
			}
		}
	}

	switch {
	case len(refs) == len(items):
		p.refLists[key] = refs
	case len(nums) == len(items):
		p.List[key] = nums
	}
}
