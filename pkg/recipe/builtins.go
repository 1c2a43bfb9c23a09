package recipe

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chazu/sprout/pkg/seed"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites recipe source into something zygomys accepts:
//
//  1. :keyword becomes the string "__kw_keyword", so keywords need not be
//     bound as globals.
//  2. kebab-case identifiers become snake_case (snapshot-every ->
//     snapshot_every); zygomys reads a bare hyphen as subtraction.
//  3. ; comments become // comments.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// A hyphen between identifier characters is part of a name, not
		// the minus operator.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

const kwPrefix = "__kw_"

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	keys       []string // keyword names in call order
	positional []zygo.Sexp
}

func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if _, dup := result.kw[name]; !dup {
			result.keys = append(result.keys, name)
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt accepts integers and floats with no fractional part.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) && !math.IsInf(v.Val, 0) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts a keyword (:icosphere) or a plain string.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// fieldSet binds keyword names to the fields a builtin may set.
type fieldSet struct {
	floats map[string]*float64
	ints   map[string]*int
	bools  map[string]*bool
}

func (fs fieldSet) names() string {
	var names []string
	for k := range fs.floats {
		names = append(names, k)
	}
	for k := range fs.ints {
		names = append(names, k)
	}
	for k := range fs.bools {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// apply assigns every keyword argument in pa to its field.
func (fs fieldSet) apply(builtin string, pa kwArgs) error {
	if len(pa.positional) > 0 {
		return fmt.Errorf("%s: takes keyword arguments only", builtin)
	}
	for _, k := range pa.keys {
		v := pa.kw[k]
		switch {
		case fs.floats[k] != nil:
			f, err := toFloat64(v)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", builtin, k, err)
			}
			*fs.floats[k] = f
		case fs.ints[k] != nil:
			n, err := toInt(v)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", builtin, k, err)
			}
			*fs.ints[k] = n
		case fs.bools[k] != nil:
			b, err := toBool(v)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", builtin, k, err)
			}
			*fs.bools[k] = b
		default:
			return fmt.Errorf("%s: unknown keyword :%s (expected one of %s)", builtin, k, fs.names())
		}
	}
	return nil
}

// singleInt reads the one non-negative integer argument of builtin.
func singleInt(builtin string, args []zygo.Sexp) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s: expected 1 argument, got %d", builtin, len(args))
	}
	n, err := toInt(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", builtin, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %d", builtin, n)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the recipe builtins. Each one updates r in
// place; fields a program never mentions keep their defaults. Source must
// go through preprocessSource first.
func registerBuiltins(env *zygo.Zlisp, r *Recipe) {

	// (seed :kind :icosphere :radius 3 :subdivisions 2)
	env.AddFunction("seed", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if v, ok := pa.kw["kind"]; ok {
			kind, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("seed: kind: %w", err)
			}
			if !knownKind(kind) {
				return zygo.SexpNull, fmt.Errorf("seed: unknown kind %q (expected one of %s)",
					kind, strings.Join(seed.Kinds, ", "))
			}
			r.Seed.Kind = kind
			delete(pa.kw, "kind")
			pa.keys = without(pa.keys, "kind")
		}
		s := &r.Seed
		fs := fieldSet{
			floats: map[string]*float64{
				"size":           &s.Size,
				"radius":         &s.Radius,
				"height":         &s.Height,
				"weld-tolerance": &s.WeldTolerance,
				"tilt-x":         &s.Tilt[0],
				"tilt-y":         &s.Tilt[1],
				"tilt-z":         &s.Tilt[2],
			},
			ints: map[string]*int{
				"subdivisions": &s.Subdivisions,
				"segments":     &s.Segments,
				"nx":           &s.NX,
				"ny":           &s.NY,
				"cells":        &s.Cells,
			},
		}
		return zygo.SexpNull, fs.apply("seed", pa)
	})

	// (growth :collision-distance 1.0 :use-rtree false)
	env.AddFunction("growth", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		c := &r.Config
		fs := fieldSet{
			floats: map[string]*float64{
				"collision-distance":            &c.CollisionDistance,
				"collision-weight":              &c.CollisionWeight,
				"edge-length-constraint-weight": &c.EdgeLengthConstraintWeight,
				"bending-resistance-weight":     &c.BendingResistanceWeight,
				"split-ratio":                   &c.SplitRatio,
			},
			ints: map[string]*int{
				"max-vertex-count": &c.MaxVertexCount,
			},
			bools: map[string]*bool{
				"grow":                         &c.Grow,
				"use-rtree":                    &c.UseRTree,
				"apply-edge-length-constraint": &c.ApplyEdgeLengthConstraint,
			},
		}
		return zygo.SexpNull, fs.apply("growth", parseArgs(args))
	})

	// (steps 200)
	env.AddFunction("steps", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		n, err := singleInt("steps", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		r.Steps = n
		return zygo.SexpNull, nil
	})

	// (snapshot-every 50)
	env.AddFunction("snapshot_every", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		n, err := singleInt("snapshot-every", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		r.SnapshotEvery = n
		return zygo.SexpNull, nil
	})
}

func knownKind(kind string) bool {
	for _, k := range seed.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func without(keys []string, drop string) []string {
	out := keys[:0]
	for _, k := range keys {
		if k != drop {
			out = append(out, k)
		}
	}
	return out
}
