// Package efd loads the embedded formula database: curve models,
// coordinate systems and formulas in a line-oriented text format.
// Loading happens once, lazily; malformed formulas are logged and
// skipped so one bad entry cannot take down the whole database.
package efd

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/internal/crypto/model"
	"github.com/smallyu/go-ecc-sim/internal/crypto/op"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

//go:embed data
var dataFS embed.FS

var (
	mu      sync.Mutex
	loaded  bool
	logger  = zap.NewNop()
	version string
	models  map[string]*model.CurveModel
	// formulas is keyed by "<model>/<coords>", then formula name.
	formulas map[string]map[string]*formula.Formula
	loadErr  error
)

// SetLogger installs a logger for load diagnostics. Call it before the
// first database access; the default discards everything.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l != nil {
		logger = l
	}
}

func ensure() error {
	mu.Lock()
	defer mu.Unlock()
	if !loaded {
		loadErr = load()
		loaded = true
	}
	return loadErr
}

// Version reports the database snapshot identifier.
func Version() (string, error) {
	if err := ensure(); err != nil {
		return "", err
	}
	return version, nil
}

// Models lists the loaded curve models, sorted by short name.
func Models() ([]*model.CurveModel, error) {
	if err := ensure(); err != nil {
		return nil, err
	}
	out := make([]*model.CurveModel, 0, len(models))
	for _, m := range models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShortName < out[j].ShortName })
	return out, nil
}

// GetModel resolves a curve model by short name.
func GetModel(name string) (*model.CurveModel, error) {
	if err := ensure(); err != nil {
		return nil, err
	}
	m, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown curve model %q", ecsim.ErrUnsupportedConfiguration, name)
	}
	return m, nil
}

// GetCoords resolves a coordinate system of a model.
func GetCoords(modelName, coordsName string) (*model.CoordinateModel, error) {
	m, err := GetModel(modelName)
	if err != nil {
		return nil, err
	}
	c, err := m.Coords(coordsName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ecsim.ErrUnsupportedConfiguration, err)
	}
	return c, nil
}

// Formulas returns the formulas of a coordinate system as a fresh map.
func Formulas(coords *model.CoordinateModel) (map[string]*formula.Formula, error) {
	if err := ensure(); err != nil {
		return nil, err
	}
	src := formulas[coords.Model.ShortName+"/"+coords.Name]
	out := make(map[string]*formula.Formula, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out, nil
}

// GetFormula resolves one formula by model, coordinate system and name.
func GetFormula(modelName, coordsName, name string) (*formula.Formula, error) {
	if err := ensure(); err != nil {
		return nil, err
	}
	reg, ok := formulas[modelName+"/"+coordsName]
	if !ok {
		return nil, fmt.Errorf("%w: no formulas for %s/%s", ecsim.ErrUnsupportedConfiguration, modelName, coordsName)
	}
	f, ok := reg[name]
	if !ok {
		return nil, fmt.Errorf("%w: no formula %q in %s/%s", ecsim.ErrUnsupportedConfiguration, name, modelName, coordsName)
	}
	return f, nil
}

func load() error {
	models = make(map[string]*model.CurveModel)
	formulas = make(map[string]map[string]*formula.Formula)
	if b, err := dataFS.ReadFile("data/VERSION"); err == nil {
		version = strings.TrimSpace(string(b))
	}
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		return fmt.Errorf("read database root: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := loadModel(e.Name())
		if err != nil {
			return fmt.Errorf("load model %s: %w", e.Name(), err)
		}
		models[m.ShortName] = m
	}
	logger.Info("formula database loaded",
		zap.String("version", version),
		zap.Int("models", len(models)))
	return nil
}

func loadModel(dir string) (*model.CurveModel, error) {
	m := &model.CurveModel{
		ShortName:   dir,
		Coordinates: make(map[string]*model.CoordinateModel),
	}
	if err := parseLines(path.Join("data", dir, "model"), func(key, rest string) error {
		switch key {
		case "name":
			m.Name = rest
		case "parameter":
			m.ParameterNames = append(m.ParameterNames, rest)
		case "satisfying":
			lhs, rhs, err := splitEquation(rest)
			if err != nil {
				return err
			}
			m.EquationLHS, m.EquationRHS = lhs, rhs
		case "ysquared":
			e, err := op.ParseExpr(rest)
			if err != nil {
				return err
			}
			m.YSquared = e
		case "addition", "doubling", "negation", "neutral":
			a, err := op.ParseAssignment(rest)
			if err != nil {
				return err
			}
			switch key {
			case "addition":
				m.BaseAddition = append(m.BaseAddition, a)
			case "doubling":
				m.BaseDoubling = append(m.BaseDoubling, a)
			case "negation":
				m.BaseNegation = append(m.BaseNegation, a)
			case "neutral":
				m.BaseNeutral = append(m.BaseNeutral, a)
			}
		default:
			return fmt.Errorf("unknown model key %q", key)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	subs, err := dataFS.ReadDir(path.Join("data", dir))
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		if !s.IsDir() {
			continue
		}
		c, err := loadCoords(m, dir, s.Name())
		if err != nil {
			return nil, err
		}
		m.Coordinates[c.Name] = c
	}
	return m, nil
}

func loadCoords(m *model.CurveModel, modelDir, dir string) (*model.CoordinateModel, error) {
	c := &model.CoordinateModel{
		Name:         dir,
		Model:        m,
		HomogWeights: make(map[string]int),
	}
	base := path.Join("data", modelDir, dir)
	if err := parseLines(path.Join(base, "coords"), func(key, rest string) error {
		switch key {
		case "name":
			// Directory name wins; the field is informational.
		case "fullname":
			c.FullName = rest
		case "variable":
			c.Variables = append(c.Variables, rest)
		case "parameter":
			c.Parameters = append(c.Parameters, rest)
		case "satisfying", "toaffine", "tosystem", "assume":
			a, err := op.ParseAssignment(rest)
			if err != nil {
				return err
			}
			switch key {
			case "satisfying":
				c.Satisfying = append(c.Satisfying, a)
			case "toaffine":
				c.ToAffine = append(c.ToAffine, a)
			case "tosystem":
				c.FromAffine = append(c.FromAffine, a)
			case "assume":
				c.Assumptions = append(c.Assumptions, a)
			}
		case "homogweight":
			fields := strings.Fields(rest)
			if len(fields) != 2 {
				return fmt.Errorf("malformed homogweight %q", rest)
			}
			w, err := strconv.Atoi(fields[1])
			if err != nil {
				return err
			}
			c.HomogWeights[fields[0]] = w
		default:
			return fmt.Errorf("unknown coords key %q", key)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	reg := make(map[string]*formula.Formula)
	formulas[m.ShortName+"/"+c.Name] = reg
	subs, err := dataFS.ReadDir(base)
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		if !s.IsDir() {
			continue
		}
		kind, err := kindOfDir(s.Name())
		if err != nil {
			logger.Warn("skipping unknown formula directory",
				zap.String("coords", c.String()), zap.String("dir", s.Name()))
			continue
		}
		if err := loadFormulaDir(c, path.Join(base, s.Name()), kind, reg); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func kindOfDir(dir string) (formula.Kind, error) {
	switch dir {
	case "addition":
		return formula.Addition, nil
	case "doubling":
		return formula.Doubling, nil
	case "tripling":
		return formula.Tripling, nil
	case "negation":
		return formula.Negation, nil
	case "scaling":
		return formula.Scaling, nil
	case "diffadd":
		return formula.DiffAdd, nil
	case "ladder":
		return formula.Ladder, nil
	}
	return 0, fmt.Errorf("unknown formula kind directory %q", dir)
}

func loadFormulaDir(c *model.CoordinateModel, base string, kind formula.Kind, reg map[string]*formula.Formula) error {
	entries, err := dataFS.ReadDir(base)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".op3") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".op3")
		f, err := loadFormula(c, base, name, kind)
		if err != nil {
			lerr := ecsim.NewFormulaLoadError(name, "malformed formula source", err)
			logger.Warn("skipping formula", zap.String("coords", c.String()), zap.Error(lerr))
			continue
		}
		reg[name] = f
	}
	return nil
}

func loadFormula(c *model.CoordinateModel, base, name string, kind formula.Kind) (*formula.Formula, error) {
	f := &formula.Formula{
		Name:   name,
		Kind:   kind,
		Coords: c,
	}
	// Metadata lives next to the listing. A listing on its own is an
	// opaque formula: it runs, but carries no provenance.
	metaPath := path.Join(base, name)
	if _, err := fs.Stat(dataFS, metaPath); err != nil {
		f.Opaque = true
	} else if err := parseLines(metaPath, func(key, rest string) error {
		switch key {
		case "source":
			// Provenance note, not used at runtime.
		case "unified":
			f.Unified = rest == "true"
		case "parameter":
			f.Parameters = append(f.Parameters, rest)
		case "assume":
			a, err := op.ParseAssignment(rest)
			if err != nil {
				return err
			}
			f.Assumptions = append(f.Assumptions, a)
		default:
			return fmt.Errorf("unknown formula key %q", key)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if err := parseRawLines(path.Join(base, name+".op3"), func(line string) error {
		o, err := op.ParseOp(line)
		if err != nil {
			return err
		}
		f.Code = append(f.Code, o)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// parseLines reads a key/rest line file, skipping blanks and comments.
func parseLines(p string, fn func(key, rest string) error) error {
	return parseRawLines(p, func(line string) error {
		key, rest, _ := strings.Cut(line, " ")
		return fn(key, strings.TrimSpace(rest))
	})
}

func parseRawLines(p string, fn func(line string) error) error {
	file, err := dataFS.Open(p)
	if err != nil {
		return err
	}
	defer file.Close()
	sc := bufio.NewScanner(file)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("%s:%d: %w", p, lineNo, err)
		}
	}
	return sc.Err()
}

func splitEquation(s string) (op.Expr, op.Expr, error) {
	l, r, ok := strings.Cut(s, "=")
	if !ok {
		return nil, nil, fmt.Errorf("equation %q has no =", s)
	}
	lhs, err := op.ParseExpr(strings.TrimSpace(l))
	if err != nil {
		return nil, nil, err
	}
	rhs, err := op.ParseExpr(strings.TrimSpace(r))
	if err != nil {
		return nil, nil, err
	}
	return lhs, rhs, nil
}
