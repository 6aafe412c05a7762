// Package params holds standard domain parameters: named curves with
// their field, coefficients, generator, order and cofactor. The curve
// database ships embedded in the binary.
package params

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/efd"
	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
	"github.com/smallyu/go-ecc-sim/internal/crypto/model"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

//go:embed curves.json
var curvesJSON []byte

// Domain is one set of validated domain parameters, bound to a curve
// in a particular coordinate system and field backend.
type Domain struct {
	Name     string
	Category string
	Curve    *curve.Curve
	// Generator is the base point, in the curve's coordinate system.
	Generator curve.Point
	// Order is the order of the generator's subgroup.
	Order *big.Int
	// Cofactor is the index of that subgroup in the full group.
	Cofactor *big.Int
}

type dbEntry struct {
	Name      string            `json:"name"`
	Category  string            `json:"category"`
	Model     string            `json:"model"`
	P         string            `json:"p"`
	Params    map[string]string `json:"params"`
	Generator struct {
		X string `json:"x"`
		Y string `json:"y"`
	} `json:"generator"`
	Order    string `json:"order"`
	Cofactor string `json:"cofactor"`
}

var (
	dbOnce sync.Once
	db     map[string]dbEntry
	dbErr  error
	logger = zap.NewNop()
)

// SetLogger installs a logger for database diagnostics.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

func loadDB() {
	var entries []dbEntry
	if err := json.Unmarshal(curvesJSON, &entries); err != nil {
		dbErr = fmt.Errorf("parse curve database: %w", err)
		return
	}
	db = make(map[string]dbEntry, len(entries))
	for _, e := range entries {
		db[e.Name] = e
	}
	logger.Info("curve database loaded", zap.Int("curves", len(entries)))
}

// Names lists the curves in the database, sorted.
func Names() ([]string, error) {
	dbOnce.Do(loadDB)
	if dbErr != nil {
		return nil, dbErr
	}
	out := make([]string, 0, len(db))
	for n := range db {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func parseHex(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("malformed integer %q", s)
	}
	return v, nil
}

// Load builds the named curve over the given coordinate system and
// field backend, validating the parameters on the way. The coordinate
// system name may be "affine".
func Load(name, coordsName string, backend field.Backend) (*Domain, error) {
	dbOnce.Do(loadDB)
	if dbErr != nil {
		return nil, dbErr
	}
	e, ok := db[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown curve %q", ecsim.ErrInvalidDomainParameters, name)
	}
	m, err := efd.GetModel(e.Model)
	if err != nil {
		return nil, err
	}
	coords, err := m.Coords(coordsName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ecsim.ErrUnsupportedConfiguration, err)
	}
	return build(e, m, coords, backend)
}

func build(e dbEntry, m *model.CurveModel, coords *model.CoordinateModel, backend field.Backend) (*Domain, error) {
	p, err := parseHex(e.P)
	if err != nil {
		return nil, err
	}
	if !p.ProbablyPrime(32) {
		return nil, fmt.Errorf("%w: field modulus of %s is not prime", ecsim.ErrInvalidDomainParameters, e.Name)
	}
	fld := backend.Field(p)
	pv := make(map[string]field.Element, len(e.Params))
	for k, v := range e.Params {
		x, err := parseHex(v)
		if err != nil {
			return nil, err
		}
		pv[k] = fld.FromInt(x)
	}
	c, err := curve.NewCurve(m, coords, fld, pv)
	if err != nil {
		return nil, err
	}
	gx, err := parseHex(e.Generator.X)
	if err != nil {
		return nil, err
	}
	gy, err := parseHex(e.Generator.Y)
	if err != nil {
		return nil, err
	}
	order, err := parseHex(e.Order)
	if err != nil {
		return nil, err
	}
	cofactor, err := parseHex(e.Cofactor)
	if err != nil {
		return nil, err
	}
	gen := curve.NewPoint(m.Affine(), map[string]field.Element{
		"x": fld.FromInt(gx),
		"y": fld.FromInt(gy),
	})
	d := &Domain{
		Name:     e.Name,
		Category: e.Category,
		Curve:    c,
		Order:    order,
		Cofactor: cofactor,
	}
	if err := d.validate(gen); err != nil {
		return nil, err
	}
	g, err := c.FromAffine(gen)
	if err != nil {
		return nil, err
	}
	d.Generator = g
	return d, nil
}

// validate checks the generator lies on the curve and generates a
// subgroup of the declared order.
func (d *Domain) validate(gen curve.Point) error {
	on, err := d.Curve.IsOnCurve(gen)
	if err != nil {
		return err
	}
	if !on {
		return fmt.Errorf("%w: generator of %s is not on the curve", ecsim.ErrInvalidDomainParameters, d.Name)
	}
	if d.Order.Sign() <= 0 || d.Cofactor.Sign() <= 0 {
		return fmt.Errorf("%w: order and cofactor of %s must be positive", ecsim.ErrInvalidDomainParameters, d.Name)
	}
	q, err := d.Curve.AffineMultiply(d.Order, gen)
	if err != nil {
		return err
	}
	if !d.Curve.IsNeutral(q) {
		return fmt.Errorf("%w: generator of %s does not have the declared order", ecsim.ErrInvalidDomainParameters, d.Name)
	}
	return nil
}

// ScalarBytes is the byte length of scalars modulo the order.
func (d *Domain) ScalarBytes() int {
	return (d.Order.BitLen() + 7) / 8
}
