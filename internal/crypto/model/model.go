// Package model describes curve equation families and the coordinate
// systems they support. Instances are built once by the database loader
// and are immutable afterwards; they are safe to share between any
// number of concurrent evaluations.
package model

import (
	"fmt"

	"github.com/smallyu/go-ecc-sim/internal/crypto/op"
)

// CurveModel is one curve equation family (short Weierstrass,
// Montgomery, twisted Edwards).
type CurveModel struct {
	// Name is the human-readable name, e.g. "Short Weierstrass".
	Name string

	// ShortName is the database identifier, e.g. "shortw".
	ShortName string

	// ParameterNames lists the curve parameters, e.g. ["a", "b"].
	ParameterNames []string

	// EquationLHS = EquationRHS is the defining equation over affine x, y.
	EquationLHS op.Expr
	EquationRHS op.Expr

	// YSquared expresses y^2 as a function of x, used for lifting
	// x-coordinates and point decompression.
	YSquared op.Expr

	// Affine group law over variables x1,y1[,x2,y2], assigning x and y.
	BaseAddition []op.Assignment
	BaseDoubling []op.Assignment
	BaseNegation []op.Assignment

	// BaseNeutral assigns affine coordinates of the neutral point, when
	// the model has a finite neutral point (twisted Edwards). Empty for
	// models whose neutral is the point at infinity.
	BaseNeutral []op.Assignment

	// Coordinates are the non-affine coordinate systems, by name.
	Coordinates map[string]*CoordinateModel

	affine *CoordinateModel
}

// HasAffineNeutral reports whether the neutral point of the model is a
// finite affine point.
func (m *CurveModel) HasAffineNeutral() bool {
	return len(m.BaseNeutral) > 0
}

// Affine returns the affine coordinate system of the model. There is
// exactly one per model.
func (m *CurveModel) Affine() *CoordinateModel {
	if m.affine == nil {
		m.affine = &CoordinateModel{
			Name:      "affine",
			FullName:  "Affine coordinates",
			Model:     m,
			Variables: []string{"x", "y"},
		}
	}
	return m.affine
}

// Coords looks up a coordinate system of this model by name, with
// "affine" resolving to the affine system.
func (m *CurveModel) Coords(name string) (*CoordinateModel, error) {
	if name == "affine" {
		return m.Affine(), nil
	}
	c, ok := m.Coordinates[name]
	if !ok {
		return nil, fmt.Errorf("model %s has no coordinate system %q", m.ShortName, name)
	}
	return c, nil
}

func (m *CurveModel) String() string {
	return m.ShortName
}

// CoordinateModel is one concrete encoding of curve points for one
// curve model.
type CoordinateModel struct {
	// Name is the database identifier, e.g. "jacobian".
	Name string

	// FullName is the human-readable name.
	FullName string

	// Model is the curve model this system belongs to.
	Model *CurveModel

	// Variables are the point coordinates in database order, e.g. X, Y, Z.
	Variables []string

	// Satisfying relates system coordinates to affine x, y.
	Satisfying []op.Assignment

	// ToAffine maps system coordinates to affine ones.
	ToAffine []op.Assignment

	// FromAffine maps affine coordinates into the system.
	FromAffine []op.Assignment

	// HomogWeights are the projective weights of each variable: a point
	// is unchanged under scaling every variable v by lambda^weight(v).
	HomogWeights map[string]int

	// Parameters are extra parameters the system introduces, e.g. a24.
	Parameters []string

	// Assumptions either constrain curve parameters (a = -3) or define
	// the values of coordinate system parameters (a24 = (a+2)/4).
	Assumptions []op.Assignment
}

// IsAffine reports whether this is the affine system of its model.
func (c *CoordinateModel) IsAffine() bool {
	return c.Name == "affine"
}

// HasVariable reports whether the named coordinate belongs to the system.
func (c *CoordinateModel) HasVariable(name string) bool {
	for _, v := range c.Variables {
		if v == name {
			return true
		}
	}
	return false
}

func (c *CoordinateModel) String() string {
	return c.Model.ShortName + "/" + c.Name
}
