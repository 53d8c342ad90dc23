package avmat

import (
	"fmt"

	"go.uber.org/zap"
)

// Env is what an operator runs against.
type Env struct {
	Scene *Scene
	Log   *zap.Logger
}

func (env *Env) logger() *zap.Logger {
	if env.Log == nil {
		return zap.NewNop()
	}
	return env.Log
}

// Report is the user-facing summary of one operator run.
type Report struct {
	Level   ReportLevel `json:"level"`
	Message string      `json:"message"`
	Count   int         `json:"count"`
}

func infoReport(count int, format string, args ...interface{}) *Report {
	return &Report{Level: REPORT_INFO, Message: fmt.Sprintf(format, args...), Count: count}
}

type Operator interface {
	// Name is the command name, e.g. "combine".
	Name() string
	Desc() string
	// Poll reports whether the operator can run on the scene.
	Poll(s *Scene) bool
	Execute(env *Env) (*Report, error)
}

// Operators returns every operator in menu order.
func Operators() []Operator {
	return []Operator{
		CombineMaterials{},
		OneTexPerMat{},
		OneTexPerMatOnly{},
		StandardizeTextures{},
	}
}

// FindOperator looks an operator up by command name.
func FindOperator(name string) (Operator, bool) {
	for _, op := range Operators() {
		if op.Name() == name {
			return op, true
		}
	}
	return nil, false
}

// Run executes op after checking its availability.
func Run(op Operator, env *Env) (*Report, error) {
	if !op.Poll(env.Scene) {
		return nil, fmt.Errorf("%s: %w", op.Name(), ErrNotRunnable)
	}
	log := env.logger().With(zap.String("operator", op.Name()))
	log.Debug("running operator")
	rep, err := op.Execute(&Env{Scene: env.Scene, Log: log})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name(), err)
	}
	log.Info(rep.Message, zap.Int("count", rep.Count))
	return rep, nil
}

// hasArmatureAndMeshes is the availability check shared by the material operators.
func hasArmatureAndMeshes(s *Scene) bool {
	if s == nil || s.Armature() == nil {
		return false
	}
	return len(s.Meshes()) > 0
}
