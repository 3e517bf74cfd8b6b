package tracking

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/travigo/treni/pkg/ctdf"
)

// ConditionEnv is what a registration condition can refer to, for example
// `Event == "TrainDelayChanged" && Delay >= 10` or `Stop == "Firenze Santa Maria Novella"`.
type ConditionEnv struct {
	Event string

	Train       string
	Kind        string
	Origin      string
	Destination string

	Delay     int
	DelayFrom int

	Status     string
	StatusFrom string

	Stop    string
	Minutes int
}

func NewConditionEnv(event ctdf.Event) ConditionEnv {
	body := event.Body

	env := ConditionEnv{
		Event:       string(event.Type),
		Train:       body.TrainNumber,
		Kind:        body.KindLabel,
		Origin:      body.Origin,
		Destination: body.Destination,
		Status:      string(body.StatusTo),
		StatusFrom:  string(body.StatusFrom),
		Stop:        body.StopName,
		Minutes:     body.ThresholdMinutes,
	}

	if body.DelayTo != nil {
		env.Delay = *body.DelayTo
	}
	if body.DelayFrom != nil {
		env.DelayFrom = *body.DelayFrom
	}

	return env
}

type Condition struct {
	source  string
	program *vm.Program
}

func CompileCondition(source string) (*Condition, error) {
	program, err := expr.Compile(source, expr.Env(ConditionEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid condition %q: %w", source, err)
	}

	return &Condition{source: source, program: program}, nil
}

func (c *Condition) Allows(env ConditionEnv) (bool, error) {
	output, err := expr.Run(c.program, env)
	if err != nil {
		return false, err
	}

	allowed, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return a boolean", c.source)
	}

	return allowed, nil
}

// Allows reports whether the registration wants event delivered. An empty
// condition allows everything.
func (r *Registration) Allows(event ctdf.Event) (bool, error) {
	if r.Condition == "" {
		return true, nil
	}

	condition, err := CompileCondition(r.Condition)
	if err != nil {
		return false, err
	}

	return condition.Allows(NewConditionEnv(event))
}
