package hub

import (
	"iter"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
	"github.com/vsariola/sketch"
)

// predicate is a compiled "disabled" expression. It is evaluated against
// the resolved values of the other controls.
type predicate struct {
	program *vm.Program
}

// truthyFunc turns a control value into a condition: the checkbox value,
// a non-zero number or a non-empty option.
const truthyFunc = "truthy"

func truthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		return v != ""
	}
	return false
}

// conditions wraps the bare control references used as conditions, e.g.
// the operands of "not" and "and", in a truthy call, so that sliders and
// selects can be tested like checkboxes.
type conditions struct{}

func (conditions) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.UnaryNode:
		if n.Operator == "not" || n.Operator == "!" {
			wrapCondition(&n.Node)
		}
	case *ast.BinaryNode:
		switch n.Operator {
		case "and", "&&", "or", "||":
			wrapCondition(&n.Left)
			wrapCondition(&n.Right)
		}
	case *ast.ConditionalNode:
		wrapCondition(&n.Cond)
	}
}

func wrapCondition(node *ast.Node) {
	id, ok := (*node).(*ast.IdentifierNode)
	if !ok {
		return
	}
	ast.Patch(node, &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: truthyFunc},
		Arguments: []ast.Node{&ast.IdentifierNode{Value: id.Value}},
	})
}

type identifiers []string

func (ids *identifiers) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok && !slices.Contains(*ids, id.Value) {
		*ids = append(*ids, id.Value)
	}
}

// predicateEnv maps the names of the controls a predicate may refer to
// to the values in which expr-lang sees them. Separators hold no value.
func predicateEnv(controls iter.Seq[*Control], value func(*Control) sketch.Value) map[string]any {
	env := map[string]any{}
	for c := range controls {
		if c.Kind != sketch.Separator {
			env[c.Name] = exprValue(value(c))
		}
	}
	return env
}

func exprValue(v sketch.Value) any {
	switch v.Kind() {
	case sketch.FloatKind:
		return v.Float()
	case sketch.BoolKind:
		return v.Bool()
	case sketch.StringKind:
		return v.Text()
	}
	return nil
}

// compilePredicate compiles a disabled predicate such as "not animate",
// "mode == 'noise' and !smooth" or "(a || b) && steps != 3". types gives a
// value of the right kind for every control that may be referenced;
// unknown names are errors. The control names referenced by the expression
// are returned.
func compilePredicate(src string, types map[string]any) (*predicate, []string, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrInvalidEntry, "disabled expression %q: %v", src, err)
	}
	if _, ok := tree.Node.(*ast.IdentifierNode); ok {
		// a lone reference is a condition too
		src = truthyFunc + "(" + src + ")"
	}
	var ids identifiers
	ast.Walk(&tree.Node, &ids)
	program, err := expr.Compile(src,
		expr.Env(types),
		expr.AsBool(),
		expr.Patch(conditions{}),
		expr.Function(truthyFunc, func(params ...any) (any, error) {
			return truthy(params[0]), nil
		}, new(func(any) bool)),
	)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrInvalidEntry, "disabled expression %q: %v", src, err)
	}
	var refs []string
	for _, id := range ids {
		if _, ok := types[id]; ok {
			refs = append(refs, id)
		}
	}
	return &predicate{program: program}, refs, nil
}

// eval runs the predicate. A runtime failure counts as not disabled.
func (p *predicate) eval(env map[string]any) bool {
	out, err := expr.Run(p.program, env)
	if err != nil {
		return false
	}
	b, _ := out.(bool)
	return b
}
