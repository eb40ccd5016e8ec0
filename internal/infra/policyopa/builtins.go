package policyopa

import "github.com/open-policy-agent/opa/ast"

var allowedBuiltins = map[string]struct{}{
	"and":        {},
	"assign":     {},
	"concat":     {},
	"count":      {},
	"endswith":   {},
	"eq":         {},
	"equal":      {},
	"format_int": {},
	"gt":         {},
	"gte":        {},
	"lower":      {},
	"lt":         {},
	"lte":        {},
	"max":        {},
	"min":        {},
	"neq":        {},
	"object.get": {},
	"or":         {},
	"sort":       {},
	"sprintf":    {},
	"startswith": {},
	"trim":       {},
	"upper":      {},
}

func filterBuiltins(builtins []*ast.Builtin) []*ast.Builtin {
	allowed := make([]*ast.Builtin, 0, len(builtins))
	for _, builtin := range builtins {
		if _, ok := allowedBuiltins[builtin.Name]; !ok {
			continue
		}
		allowed = append(allowed, builtin)
	}
	return allowed
}
