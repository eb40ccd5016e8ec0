package policyopa

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ipshield/internal/domain"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.ipshield.registration.result"

//go:embed registration.rego
var defaultPolicy string

// Engine evaluates the registration eligibility policy.
type Engine struct {
	query  rego.PreparedEvalQuery
	source string
}

// NewEngine prepares the embedded policy, or the policy files under
// policyPath when it is set.
func NewEngine(ctx context.Context, policyPath string) (*Engine, error) {
	capabilities := ast.CapabilitiesForThisVersion()
	capabilities.Builtins = filterBuiltins(capabilities.Builtins)
	compiler := ast.NewCompiler().WithCapabilities(capabilities)

	source := "embedded"
	opts := []func(*rego.Rego){
		rego.Query(defaultQuery),
		rego.Compiler(compiler),
		rego.StrictBuiltinErrors(true),
	}
	if strings.TrimSpace(policyPath) != "" {
		source = policyPath
		opts = append(opts, rego.Load([]string{policyPath}, nil))
	} else {
		opts = append(opts, rego.Module("registration.rego", defaultPolicy))
	}

	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare eligibility policy: %w", err)
	}
	if err := assertNoForbiddenBuiltins(compiler); err != nil {
		return nil, err
	}
	return &Engine{query: prepared, source: source}, nil
}

func (e *Engine) Source() string {
	return e.source
}

func (e *Engine) Evaluate(ctx context.Context, input domain.EligibilityInput) (domain.EligibilityDecision, error) {
	if e == nil {
		return domain.EligibilityDecision{}, errors.New("policy engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.EligibilityDecision{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.EligibilityDecision{}, errors.New("empty policy result")
	}
	decision, err := decodeDecision(results[0].Expressions[0].Value)
	if err != nil {
		return domain.EligibilityDecision{}, err
	}
	normalizeDecision(&decision)
	return decision, nil
}

func decodeDecision(value any) (domain.EligibilityDecision, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return domain.EligibilityDecision{}, err
	}
	var decision domain.EligibilityDecision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return domain.EligibilityDecision{}, err
	}
	return decision, nil
}

func normalizeDecision(decision *domain.EligibilityDecision) {
	if decision.Deny == nil {
		decision.Deny = []domain.EligibilityDenial{}
	}
	sort.Slice(decision.Deny, func(i, j int) bool {
		if decision.Deny[i].Code == decision.Deny[j].Code {
			return decision.Deny[i].Message < decision.Deny[j].Message
		}
		return decision.Deny[i].Code < decision.Deny[j].Code
	})
	// A policy that allows while also listing denials is treated as a deny.
	if len(decision.Deny) > 0 {
		decision.Allow = false
	}
}

func assertNoForbiddenBuiltins(compiler *ast.Compiler) error {
	if compiler == nil {
		return errors.New("policy compiler is nil")
	}
	forbidden := make(map[string]struct{})
	for _, module := range compiler.Modules {
		ast.WalkTerms(module, func(term *ast.Term) bool {
			call, ok := term.Value.(ast.Call)
			if !ok || len(call) == 0 || call[0] == nil {
				return false
			}
			name := call[0].Value.String()
			if _, ok := ast.BuiltinMap[name]; !ok {
				return false
			}
			if _, ok := allowedBuiltins[name]; ok {
				return false
			}
			forbidden[name] = struct{}{}
			return false
		})
	}
	if len(forbidden) == 0 {
		return nil
	}
	names := make([]string, 0, len(forbidden))
	for name := range forbidden {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("forbidden builtins: %s", strings.Join(names, ", "))
}
