package cel

import (
	"path/filepath"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/actiongate/actiongate/internal/domain/policy"
)

// NewAdmissionEnvironment creates a CEL environment for web invocation
// admission rules. Variables:
//   - namespace, package, action: the addressed entity
//   - method: lowercased HTTP verb
//   - extension: requested media extension (".json", ".http", ...)
//   - authenticated: whether the caller presented valid credentials
//   - subject: authenticated caller subject, or ""
//   - query: query parameter name -> first value
//   - request_time: receive timestamp
//
// Custom functions:
//   - glob(pattern, name): filepath-style glob matching
func NewAdmissionEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		ext.Strings(),
		ext.Sets(),

		cel.Variable("namespace", cel.StringType),
		cel.Variable("package", cel.StringType),
		cel.Variable("action", cel.StringType),
		cel.Variable("method", cel.StringType),
		cel.Variable("extension", cel.StringType),
		cel.Variable("authenticated", cel.BoolType),
		cel.Variable("subject", cel.StringType),
		cel.Variable("query", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("request_time", cel.TimestampType),

		cel.Function("glob",
			cel.Overload("glob_string_string",
				[]*cel.Type{cel.StringType, cel.StringType},
				cel.BoolType,
				cel.BinaryBinding(func(pattern, name ref.Val) ref.Val {
					p := pattern.Value().(string)
					n := name.Value().(string)
					matched, _ := filepath.Match(p, n)
					return types.Bool(matched)
				}),
			),
		),
	)
}

// BuildActivation creates a CEL activation map from an EvaluationContext.
func BuildActivation(evalCtx policy.EvaluationContext) map[string]any {
	query := evalCtx.Query
	if query == nil {
		query = map[string]string{}
	}

	return map[string]any{
		"namespace":     evalCtx.Namespace,
		"package":       evalCtx.Package,
		"action":        evalCtx.Action,
		"method":        evalCtx.Method,
		"extension":     evalCtx.Extension,
		"authenticated": evalCtx.Authenticated,
		"subject":       evalCtx.Subject,
		"query":         query,
		"request_time":  evalCtx.RequestTime,
	}
}
