// Package validate implements InstanceValidator: it composes the compiled
// JSON-Schema engine with XRefValidator to judge a registered instance
// against its schema.
package validate

import (
	"fmt"
	"strings"

	"github.com/globaltype/gts/internal/jsonschema"
	"github.com/globaltype/gts/issue"
	"github.com/globaltype/gts/normalize"
	"github.com/globaltype/gts/registry"
	"github.com/globaltype/gts/xref"
)

// Store is the subset of *registry.Registry InstanceValidator needs.
type Store interface {
	Get(id string) (registry.Entity, bool)
	Schema(id string) (*jsonschema.Schema, bool)
	Has(id string) bool
}

// Result is the validateInstance verdict. Issues is the closed issue.Issues
// currency (see the root gts package's re-export); Error remains a
// human-readable summary of the same failures for callers that just want a
// string.
type Result struct {
	ID     string
	Ok     bool
	Valid  bool
	Error  string
	Issues issue.Issues
}

// Instance resolves id in store, requires it to carry a schema_id that
// itself resolves to a schema entity, and judges the instance's content
// against the compiled schema and its x-gts-ref constraints in order.
func Instance(store Store, id string) Result {
	entity, ok := store.Get(id)
	if !ok {
		return Result{ID: id, Error: "entity-not-found"}
	}
	if entity.SchemaID == "" {
		return Result{ID: id, Error: "schema-not-found"}
	}
	schemaEntity, ok := store.Get(entity.SchemaID)
	if !ok || !schemaEntity.IsSchema {
		return Result{ID: id, Error: "schema-not-found"}
	}

	compiled, ok := store.Schema(entity.SchemaID)
	if !ok {
		return Result{ID: id, Error: "schema-not-found"}
	}

	if schemaIssues := compiled.Validate(entity.Content); len(schemaIssues) > 0 {
		return Result{
			ID: id, Ok: true, Valid: false,
			Error:  joinSchemaIssues(schemaIssues),
			Issues: issue.AppendIssues(nil, schemaIssues.ToIssue()...),
		}
	}

	xrefSchema := normalize.CanonicalizeDialect(schemaEntity.Content)
	if xrefIssues := xref.Validate(xrefSchema, entity.Content, xrefSchema, store); len(xrefIssues) > 0 {
		return Result{
			ID: id, Ok: true, Valid: false,
			Error:  joinXRefIssues(xrefIssues),
			Issues: issue.AppendIssues(nil, xrefIssues.ToIssue()...),
		}
	}

	return Result{ID: id, Ok: true, Valid: true}
}

// joinSchemaIssues formats each failure as "instancePath message", with the
// required-property special case spec'd in §4.6: "instancePath must have
// required property 'P'".
func joinSchemaIssues(issues jsonschema.Issues) string {
	parts := make([]string, len(issues))
	for i, it := range issues {
		if it.Keyword == "required" {
			prop, _ := it.Params["missingProperty"].(string)
			parts[i] = fmt.Sprintf("%s must have required property '%s'", it.InstancePath, prop)
			continue
		}
		parts[i] = fmt.Sprintf("%s %s", it.InstancePath, it.Message)
	}
	return strings.Join(parts, "; ")
}

func joinXRefIssues(issues xref.Issues) string {
	parts := make([]string, len(issues))
	for i, it := range issues {
		parts[i] = fmt.Sprintf("%s %s", it.InstancePath, it.Message)
	}
	return strings.Join(parts, "; ")
}
