// Package extractor discovers the GTS identifier and schema identifier
// inside an arbitrary JSON document and classifies the document as a schema
// or an instance.
package extractor

import (
	"strings"

	"github.com/globaltype/gts/idcodec"
	"github.com/globaltype/gts/jsonval"
)

// EntityIDCandidates is the prioritized list of fields searched for an
// entity's own identifier; the first populated string field wins.
var EntityIDCandidates = []string{
	"$id", "$$id", "gtsId", "gtsIid", "gtsOid", "gtsI", "gts_id", "gts_oid", "gts_iid", "id",
}

// SchemaIDCandidates is the prioritized list of fields searched for an
// instance's schema identifier (or a schema's own schema-meta field).
var SchemaIDCandidates = []string{
	"$schema", "$$schema", "gtsTid", "gtsType", "gtsT", "gts_t", "gts_tid", "gts_type", "type", "schema",
}

const metaSchemaMarker = "json-schema.org"

// Result records the outcome of extraction, including which candidate
// fields supplied each value so callers can diagnose ambiguous documents.
type Result struct {
	ID                    string
	SchemaID              string
	IsSchema              bool
	SelectedEntityField   string
	SelectedSchemaIDField string
}

// Extract inspects doc (an object-shaped jsonval.Value) and produces a
// Result. A document missing any usable id yields a Result with an empty ID.
func Extract(doc jsonval.Value) Result {
	obj, ok := doc.Object()
	if !ok {
		return Result{}
	}

	var res Result

	for _, field := range EntityIDCandidates {
		v, ok := obj.Get(field)
		if !ok {
			continue
		}
		str, isStr := v.Str()
		if !isStr || str == "" {
			continue
		}
		if field == "$id" || field == "$$id" {
			str = idcodec.Canonicalize(str)
		}
		res.ID = str
		res.SelectedEntityField = field
		break
	}

	schemaField, schemaRaw, isSchema := classify(obj)
	res.IsSchema = isSchema

	if isSchema {
		res.SchemaID = schemaIDForSchema(res.ID, schemaField, schemaRaw)
		res.SelectedSchemaIDField = schemaField
		return res
	}

	res.SchemaID, res.SelectedSchemaIDField = schemaIDForInstance(obj, res.ID, res.SelectedEntityField)
	return res
}

// classify implements the deliberate rule from spec §4.2: a document is a
// schema iff it carries a $schema/$$schema field whose value is a
// JSON-Schema meta-schema URL or a gts-style identifier. Absence of that
// field always yields "instance", regardless of any other field present.
func classify(obj *jsonval.Object) (field string, value string, isSchema bool) {
	for _, f := range []string{"$schema", "$$schema"} {
		v, ok := obj.Get(f)
		if !ok {
			continue
		}
		str, isStr := v.Str()
		if !isStr {
			continue
		}
		if strings.Contains(str, metaSchemaMarker) || strings.HasPrefix(str, "gts://") || strings.HasPrefix(str, "gts.") {
			return f, str, true
		}
		return f, str, false
	}
	return "", "", false
}

func schemaIDForSchema(id string, schemaField string, schemaRaw string) string {
	parsed, err := idcodec.Parse(id)
	if err == nil && parsed.IsType {
		typeSegCount := 0
		for _, seg := range parsed.Segments {
			if seg.IsType {
				typeSegCount++
			}
		}
		if typeSegCount > 1 {
			if sid, ok := idcodec.SchemaIDOf(parsed); ok {
				return sid
			}
		}
	}
	return idcodec.Canonicalize(schemaRaw)
}

func schemaIDForInstance(obj *jsonval.Object, id string, idField string) (string, string) {
	parsed, err := idcodec.Parse(id)
	chained := err == nil && len(parsed.Segments) > 1

	if idField != "$id" && idField != "$$id" && chained && !parsed.IsType {
		if sid, ok := idcodec.SchemaIDOf(parsed); ok {
			return sid, idField
		}
	}

	for _, field := range SchemaIDCandidates {
		v, ok := obj.Get(field)
		if !ok {
			continue
		}
		str, isStr := v.Str()
		if !isStr || str == "" {
			continue
		}
		candidate := idcodec.Canonicalize(str)
		if idcodec.IsValid(candidate) {
			return candidate, field
		}
	}

	if chained {
		if sid, ok := idcodec.SchemaIDOf(parsed); ok {
			return sid, idField
		}
	}

	return "", ""
}
