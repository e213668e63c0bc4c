package patch

import (
	"github.com/tsawler/tabulary/run"
)

// FieldSet answers whether a field name is registered. The field registry
// satisfies it; tests can use any map-backed implementation.
type FieldSet interface {
	Has(name string) bool
}

// NormalizeTransform collapses a transform's result into a Patch, enforcing
// the pipeline invariants: every vector has exactly rowCount entries, every
// touched field is registered, and every issue is well formed. Violations are
// fatal pipeline errors.
func NormalizeTransform(res TransformResult, invoking string, rowCount int, fields FieldSet) (*Patch, error) {
	out := New()

	switch res.shape {
	case shapeNone:
		return out, nil

	case shapeVector:
		if err := checkField(invoking, fields); err != nil {
			return nil, err
		}
		if err := checkVector(invoking, len(res.vector), rowCount); err != nil {
			return nil, err
		}
		out.Values[invoking] = res.vector
		return out, nil

	case shapeVectors:
		for name, vec := range res.vectors {
			if err := checkField(name, fields); err != nil {
				return nil, err
			}
			if err := checkVector(name, len(vec), rowCount); err != nil {
				return nil, err
			}
			out.Values[name] = vec
		}
		return out, nil

	case shapePatch:
		return normalizeEnvelope(res.patch, rowCount, fields, false)

	default:
		return nil, run.Pipelinef(run.StagePatch, "unknown transform result shape %d", res.shape)
	}
}

// NormalizeValidator collapses a validator's result into a Patch. Beyond the
// shared invariants, validators may not write values: an envelope with a
// non-empty Values map is a fatal pipeline error.
func NormalizeValidator(res ValidatorResult, invoking string, rowCount int, fields FieldSet) (*Patch, error) {
	out := New()

	switch res.shape {
	case shapeNone:
		return out, nil

	case shapeRecords:
		for _, rec := range res.records {
			field := rec.Field
			if field == "" {
				field = invoking
			}
			if err := checkField(field, fields); err != nil {
				return nil, err
			}
			if rec.Row < 0 || rec.Row >= rowCount {
				return nil, run.Pipelinef(run.StagePatch,
					"issue record for field %q addresses row %d, want [0, %d)", field, rec.Row, rowCount)
			}
			iss, err := normalizeIssue(rec.Issue)
			if err != nil {
				return nil, run.Pipelinef(run.StagePatch, "field %q row %d: %v", field, rec.Row, err)
			}
			cells := out.Issues[field]
			if cells == nil {
				cells = make([]IssueCell, rowCount)
				out.Issues[field] = cells
			}
			cells[rec.Row] = append(cells[rec.Row], iss)
		}
		return out, nil

	case shapeIssueVector:
		if err := checkField(invoking, fields); err != nil {
			return nil, err
		}
		if len(res.cells) != rowCount {
			return nil, run.Pipelinef(run.StagePatch,
				"issue vector for field %q has length %d, want %d", invoking, len(res.cells), rowCount)
		}
		cells := make([]IssueCell, rowCount)
		for i, cell := range res.cells {
			for _, raw := range cell {
				iss, err := normalizeIssue(raw)
				if err != nil {
					return nil, run.Pipelinef(run.StagePatch, "field %q row %d: %v", invoking, i, err)
				}
				cells[i] = append(cells[i], iss)
			}
		}
		out.Issues[invoking] = cells
		return out, nil

	case shapePatch:
		return normalizeEnvelope(res.patch, rowCount, fields, true)

	default:
		return nil, run.Pipelinef(run.StagePatch, "unknown validator result shape %d", res.shape)
	}
}

// normalizeEnvelope validates a full patch envelope. valuesForbidden is set
// for validators, which may only attach issues and metadata.
func normalizeEnvelope(p *Patch, rowCount int, fields FieldSet, valuesForbidden bool) (*Patch, error) {
	out := New()
	if p == nil {
		return out, nil
	}

	if valuesForbidden && len(p.Values) > 0 {
		return nil, run.Pipelinef(run.StagePatch, "validator patch writes values for %d field(s)", len(p.Values))
	}

	for name, vec := range p.Values {
		if err := checkField(name, fields); err != nil {
			return nil, err
		}
		if err := checkVector(name, len(vec), rowCount); err != nil {
			return nil, err
		}
		out.Values[name] = vec
	}

	for name, cells := range p.Issues {
		if err := checkField(name, fields); err != nil {
			return nil, err
		}
		if len(cells) != rowCount {
			return nil, run.Pipelinef(run.StagePatch,
				"issue vector for field %q has length %d, want %d", name, len(cells), rowCount)
		}
		normalized := make([]IssueCell, rowCount)
		for i, cell := range cells {
			for _, raw := range cell {
				iss, err := normalizeIssue(raw)
				if err != nil {
					return nil, run.Pipelinef(run.StagePatch, "field %q row %d: %v", name, i, err)
				}
				normalized[i] = append(normalized[i], iss)
			}
		}
		out.Issues[name] = normalized
	}

	for k, v := range p.Meta {
		out.Meta[k] = v
	}

	return out, nil
}

// Merge folds src into dst. Value vectors replace wholesale, so a later
// patch's vector wins. Issue cells concatenate per (field, row): findings
// are never dropped. Metadata merges key-wise with src winning.
func Merge(dst, src *Patch) error {
	if src == nil || src.IsEmpty() {
		return nil
	}

	for name, vec := range src.Values {
		if existing, ok := dst.Values[name]; ok && len(existing) != len(vec) {
			return run.Pipelinef(run.StagePatch,
				"merge: vector for field %q has length %d, want %d", name, len(vec), len(existing))
		}
		dst.Values[name] = vec
	}

	for name, cells := range src.Issues {
		existing, ok := dst.Issues[name]
		if !ok {
			merged := make([]IssueCell, len(cells))
			copy(merged, cells)
			dst.Issues[name] = merged
			continue
		}
		if len(existing) != len(cells) {
			return run.Pipelinef(run.StagePatch,
				"merge: issue vector for field %q has length %d, want %d", name, len(cells), len(existing))
		}
		for i, cell := range cells {
			if len(cell) == 0 {
				continue
			}
			existing[i] = append(existing[i], cell...)
		}
	}

	for k, v := range src.Meta {
		dst.Meta[k] = v
	}

	return nil
}

func checkField(name string, fields FieldSet) error {
	if !fields.Has(name) {
		return run.Pipelinef(run.StagePatch, "patch writes to unregistered field %q", name)
	}
	return nil
}

func checkVector(name string, got, want int) error {
	if got != want {
		return run.Pipelinef(run.StagePatch,
			"vector for field %q has length %d, want %d", name, got, want)
	}
	return nil
}
