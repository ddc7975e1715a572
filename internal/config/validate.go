package config

import (
	"fmt"
	"slices"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/vk/framegraph/internal/rendergraph"
)

// IsValid checks the model for declaration mistakes that do not need the
// graph builder to detect: missing names, duplicates, unknown enum spellings.
func (m *Model) IsValid() error {
	if m.Pipeline == nil {
		return goerrors.ErrValidation{
			Caller: "IsValid - Model",
			Issue: goerrors.ErrNilInput{
				InputName: "pipeline",
			},
		}
	}
	if err := m.Pipeline.IsValid(); err != nil {
		return err
	}

	tags := make(map[string]struct{}, len(m.Resources))
	for _, r := range m.Resources {
		if err := r.IsValid(); err != nil {
			return err
		}
		if _, dup := tags[r.Tag]; dup {
			return goerrors.ErrValidation{
				Caller: "IsValid - Model",
				Issue: goerrors.ErrInvalidInput{
					InputName: fmt.Sprintf("resource %q - declared more than once", r.Tag),
				},
			}
		}
		tags[r.Tag] = struct{}{}
	}

	ids := make(map[string]struct{}, len(m.Tasks))
	for _, t := range m.Tasks {
		if err := t.IsValid(); err != nil {
			return err
		}
		if _, dup := ids[t.ID]; dup {
			return goerrors.ErrValidation{
				Caller: "IsValid - Model",
				Issue: goerrors.ErrInvalidInput{
					InputName: fmt.Sprintf("task %q - declared more than once", t.ID),
				},
			}
		}
		ids[t.ID] = struct{}{}
	}
	return nil
}

func (p *Pipeline) IsValid() error {
	if len(p.Final) == 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - Pipeline",
			Issue: goerrors.ErrNilInput{
				InputName: "final",
			},
		}
	}
	if p.Width < 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - Pipeline",
			Issue: goerrors.ErrNegativeInput{
				InputName: "width",
			},
		}
	}
	if p.Height < 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - Pipeline",
			Issue: goerrors.ErrNegativeInput{
				InputName: "height",
			},
		}
	}
	return nil
}

func (r *Resource) IsValid() error {
	if len(r.Tag) == 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - Resource",
			Issue: goerrors.ErrNilInput{
				InputName: "tag",
			},
		}
	}
	if _, err := rendergraph.ParseOwnership(r.Ownership); err != nil {
		return goerrors.ErrValidation{
			Caller: "IsValid - Resource",
			Issue: goerrors.ErrInvalidInput{
				InputName: fmt.Sprintf("resource %q ownership - %v", r.Tag, err),
			},
		}
	}
	return nil
}

func (t *Task) IsValid() error {
	if len(t.ID) == 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - Task",
			Issue: goerrors.ErrNilInput{
				InputName: "id",
			},
		}
	}
	if len(t.Kind) == 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - Task",
			Issue: goerrors.ErrNilInput{
				InputName: fmt.Sprintf("task %q kind", t.ID),
			},
		}
	}

	for _, o := range t.Outputs {
		if len(o.Tag) == 0 {
			return goerrors.ErrValidation{
				Caller: "IsValid - Task",
				Issue: goerrors.ErrNilInput{
					InputName: fmt.Sprintf("task %q output tag", t.ID),
				},
			}
		}
		if _, err := rendergraph.ParseCreationPolicy(o.Create); err != nil {
			return goerrors.ErrValidation{
				Caller: "IsValid - Task",
				Issue: goerrors.ErrInvalidInput{
					InputName: fmt.Sprintf("task %q output %q create - %v", t.ID, o.Tag, err),
				},
			}
		}
		if _, err := rendergraph.ParseOrder(o.Order); err != nil {
			return goerrors.ErrValidation{
				Caller: "IsValid - Task",
				Issue: goerrors.ErrInvalidInput{
					InputName: fmt.Sprintf("task %q output %q order - %v", t.ID, o.Tag, err),
				},
			}
		}
		for _, alt := range o.Alternatives {
			if len(alt.Tag) == 0 {
				return goerrors.ErrValidation{
					Caller: "IsValid - Task",
					Issue: goerrors.ErrNilInput{
						InputName: fmt.Sprintf("task %q output %q alternative tag", t.ID, o.Tag),
					},
				}
			}
			if _, err := rendergraph.ParseCreationPolicy(alt.Create); err != nil {
				return goerrors.ErrValidation{
					Caller: "IsValid - Task",
					Issue: goerrors.ErrInvalidInput{
						InputName: fmt.Sprintf("task %q output %q alternative %q create - %v", t.ID, o.Tag, alt.Tag, err),
					},
				}
			}
		}
	}

	for input := range t.Fallbacks {
		if !slices.Contains(t.Requires, input) && !slices.Contains(t.Optional, input) {
			return goerrors.ErrValidation{
				Caller: "IsValid - Task",
				Issue: goerrors.ErrInvalidInput{
					InputName: fmt.Sprintf("task %q fallbacks - %q is not an input", t.ID, input),
				},
			}
		}
	}
	return nil
}
