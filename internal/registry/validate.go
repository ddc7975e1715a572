package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

var ctyValueType = reflect.TypeOf(cty.Value{})

// ValidateRegistry checks that every registered kind's argument struct can be
// decoded from configuration: it must be a pointer to a struct and every
// `cty`-tagged field must have a cty type.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, kind := range r.TaskKinds() {
		k := r.taskKinds[kind]
		if k.NewArgs == nil {
			continue
		}
		errs = append(errs, validateArgs("task kind", kind, k.NewArgs())...)
	}
	for _, kind := range r.ResourceKinds() {
		k := r.resourceKinds[kind]
		if k.NewArgs == nil {
			continue
		}
		errs = append(errs, validateArgs("resource kind", kind, k.NewArgs())...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validation passed.",
		"task_kinds", len(r.taskKinds), "resource_kinds", len(r.resourceKinds))
	return nil
}

func validateArgs(what, kind string, args any) []string {
	rv := reflect.ValueOf(args)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return []string{fmt.Sprintf("%s '%s': NewArgs must return a non-nil pointer to a struct, got %T", what, kind, args)}
	}

	var errs []string
	seen := make(map[string]string)
	st := rv.Elem().Type()
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strings.Split(field.Tag.Get("cty"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		if prev, dup := seen[name]; dup {
			errs = append(errs, fmt.Sprintf("%s '%s': argument '%s' is bound to both %s and %s", what, kind, name, prev, field.Name))
			continue
		}
		seen[name] = field.Name

		if field.Type == ctyValueType {
			continue
		}
		if _, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface()); err != nil {
			errs = append(errs, fmt.Sprintf("%s '%s', argument '%s': could not imply cty type from Go field type %s: %v",
				what, kind, name, field.Type, err))
		}
	}
	return errs
}
