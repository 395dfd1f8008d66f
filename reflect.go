// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

import (
	"reflect"

	"github.com/pkg/errors"
)

// binder is implemented by coverpoint records of any value type.
type binder interface {
	bindCondition(func() bool) error
	bindField(reflect.Value) error
}

// BindFields binds the sample expressions of the coverpoints of cg to the
// fields of the struct pointed to by ptr.
//
// Fields are identified by tags: `cov:"name"` binds the field to coverpoint
// name. `cov:""` uses the field name. Untagged fields are ignored.
//
// Fields must be of integer kind. The field value is read on every sample.
//
func BindFields(cg *Covergroup, ptr any) error {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return errors.Errorf("unsupported type %T: need a pointer to a struct", ptr)
	}
	v = v.Elem()
	typ := v.Type()

	for i := range typ.NumField() {
		f := typ.Field(i)
		name, ok := f.Tag.Lookup("cov")
		if !ok {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if err := warnDisabled(cg, name); err != nil {
			return err
		}
		it, _, err := cg.item(name)
		if err != nil {
			return errors.Wrapf(err, "field %q in %q", f.Name, typ.Name())
		}
		b, ok := it.(binder)
		if !ok {
			return errors.Errorf("field %q in %q: %s is not a coverpoint", f.Name, typ.Name(), name)
		}
		if err = b.bindField(v.Field(i)); err != nil {
			return errors.Wrapf(err, "field %q in %q", f.Name, typ.Name())
		}
	}
	return nil
}
