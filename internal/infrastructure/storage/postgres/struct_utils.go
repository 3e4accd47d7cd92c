package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns lists the "db" tags of T in field order, descending
// into embedded structs. Repositories call it once to build SELECT lists.
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataOf(reflect.TypeOf(zero))
	return meta.columns()
}

type fieldInfo struct {
	index    int
	column   string
	embedded *typeMetadata
}

type typeMetadata struct {
	fields []fieldInfo
}

func (m *typeMetadata) columns() []string {
	var cols []string
	for _, f := range m.fields {
		if f.embedded != nil {
			cols = append(cols, f.embedded.columns()...)
			continue
		}
		cols = append(cols, f.column)
	}
	return cols
}

var typeCache sync.Map // reflect.Type -> *typeMetadata

func metadataOf(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.fields = append(meta.fields, fieldInfo{index: i, embedded: metadataOf(field.Type)})
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldInfo{index: i, column: tag})
		}
	}
	typeCache.Store(t, meta)
	return meta
}

// StructToMap converts a record to column/value pairs using "db" tags.
// It feeds squirrel's SetMap for inserts and updates.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	res := make(map[string]any)
	collect(rv, metadataOf(rv.Type()), res)
	return res
}

// StructValues returns the values of v in ExtractDBColumns order.
// It feeds COPY rows.
func StructValues(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	var out []any
	values(rv, metadataOf(rv.Type()), &out)
	return out
}

func collect(rv reflect.Value, meta *typeMetadata, res map[string]any) {
	for _, f := range meta.fields {
		if f.embedded != nil {
			collect(rv.Field(f.index), f.embedded, res)
			continue
		}
		res[f.column] = rv.Field(f.index).Interface()
	}
}

func values(rv reflect.Value, meta *typeMetadata, out *[]any) {
	for _, f := range meta.fields {
		if f.embedded != nil {
			values(rv.Field(f.index), f.embedded, out)
			continue
		}
		*out = append(*out, rv.Field(f.index).Interface())
	}
}
