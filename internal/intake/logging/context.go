package logging

import "context"

type fieldsKey struct{}

// WithFields returns a copy of ctx carrying fields in addition to any
// already attached.
func WithFields(ctx context.Context, fields ...Field) context.Context {
	existing := FieldsFrom(ctx)
	merged := make([]Field, 0, len(existing)+len(fields))
	merged = append(merged, existing...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// FieldsFrom returns the fields attached to ctx, or nil.
func FieldsFrom(ctx context.Context) []Field {
	fields, _ := ctx.Value(fieldsKey{}).([]Field)
	return fields
}
