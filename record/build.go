package record

// Build produces a finished record. It evaluates the registered root-field
// producers, merges the registered extras into the call-site context (the
// caller's values win), interpolates the message template against the union
// of the merged data and the record root, and returns the result.
func (r *Registry) Build(context string, level Level, message string, callContext map[string]any) Record {
	order, fields, extras := r.snapshot()

	rec := Record{
		Context: context,
		Level:   level,
		Fields:  make([]Field, 0, len(order)),
	}

	// Producer panics propagate to the dispatcher, which routes them to the
	// logger's error hook without disturbing other handlers.
	for _, name := range order {
		rec.Fields = append(rec.Fields, Field{Key: name, Value: fields[name]()})
	}

	data := make(map[string]any, len(callContext)+len(extras))
	for k, v := range extras {
		data[k] = v()
	}
	for k, v := range callContext {
		data[k] = v
	}
	rec.Data = data

	vars := make(map[string]any, len(data)+len(rec.Fields)+2)
	for _, f := range rec.Fields {
		vars[f.Key] = f.Value
	}
	vars["context"] = context
	vars["level"] = level.String()
	for k, v := range data {
		vars[k] = v
	}

	rec.Message = Interpolate(message, vars)
	return rec
}

// Build produces a record from the default registry.
func Build(context string, level Level, message string, callContext map[string]any) Record {
	return defaultRegistry.Build(context, level, message, callContext)
}
